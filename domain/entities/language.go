package entities

// Language describes one language a tour can be delivered in.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
}

// SupportedLanguages is the set of languages guests can choose from.
// Every code is understood by the STT, translation, and synthesis services.
var SupportedLanguages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "zh", Name: "Chinese", NativeName: "中文"},
	{Code: "ko", Name: "Korean", NativeName: "한국어"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "nl", Name: "Dutch", NativeName: "Nederlands"},
}

// LanguageByCode looks up a supported language by its code.
func LanguageByCode(code string) (Language, bool) {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// IsLanguageSupported reports whether code is in the supported set.
func IsLanguageSupported(code string) bool {
	_, ok := LanguageByCode(code)
	return ok
}
