package entities

import "testing"

func TestParseParticipantMetadata(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ParticipantMetadata
	}{
		{
			name: "full metadata",
			raw:  `{"displayName":"Maya","language":"de","role":"guide"}`,
			want: ParticipantMetadata{DisplayName: "Maya", Language: "de", Role: RoleGuide},
		},
		{
			name: "empty string defaults",
			raw:  "",
			want: ParticipantMetadata{Language: "en", Role: RoleGuest},
		},
		{
			name: "malformed json defaults",
			raw:  `{"language": nope}`,
			want: ParticipantMetadata{Language: "en", Role: RoleGuest},
		},
		{
			name: "unknown role falls back to guest",
			raw:  `{"language":"fr","role":"operator"}`,
			want: ParticipantMetadata{Language: "fr", Role: RoleGuest},
		},
		{
			name: "missing language falls back to english",
			raw:  `{"role":"guide"}`,
			want: ParticipantMetadata{Language: "en", Role: RoleGuide},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseParticipantMetadata(tt.raw); got != tt.want {
				t.Errorf("ParseParticipantMetadata(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIsGuide(t *testing.T) {
	guide := Participant{Identity: "guide-1", Role: RoleGuide}
	guest := Participant{Identity: "guest-1", Role: RoleGuest}

	if !guide.IsGuide() {
		t.Error("guide should report IsGuide")
	}
	if guest.IsGuide() {
		t.Error("guest should not report IsGuide")
	}
}

func TestLanguageLookup(t *testing.T) {
	lang, ok := LanguageByCode("ja")
	if !ok || lang.Name != "Japanese" {
		t.Errorf("LanguageByCode(ja) = %+v, %v", lang, ok)
	}
	if IsLanguageSupported("xx") {
		t.Error("xx should not be supported")
	}
	if !IsLanguageSupported("zh") {
		t.Error("zh should be supported")
	}
}
