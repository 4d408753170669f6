package repositories

import "context"

// SynthesisOptions shape one synthesis call. The zero value selects the
// quality model with the configured default voice.
type SynthesisOptions struct {
	// VoiceID overrides every other voice selection rule when set.
	VoiceID string
	// UseOperatorVoice selects the guide's cloned voice when one is
	// configured, so every language speaks with the guide's own timbre.
	UseOperatorVoice bool
	// FastMode picks the low-latency model instead of the quality model.
	FastMode bool

	// Voice shaping. Zero values fall back to the adapter defaults.
	Stability       float64
	SimilarityBoost float64
	Style           float64
}

// SpeechSynthesizer abstracts text-to-speech services.
type SpeechSynthesizer interface {
	// Synthesize renders text as speech audio in the given language and
	// returns the encoded audio bytes.
	Synthesize(ctx context.Context, text, language string, opts SynthesisOptions) ([]byte, error)
}
