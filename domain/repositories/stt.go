package repositories

import "context"

// SpeechToText abstracts speech recognition services.
type SpeechToText interface {
	// Transcribe converts one recorded audio segment to text. The language
	// hint is optional; pass "" to let the service detect the language.
	// An empty transcript is a normal outcome (no speech in the segment),
	// not an error.
	Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error)
}
