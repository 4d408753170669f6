package repositories

import "context"

// NoiseVerdict is an arbiter's judgement of a borderline transcription.
type NoiseVerdict struct {
	IsSpeech          bool
	CleanedText       string
	NoiseDescriptions []string
}

// NoiseArbiter gives a second opinion on transcriptions the rule-based
// filter is unsure about. Implementations are optional; callers fall back
// to the rule-based result when the arbiter is absent or fails.
type NoiseArbiter interface {
	Judge(ctx context.Context, text string) (NoiseVerdict, error)
}
