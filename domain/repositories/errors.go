package repositories

import "fmt"

// ConfigurationError indicates a missing credential or setting. It is fatal
// for the operation and never retried; the operator has to intervene.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Setting)
}

// TranscriptionError is a speech-to-text service failure. It is fatal for
// the segment: with no transcript, nothing downstream can proceed.
type TranscriptionError struct {
	StatusCode int
	Body       string
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription service returned %d: %s", e.StatusCode, e.Body)
}

// TranslationError is a translation service failure for one target language.
// The pipeline isolates it; other languages complete normally.
type TranslationError struct {
	TargetLanguage string
	StatusCode     int
	Body           string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation to %s returned %d: %s", e.TargetLanguage, e.StatusCode, e.Body)
}

// SynthesisError is a text-to-speech failure for one language. Like
// TranslationError it only fails that language's output.
type SynthesisError struct {
	Language   string
	StatusCode int
	Body       string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis for %s returned %d: %s", e.Language, e.StatusCode, e.Body)
}
