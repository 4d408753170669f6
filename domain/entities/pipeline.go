package entities

// FilterReason explains why a segment was withheld from propagation.
type FilterReason string

const (
	// FilterReasonNoise marks a segment the noise filter classified as
	// entirely non-speech (ambient sound descriptions, fillers).
	FilterReasonNoise FilterReason = "noise"
	// FilterReasonTooShort marks a segment that survived filtering but did
	// not contain enough meaningful content to translate.
	FilterReasonTooShort FilterReason = "too_short"
)

// Translation is the per-language output of the pipeline: the translated
// text plus, when audio generation was requested and succeeded, the
// synthesized speech.
type Translation struct {
	Text       string `json:"text"`
	AudioBytes []byte `json:"audioBytes,omitempty"`
}

// PipelineResult is the aggregate outcome of processing one audio segment.
// It is created once per pipeline invocation and never mutated afterwards.
type PipelineResult struct {
	OriginalText     string                 `json:"originalText"`
	OriginalLanguage string                 `json:"originalLanguage"`
	FilteredText     string                 `json:"filteredText,omitempty"`
	Filtered         bool                   `json:"filtered"`
	FilterReason     FilterReason           `json:"filterReason,omitempty"`
	NoiseDescriptions []string              `json:"noiseDescriptions,omitempty"`
	Translations     map[string]Translation `json:"translations"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
}

// HasSpeech reports whether the segment produced anything worth sending:
// a transcript survived both the no-speech check and the noise filter.
func (r *PipelineResult) HasSpeech() bool {
	return !r.Filtered && r.OriginalText != ""
}
