package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/entities"
	"github.com/tourlingo/relay/domain/repositories"
	"github.com/tourlingo/relay/internal/noisefilter"
)

// translationFailedPlaceholder stands in for a language whose translation
// or synthesis failed; receivers see it instead of silence with no text.
const translationFailedPlaceholder = "[Translation failed]"

// ProcessOptions shape one pipeline invocation.
type ProcessOptions struct {
	GenerateAudio     bool
	EnableNoiseFilter bool
	UseOperatorVoice  bool
	FastMode          bool
}

// TranslationPipeline drives one audio segment through transcription,
// noise filtering, and parallel per-language translation and synthesis.
type TranslationPipeline struct {
	speechToText repositories.SpeechToText
	translator   repositories.Translator
	synthesizer  repositories.SpeechSynthesizer
	arbiter      repositories.NoiseArbiter // optional, may be nil
	logger       *zap.Logger
}

// NewTranslationPipeline creates a new pipeline. The arbiter is optional;
// pass nil to rely on the rule-based filter alone.
func NewTranslationPipeline(
	stt repositories.SpeechToText,
	translator repositories.Translator,
	synthesizer repositories.SpeechSynthesizer,
	arbiter repositories.NoiseArbiter,
	logger *zap.Logger,
) *TranslationPipeline {
	return &TranslationPipeline{
		speechToText: stt,
		translator:   translator,
		synthesizer:  synthesizer,
		arbiter:      arbiter,
		logger:       logger,
	}
}

// Process runs the full pipeline for one segment. It returns an error only
// when transcription fails; translation and synthesis failures are isolated
// per target language and reported inside the result. The call blocks until
// every target language has settled.
func (p *TranslationPipeline) Process(
	ctx context.Context,
	audio []byte,
	sourceLanguage string,
	targetLanguages []string,
	opts ProcessOptions,
) (*entities.PipelineResult, error) {
	start := time.Now()

	result := &entities.PipelineResult{
		OriginalLanguage: sourceLanguage,
		Translations:     make(map[string]entities.Translation),
	}

	originalText, err := p.speechToText.Transcribe(ctx, audio, sourceLanguage)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	result.OriginalText = originalText

	// No speech in the segment is a normal outcome, not a filtered one.
	if strings.TrimSpace(originalText) == "" {
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		return result, nil
	}

	text := originalText
	if opts.EnableNoiseFilter {
		filtered := noisefilter.Filter(originalText)
		result.NoiseDescriptions = filtered.NoiseDescriptions

		if filtered.IsNoise {
			result.Filtered = true
			result.FilterReason = entities.FilterReasonNoise
			result.ProcessingTimeMs = time.Since(start).Milliseconds()
			p.logger.Info("Segment filtered as noise",
				zap.String("originalText", originalText),
				zap.Strings("noiseDescriptions", filtered.NoiseDescriptions))
			return result, nil
		}

		text = filtered.FilteredText
		result.FilteredText = text

		// Second gate: catches e.g. one real word drowning in filler.
		if !noisefilter.IsLikelySpeech(text) && !p.arbiterRescues(ctx, &text) {
			result.Filtered = true
			result.FilterReason = entities.FilterReasonTooShort
			result.FilteredText = text
			result.ProcessingTimeMs = time.Since(start).Milliseconds()
			p.logger.Info("Segment filtered as too short",
				zap.String("filteredText", text))
			return result, nil
		}
		result.FilteredText = text
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, target := range targetLanguages {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			translation := p.processLanguage(ctx, text, sourceLanguage, target, opts)
			mu.Lock()
			result.Translations[target] = translation
			mu.Unlock()
		}(target)
	}
	wg.Wait()

	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	p.logger.Info("Pipeline completed",
		zap.String("sourceLanguage", sourceLanguage),
		zap.Int("targetLanguages", len(targetLanguages)),
		zap.Int64("processingTimeMs", result.ProcessingTimeMs))

	return result, nil
}

// processLanguage translates and synthesizes for one target language.
// Failures never propagate: the entry degrades to a placeholder with no
// audio while the other languages complete normally.
func (p *TranslationPipeline) processLanguage(
	ctx context.Context,
	text, source, target string,
	opts ProcessOptions,
) entities.Translation {
	translatedText, err := p.translator.Translate(ctx, text, source, target)
	if err != nil {
		p.logger.Error("Translation failed",
			zap.String("targetLanguage", target),
			zap.Error(err))
		return entities.Translation{Text: translationFailedPlaceholder}
	}

	translation := entities.Translation{Text: translatedText}

	if opts.GenerateAudio {
		audio, err := p.synthesizer.Synthesize(ctx, translatedText, target, repositories.SynthesisOptions{
			UseOperatorVoice: opts.UseOperatorVoice,
			FastMode:         opts.FastMode,
		})
		if err != nil {
			p.logger.Error("Synthesis failed",
				zap.String("targetLanguage", target),
				zap.Error(err))
			return entities.Translation{Text: translationFailedPlaceholder}
		}
		translation.AudioBytes = audio
	}

	return translation
}

// arbiterRescues asks the optional LLM arbiter to overrule the too_short
// gate. On any arbiter failure the rule-based verdict stands.
func (p *TranslationPipeline) arbiterRescues(ctx context.Context, text *string) bool {
	if p.arbiter == nil {
		return false
	}

	verdict, err := p.arbiter.Judge(ctx, *text)
	if err != nil {
		p.logger.Warn("Noise arbiter unavailable, keeping rule-based verdict", zap.Error(err))
		return false
	}
	if !verdict.IsSpeech {
		return false
	}
	if verdict.CleanedText != "" {
		*text = verdict.CleanedText
	}
	return true
}
