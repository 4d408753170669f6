package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://api.elevenlabs.io/v1"
	defaultVoiceID    = "21m00Tcm4TlvDq8ikWAM" // Rachel voice

	// Flash trades quality for ~75ms latency; multilingual is the quality
	// model for pre-rendered audio.
	fastModelID    = "eleven_flash_v2_5"
	qualityModelID = "eleven_multilingual_v2"

	defaultStability       = 0.5
	defaultSimilarityBoost = 0.75

	requestTimeout = 20 * time.Second
)

// ElevenLabsConfig holds configuration for the ElevenLabsTTS adapter.
// Required fields:
//   - APIKey: the ElevenLabs API key
//
// Optional fields:
//   - APIBaseURL: API base URL (default "https://api.elevenlabs.io/v1")
//   - DefaultVoiceID: voice used when nothing more specific applies
//   - OperatorVoiceID: the guide's cloned voice, used when a synthesis call
//     asks for the operator voice
//   - LanguageVoices: per-language voice overrides, keyed by language code
type ElevenLabsConfig struct {
	APIKey          string
	APIBaseURL      string
	DefaultVoiceID  string
	OperatorVoiceID string
	LanguageVoices  map[string]string
}

// NewElevenLabsConfigFromEnv reads the adapter configuration from
// environment variables. Per-language voices use ELEVENLABS_VOICE_<CODE>.
func NewElevenLabsConfigFromEnv() ElevenLabsConfig {
	languageVoices := make(map[string]string)
	for _, code := range []string{"en", "de", "ja", "zh", "ko", "fr", "es", "it", "pt", "nl"} {
		if voice := os.Getenv("ELEVENLABS_VOICE_" + strings.ToUpper(code)); voice != "" {
			languageVoices[code] = voice
		}
	}

	return ElevenLabsConfig{
		APIKey:          os.Getenv("ELEVENLABS_API_KEY"),
		APIBaseURL:      os.Getenv("ELEVENLABS_API_BASE_URL"),
		DefaultVoiceID:  os.Getenv("ELEVENLABS_VOICE_ID"),
		OperatorVoiceID: os.Getenv("ELEVENLABS_OPERATOR_VOICE_ID"),
		LanguageVoices:  languageVoices,
	}
}

// ElevenLabsTTS implements SpeechSynthesizer using the ElevenLabs API.
type ElevenLabsTTS struct {
	apiKey          string
	apiBaseURL      string
	defaultVoiceID  string
	operatorVoiceID string
	languageVoices  map[string]string
	httpClient      *http.Client
	logger          *zap.Logger
}

var _ repositories.SpeechSynthesizer = (*ElevenLabsTTS)(nil)

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// NewElevenLabsTTS creates a new ElevenLabs TTS instance.
func NewElevenLabsTTS(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	if config.APIKey == "" {
		return nil, &repositories.ConfigurationError{Setting: "ELEVENLABS_API_KEY"}
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	voiceID := config.DefaultVoiceID
	if voiceID == "" {
		voiceID = defaultVoiceID
		logger.Info("Using default voice ID", zap.String("voiceID", voiceID))
	}

	return &ElevenLabsTTS{
		apiKey:          config.APIKey,
		apiBaseURL:      apiBaseURL,
		defaultVoiceID:  voiceID,
		operatorVoiceID: config.OperatorVoiceID,
		languageVoices:  config.LanguageVoices,
		httpClient:      &http.Client{Timeout: requestTimeout},
		logger:          logger,
	}, nil
}

// Synthesize renders text as MP3 speech audio. Voice selection precedence:
// explicit VoiceID, then the operator's cloned voice when requested and
// configured, then the language-specific voice, then the default.
func (e *ElevenLabsTTS) Synthesize(ctx context.Context, text, language string, opts repositories.SynthesisOptions) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voiceID := e.selectVoice(language, opts)
	modelID := qualityModelID
	if opts.FastMode {
		modelID = fastModelID
	}

	settings := voiceSettings{
		Stability:       opts.Stability,
		SimilarityBoost: opts.SimilarityBoost,
		Style:           opts.Style,
		UseSpeakerBoost: true,
	}
	if settings.Stability == 0 {
		settings.Stability = defaultStability
	}
	if settings.SimilarityBoost == 0 {
		settings.SimilarityBoost = defaultSimilarityBoost
	}

	requestBody, err := json.Marshal(synthesisRequest{
		Text:          text,
		ModelID:       modelID,
		VoiceSettings: settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", e.apiBaseURL, voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, &repositories.SynthesisError{
			Language:   language,
			StatusCode: resp.StatusCode,
			Body:       string(errorBody),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	e.logger.Debug("Synthesis completed",
		zap.String("language", language),
		zap.String("voiceID", voiceID),
		zap.String("modelID", modelID),
		zap.Int("audioBytes", len(audio)))

	return audio, nil
}

func (e *ElevenLabsTTS) selectVoice(language string, opts repositories.SynthesisOptions) string {
	if opts.VoiceID != "" {
		return opts.VoiceID
	}
	if opts.UseOperatorVoice && e.operatorVoiceID != "" {
		return e.operatorVoiceID
	}
	if voice, ok := e.languageVoices[language]; ok {
		return voice
	}
	return e.defaultVoiceID
}
