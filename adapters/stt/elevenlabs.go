package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://api.elevenlabs.io/v1"
	defaultModelID    = "scribe_v1"

	// Live-conversation budget: a transcription that takes longer than this
	// is worthless to the room anyway.
	requestTimeout = 15 * time.Second
)

// ElevenLabsConfig holds configuration for the ElevenLabsSTT adapter.
// APIKey is required; the rest defaults sensibly.
type ElevenLabsConfig struct {
	APIKey     string
	APIBaseURL string
	ModelID    string
}

// NewElevenLabsConfigFromEnv reads the adapter configuration from
// environment variables.
func NewElevenLabsConfigFromEnv() ElevenLabsConfig {
	return ElevenLabsConfig{
		APIKey:     os.Getenv("ELEVENLABS_API_KEY"),
		APIBaseURL: os.Getenv("ELEVENLABS_API_BASE_URL"),
		ModelID:    os.Getenv("ELEVENLABS_STT_MODEL_ID"),
	}
}

// ElevenLabsSTT implements SpeechToText using the ElevenLabs Scribe API.
type ElevenLabsSTT struct {
	apiKey     string
	apiBaseURL string
	modelID    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.SpeechToText = (*ElevenLabsSTT)(nil)

// NewElevenLabsSTT creates a new ElevenLabs speech-to-text instance. A
// missing API key is a configuration error; the adapter cannot work
// without it.
func NewElevenLabsSTT(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsSTT, error) {
	if config.APIKey == "" {
		return nil, &repositories.ConfigurationError{Setting: "ELEVENLABS_API_KEY"}
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	modelID := config.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}

	return &ElevenLabsSTT{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		modelID:    modelID,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}, nil
}

type transcriptionResponse struct {
	Text                string  `json:"text"`
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
}

// Transcribe uploads one audio segment and returns its transcript. An empty
// transcript means the service detected no speech; callers treat that as a
// normal outcome.
func (e *ElevenLabsSTT) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", "audio.webm")
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio payload: %w", err)
	}
	if err := writer.WriteField("model_id", e.modelID); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if languageHint != "" {
		if err := writer.WriteField("language_code", languageHint); err != nil {
			return "", fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := e.apiBaseURL + "/speech-to-text"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return "", &repositories.TranscriptionError{
			StatusCode: resp.StatusCode,
			Body:       string(errorBody),
		}
	}

	var decoded transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	e.logger.Debug("Transcription completed",
		zap.Int("audioBytes", len(audio)),
		zap.String("detectedLanguage", decoded.LanguageCode),
		zap.Int("transcriptLength", len(decoded.Text)))

	return decoded.Text, nil
}
