// Package translate wraps the Google Cloud Translation v2 REST API.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://translation.googleapis.com/language/translate/v2"

	requestTimeout = 10 * time.Second
)

// serviceLanguageCodes maps our generic codes to the service-specific
// variants Google expects. Everything not listed passes through unchanged.
var serviceLanguageCodes = map[string]string{
	"zh": "zh-CN",
}

// GoogleConfig holds configuration for the Google translation adapter.
type GoogleConfig struct {
	APIKey     string
	APIBaseURL string
}

// NewGoogleConfigFromEnv reads the adapter configuration from environment
// variables.
func NewGoogleConfigFromEnv() GoogleConfig {
	return GoogleConfig{
		APIKey:     os.Getenv("GOOGLE_TRANSLATE_API_KEY"),
		APIBaseURL: os.Getenv("GOOGLE_TRANSLATE_API_BASE_URL"),
	}
}

// GoogleTranslator implements Translator using the Translation v2 API.
type GoogleTranslator struct {
	apiKey     string
	apiBaseURL string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.Translator = (*GoogleTranslator)(nil)

// NewGoogleTranslator creates a new Google translation instance.
func NewGoogleTranslator(config GoogleConfig, logger *zap.Logger) (*GoogleTranslator, error) {
	if config.APIKey == "" {
		return nil, &repositories.ConfigurationError{Setting: "GOOGLE_TRANSLATE_API_KEY"}
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	return &GoogleTranslator{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}, nil
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate converts text between languages. Identity inputs (same
// language, or blank text) return unchanged without touching the network.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == target || strings.TrimSpace(text) == "" {
		return text, nil
	}

	payload, err := json.Marshal(translateRequest{
		Q:      text,
		Source: mapLanguageCode(source),
		Target: mapLanguageCode(target),
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal translate request: %w", err)
	}

	endpoint := g.apiBaseURL + "?key=" + url.QueryEscape(g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return "", &repositories.TranslationError{
			TargetLanguage: target,
			StatusCode:     resp.StatusCode,
			Body:           string(errorBody),
		}
	}

	var decoded translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode translate response: %w", err)
	}
	if len(decoded.Data.Translations) == 0 {
		g.logger.Warn("Translation response carried no translations",
			zap.String("source", source),
			zap.String("target", target))
		return text, nil
	}

	return decoded.Data.Translations[0].TranslatedText, nil
}

// mapLanguageCode applies service-specific language variants at the
// boundary, invisible to callers.
func mapLanguageCode(code string) string {
	if mapped, ok := serviceLanguageCodes[code]; ok {
		return mapped
	}
	return code
}
