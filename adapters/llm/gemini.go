// Package llm gives a second opinion on borderline transcriptions. The
// rule-based noise filter handles the obvious cases; for everything else a
// small language model judges whether a transcript contains actual speech.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/tourlingo/relay/domain/repositories"
)

const (
	defaultModel   = "gemini-2.0-flash"
	judgeTimeout   = 5 * time.Second
	maxOutputBytes = 256
)

const judgePrompt = `Analyze this speech-to-text transcription and determine if it contains actual speech content that should be translated, or if it's just noise/sound descriptions.

Transcription: %q

Respond with JSON only:
{
  "isActualSpeech": boolean,
  "cleanedText": "the actual speech content with noise removed, or empty string if no speech",
  "noiseDescriptions": ["list of detected noise/sound descriptions"]
}`

var jsonBlock = regexp.MustCompile(`\{[\s\S]*\}`)

// GeminiNoiseArbiter implements NoiseArbiter using Google's Gemini API.
type GeminiNoiseArbiter struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

var _ repositories.NoiseArbiter = (*GeminiNoiseArbiter)(nil)

// NewGeminiNoiseArbiter creates a new Gemini-backed arbiter.
func NewGeminiNoiseArbiter(logger *zap.Logger) (*GeminiNoiseArbiter, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, &repositories.ConfigurationError{Setting: "GEMINI_API_KEY"}
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiNoiseArbiter{
		client: client,
		logger: logger,
		model:  defaultModel,
	}, nil
}

type judgeResponse struct {
	IsActualSpeech    bool     `json:"isActualSpeech"`
	CleanedText       string   `json:"cleanedText"`
	NoiseDescriptions []string `json:"noiseDescriptions"`
}

// Judge asks the model whether a transcript is real speech. Any failure is
// returned to the caller, who falls back to the rule-based verdict.
func (g *GeminiNoiseArbiter) Judge(ctx context.Context, text string) (repositories.NoiseVerdict, error) {
	ctx, cancel := context.WithTimeout(ctx, judgeTimeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(judgePrompt, text), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0)),
		MaxOutputTokens: maxOutputBytes,
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return repositories.NoiseVerdict{}, fmt.Errorf("failed to generate verdict: %w", err)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return repositories.NoiseVerdict{}, fmt.Errorf("no verdict generated")
	}

	var raw string
	for _, part := range response.Candidates[0].Content.Parts {
		raw += part.Text
	}

	// Models wrap JSON in prose or code fences; extract the object.
	match := jsonBlock.FindString(raw)
	if match == "" {
		return repositories.NoiseVerdict{}, fmt.Errorf("no JSON in verdict: %s", raw)
	}

	var decoded judgeResponse
	if err := json.Unmarshal([]byte(match), &decoded); err != nil {
		return repositories.NoiseVerdict{}, fmt.Errorf("failed to parse verdict: %w", err)
	}

	g.logger.Debug("Noise arbitration completed",
		zap.Bool("isSpeech", decoded.IsActualSpeech),
		zap.Int("noiseDescriptions", len(decoded.NoiseDescriptions)))

	return repositories.NoiseVerdict{
		IsSpeech:          decoded.IsActualSpeech,
		CleanedText:       strings.TrimSpace(decoded.CleanedText),
		NoiseDescriptions: decoded.NoiseDescriptions,
	}, nil
}
