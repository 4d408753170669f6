package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/repositories"
)

func TestGoogleTranslator_IdentityShortcut(t *testing.T) {
	remoteCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteCalls++
	}))
	defer server.Close()

	adapter, err := NewGoogleTranslator(GoogleConfig{APIKey: "test-key", APIBaseURL: server.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewGoogleTranslator() error = %v", err)
	}

	tests := []struct {
		name   string
		text   string
		source string
		target string
	}{
		{name: "same language", text: "Welcome aboard", source: "en", target: "en"},
		{name: "empty text", text: "", source: "en", target: "fr"},
		{name: "whitespace text", text: "   ", source: "en", target: "de"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := adapter.Translate(context.Background(), tt.text, tt.source, tt.target)
			if err != nil {
				t.Fatalf("Translate() error = %v", err)
			}
			if got != tt.text {
				t.Errorf("Translate() = %q, want input %q unchanged", got, tt.text)
			}
		})
	}

	if remoteCalls != 0 {
		t.Errorf("identity shortcut made %d remote calls, want 0", remoteCalls)
	}
}

func TestGoogleTranslator_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key query param = %q, want test-key", r.URL.Query().Get("key"))
		}
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Target != "zh-CN" {
			t.Errorf("target = %q, want zh-CN (mapped from zh)", req.Target)
		}
		w.Write([]byte(`{"data": {"translations": [{"translatedText": "欢迎"}]}}`))
	}))
	defer server.Close()

	adapter, err := NewGoogleTranslator(GoogleConfig{APIKey: "test-key", APIBaseURL: server.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewGoogleTranslator() error = %v", err)
	}

	got, err := adapter.Translate(context.Background(), "Welcome", "en", "zh")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "欢迎" {
		t.Errorf("Translate() = %q, want 欢迎", got)
	}
}

func TestGoogleTranslator_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer server.Close()

	adapter, err := NewGoogleTranslator(GoogleConfig{APIKey: "test-key", APIBaseURL: server.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewGoogleTranslator() error = %v", err)
	}

	_, err = adapter.Translate(context.Background(), "Welcome", "en", "fr")
	var transErr *repositories.TranslationError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected TranslationError, got %T: %v", err, err)
	}
	if transErr.TargetLanguage != "fr" {
		t.Errorf("TargetLanguage = %q, want fr", transErr.TargetLanguage)
	}
}

func TestNewGoogleTranslator_RequiresAPIKey(t *testing.T) {
	_, err := NewGoogleTranslator(GoogleConfig{}, zap.NewNop())
	var confErr *repositories.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}
