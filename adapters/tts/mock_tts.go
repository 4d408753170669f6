package tts

import (
	"context"
	"sync"

	"github.com/tourlingo/relay/domain/repositories"
)

// MockSynthesizer is a test double. By default it returns a marker payload
// derived from the language; Errs forces failures per language.
type MockSynthesizer struct {
	Errs map[string]error

	mu    sync.Mutex
	calls []MockSynthesizeCall
}

type MockSynthesizeCall struct {
	Text     string
	Language string
	Opts     repositories.SynthesisOptions
}

func (m *MockSynthesizer) Synthesize(_ context.Context, text, language string, opts repositories.SynthesisOptions) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockSynthesizeCall{Text: text, Language: language, Opts: opts})
	m.mu.Unlock()

	if err, ok := m.Errs[language]; ok {
		return nil, err
	}
	return []byte("audio-" + language), nil
}

// Calls returns a copy of the recorded calls.
func (m *MockSynthesizer) Calls() []MockSynthesizeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockSynthesizeCall(nil), m.calls...)
}
