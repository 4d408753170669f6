package translate

import (
	"context"
	"strings"
	"sync"
)

// MockTranslator is a test double that keeps the identity shortcut and
// otherwise returns canned translations keyed by target language. Errs maps
// target languages to forced failures.
type MockTranslator struct {
	Translations map[string]string
	Errs         map[string]error

	mu        sync.Mutex
	callCount int
}

func (m *MockTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	if source == target || strings.TrimSpace(text) == "" {
		return text, nil
	}

	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if err, ok := m.Errs[target]; ok {
		return "", err
	}
	if translated, ok := m.Translations[target]; ok {
		return translated, nil
	}
	return text, nil
}

// CallCount returns how many calls reached past the identity shortcut.
func (m *MockTranslator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
