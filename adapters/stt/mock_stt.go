package stt

import (
	"context"
	"sync"
)

// MockSpeechToText is a test double recording every call. The transcript
// returned is fixed per instance; set Err to simulate service failure.
type MockSpeechToText struct {
	Transcript string
	Err        error

	mu    sync.Mutex
	calls []MockTranscribeCall
}

type MockTranscribeCall struct {
	AudioBytes   int
	LanguageHint string
}

func (m *MockSpeechToText) Transcribe(_ context.Context, audio []byte, languageHint string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockTranscribeCall{AudioBytes: len(audio), LanguageHint: languageHint})
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Transcript, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockSpeechToText) Calls() []MockTranscribeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockTranscribeCall(nil), m.calls...)
}
