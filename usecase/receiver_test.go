package usecase

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/entities"
	"github.com/tourlingo/relay/internal/wire"
)

func sendChunked(t *testing.T, maxChunkBytes int, msg *wire.TranslatedAudioMessage) [][]byte {
	t.Helper()
	sender := wire.NewSender(maxChunkBytes, time.Millisecond, zap.NewNop())
	var payloads [][]byte
	err := sender.Send(context.Background(), msg, func(_ context.Context, payload []byte) error {
		copied := make([]byte, len(payload))
		copy(copied, payload)
		payloads = append(payloads, copied)
		return nil
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	return payloads
}

func TestReceiverAcceptsOwnLanguage(t *testing.T) {
	local := entities.Participant{Identity: "guest-1", Language: "fr", Role: entities.RoleGuest}
	receiver := NewReceiver(local, time.Minute, zap.NewNop())

	msg := wire.NewTranslatedAudioMessage("fr", "Bienvenue", []byte("audio"), "Maya", "en", wire.ChannelAll)
	payloads := sendChunked(t, 80, msg)
	if len(payloads) < 2 {
		t.Fatalf("expected a chunked message, got %d payloads", len(payloads))
	}

	var got *wire.TranslatedAudioMessage
	for _, payload := range payloads {
		if accepted, ok := receiver.HandleRaw(payload); ok {
			got = accepted
		}
	}
	if got == nil {
		t.Fatal("message never accepted")
	}
	if got.Text != "Bienvenue" {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestReceiverRejectsOtherLanguage(t *testing.T) {
	local := entities.Participant{Identity: "guest-1", Language: "fr", Role: entities.RoleGuest}
	receiver := NewReceiver(local, time.Minute, zap.NewNop())

	msg := wire.NewTranslatedAudioMessage("ja", "ようこそ", nil, "Maya", "en", wire.ChannelAll)
	for _, payload := range sendChunked(t, wire.DefaultMaxChunkBytes, msg) {
		if _, ok := receiver.HandleRaw(payload); ok {
			t.Fatal("accepted a message in another language")
		}
	}
}

func TestReceiverGuideChannel(t *testing.T) {
	msg := wire.NewTranslatedAudioMessage("de", "Eine Frage", nil, "Ken", "ja", wire.ChannelGuide)
	payloads := sendChunked(t, wire.DefaultMaxChunkBytes, msg)

	guide := NewReceiver(entities.Participant{Identity: "guide-1", Language: "de", Role: entities.RoleGuide}, time.Minute, zap.NewNop())
	if _, ok := guide.HandleRaw(payloads[0]); !ok {
		t.Error("guide should accept a guide-channel message in their language")
	}

	guest := NewReceiver(entities.Participant{Identity: "guest-2", Language: "de", Role: entities.RoleGuest}, time.Minute, zap.NewNop())
	if _, ok := guest.HandleRaw(payloads[0]); ok {
		t.Error("guest should reject a guide-channel message")
	}
}
