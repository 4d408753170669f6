// Package wire is the data-channel protocol between tour participants:
// translated-audio messages, and the chunking that squeezes them under the
// transport's per-message size ceiling.
package wire

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeTranslatedAudio = "translated_audio"
	MessageTypeAudioChunk      = "audio_chunk"
)

// ChannelAll and ChannelGuide are the broadcast and ask-the-guide targets;
// any other targetChannel value is a participant identity.
const (
	ChannelAll   = "all"
	ChannelGuide = "guide"
)

// TranslatedAudioMessage carries one language's translated utterance. It
// exists only on the wire; one is sent per target language per utterance.
type TranslatedAudioMessage struct {
	Type           string `json:"type"`
	Language       string `json:"language"`
	Text           string `json:"text"`
	AudioPayload   string `json:"audioPayload,omitempty"`
	Timestamp      int64  `json:"timestamp"`
	SenderName     string `json:"senderName"`
	SenderLanguage string `json:"senderLanguage"`
	TargetChannel  string `json:"targetChannel"`
}

// NewTranslatedAudioMessage builds a wire message for one language. Audio
// is carried base64-encoded inside the JSON payload.
func NewTranslatedAudioMessage(language, text string, audio []byte, senderName, senderLanguage, targetChannel string) *TranslatedAudioMessage {
	msg := &TranslatedAudioMessage{
		Type:           MessageTypeTranslatedAudio,
		Language:       language,
		Text:           text,
		Timestamp:      time.Now().UnixMilli(),
		SenderName:     senderName,
		SenderLanguage: senderLanguage,
		TargetChannel:  targetChannel,
	}
	if len(audio) > 0 {
		msg.AudioPayload = base64.StdEncoding.EncodeToString(audio)
	}
	return msg
}

// Audio decodes the base64 audio payload.
func (m *TranslatedAudioMessage) Audio() ([]byte, error) {
	if m.AudioPayload == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(m.AudioPayload)
}

// ChunkMessage is one slice of an oversized serialized message.
type ChunkMessage struct {
	Type        string `json:"type"`
	MessageID   string `json:"messageId"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
	Data        string `json:"data"`
}

// newMessageID returns an id whose prefix encodes the creation time in unix
// milliseconds, so receivers can age buffers without extra bookkeeping. The
// uuid suffix keeps two messages created in the same millisecond apart.
func newMessageID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// messageIDTime recovers the creation time encoded in a message id.
func messageIDTime(id string) (time.Time, bool) {
	prefix, _, _ := strings.Cut(id, "-")
	millis, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || millis <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}
