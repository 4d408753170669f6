package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// DefaultMaxChunkBytes keeps every chunk safely under the transport's
	// hard per-message ceiling (~64KB) with headroom for the chunk
	// envelope itself.
	DefaultMaxChunkBytes = 50_000

	// DefaultInterChunkDelay paces chunk sends so the transport's reliable
	// delivery queue is not saturated by one large utterance.
	DefaultInterChunkDelay = 10 * time.Millisecond
)

// SendFunc delivers one reliable payload to the transport. The caller
// binds any destination restriction into the function, so every chunk of a
// message goes to the same recipients.
type SendFunc func(ctx context.Context, payload []byte) error

// Sender serializes messages onto a size-bounded reliable channel,
// chunking when the payload exceeds the limit.
type Sender struct {
	maxChunkBytes   int
	interChunkDelay time.Duration
	logger          *zap.Logger
}

// NewSender creates a sender with the given chunk limit. Zero values fall
// back to the defaults.
func NewSender(maxChunkBytes int, interChunkDelay time.Duration, logger *zap.Logger) *Sender {
	if maxChunkBytes <= 0 {
		maxChunkBytes = DefaultMaxChunkBytes
	}
	if interChunkDelay <= 0 {
		interChunkDelay = DefaultInterChunkDelay
	}
	return &Sender{
		maxChunkBytes:   maxChunkBytes,
		interChunkDelay: interChunkDelay,
		logger:          logger,
	}
}

// Send serializes message and delivers it, splitting into ordered chunks
// when it exceeds the chunk limit. Chunks are sent strictly in order with
// a small delay between them; reassembly depends on every chunk arriving
// under the same messageId.
func (s *Sender) Send(ctx context.Context, message any, send SendFunc) error {
	serialized, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	if len(serialized) < s.maxChunkBytes {
		return send(ctx, serialized)
	}

	messageID := newMessageID()
	slices := splitChunks(serialized, s.maxChunkBytes)
	totalChunks := len(slices)

	s.logger.Debug("Chunking oversized message",
		zap.String("messageId", messageID),
		zap.Int("payloadBytes", len(serialized)),
		zap.Int("totalChunks", totalChunks))

	for i, data := range slices {
		chunk, err := json.Marshal(ChunkMessage{
			Type:        MessageTypeAudioChunk,
			MessageID:   messageID,
			ChunkIndex:  i,
			TotalChunks: totalChunks,
			Data:        data,
		})
		if err != nil {
			return fmt.Errorf("failed to serialize chunk %d: %w", i, err)
		}

		if err := send(ctx, chunk); err != nil {
			return fmt.Errorf("failed to send chunk %d/%d: %w", i+1, totalChunks, err)
		}

		if i < totalChunks-1 {
			select {
			case <-time.After(s.interChunkDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

// splitChunks cuts serialized JSON into pieces of at most maxBytes,
// backing off to a rune boundary so no UTF-8 sequence is split across
// chunks. Reassembly concatenates the Data strings in index order.
func splitChunks(serialized []byte, maxBytes int) []string {
	var chunks []string
	for start := 0; start < len(serialized); {
		end := start + maxBytes
		if end >= len(serialized) {
			end = len(serialized)
		} else {
			for end > start && !utf8.RuneStart(serialized[end]) {
				end--
			}
			if end == start {
				end = start + maxBytes
			}
		}
		chunks = append(chunks, string(serialized[start:end]))
		start = end
	}
	return chunks
}
