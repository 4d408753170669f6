package wire

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBufferStaleness is how long a partially received message may sit
// before its buffer is evicted. A sender that died mid-message must not
// leak its chunks forever.
const DefaultBufferStaleness = 30 * time.Second

type chunkBuffer struct {
	chunks    []string
	received  int
	createdAt time.Time
}

// Assembler rebuilds chunked messages on the receive side. Direct
// translated-audio payloads pass straight through; chunk payloads are
// collected per messageId until complete. Payloads that are not JSON, or
// whose type is unknown, are ignored.
type Assembler struct {
	mu        sync.Mutex
	buffers   map[string]*chunkBuffer
	staleness time.Duration
	logger    *zap.Logger
}

// NewAssembler creates an assembler. A non-positive staleness falls back
// to the default.
func NewAssembler(staleness time.Duration, logger *zap.Logger) *Assembler {
	if staleness <= 0 {
		staleness = DefaultBufferStaleness
	}
	return &Assembler{
		buffers:   make(map[string]*chunkBuffer),
		staleness: staleness,
		logger:    logger,
	}
}

// HandleRaw processes one data-channel payload. It returns the completed
// message and true when payload was a direct translated-audio message or
// the final chunk of one; otherwise it returns nil and false.
func (a *Assembler) HandleRaw(payload []byte) (*TranslatedAudioMessage, bool) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, false
	}

	switch envelope.Type {
	case MessageTypeTranslatedAudio:
		var msg TranslatedAudioMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			a.logger.Warn("Dropping malformed translated audio message", zap.Error(err))
			return nil, false
		}
		return &msg, true
	case MessageTypeAudioChunk:
		var chunk ChunkMessage
		if err := json.Unmarshal(payload, &chunk); err != nil {
			a.logger.Warn("Dropping malformed chunk", zap.Error(err))
			return nil, false
		}
		return a.handleChunk(&chunk)
	default:
		return nil, false
	}
}

func (a *Assembler) handleChunk(chunk *ChunkMessage) (*TranslatedAudioMessage, bool) {
	if chunk.MessageID == "" || chunk.TotalChunks <= 0 ||
		chunk.ChunkIndex < 0 || chunk.ChunkIndex >= chunk.TotalChunks {
		a.logger.Warn("Dropping chunk with invalid envelope",
			zap.String("messageId", chunk.MessageID),
			zap.Int("chunkIndex", chunk.ChunkIndex),
			zap.Int("totalChunks", chunk.TotalChunks))
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	buffer, ok := a.buffers[chunk.MessageID]
	if !ok {
		buffer = &chunkBuffer{
			chunks:    make([]string, chunk.TotalChunks),
			createdAt: a.bufferBirth(chunk.MessageID),
		}
		a.buffers[chunk.MessageID] = buffer
	}
	if chunk.TotalChunks != len(buffer.chunks) {
		a.logger.Warn("Dropping chunk with mismatched totalChunks",
			zap.String("messageId", chunk.MessageID),
			zap.Int("got", chunk.TotalChunks),
			zap.Int("want", len(buffer.chunks)))
		return nil, false
	}
	if buffer.chunks[chunk.ChunkIndex] == "" {
		buffer.received++
	}
	buffer.chunks[chunk.ChunkIndex] = chunk.Data

	if buffer.received < len(buffer.chunks) {
		return nil, false
	}

	delete(a.buffers, chunk.MessageID)

	serialized := strings.Join(buffer.chunks, "")
	var msg TranslatedAudioMessage
	if err := json.Unmarshal([]byte(serialized), &msg); err != nil {
		a.logger.Warn("Failed to parse reassembled message",
			zap.String("messageId", chunk.MessageID),
			zap.Error(err))
		return nil, false
	}
	return &msg, true
}

// bufferBirth uses the creation time encoded in the message id when
// available, so staleness is measured from when the sender started the
// message, not from when the first chunk happened to arrive.
func (a *Assembler) bufferBirth(messageID string) time.Time {
	if born, ok := messageIDTime(messageID); ok {
		return born
	}
	return time.Now()
}

// Start sweeps stale buffers until ctx is done.
func (a *Assembler) Start(ctx context.Context) {
	ticker := time.NewTicker(a.staleness)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.SweepStale(time.Now())
		}
	}
}

// SweepStale evicts buffers older than the staleness window as of now. It
// returns how many buffers were dropped.
func (a *Assembler) SweepStale(now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	dropped := 0
	for id, buffer := range a.buffers {
		if now.Sub(buffer.createdAt) > a.staleness {
			a.logger.Debug("Evicting stale chunk buffer",
				zap.String("messageId", id),
				zap.Int("received", buffer.received),
				zap.Int("expected", len(buffer.chunks)))
			delete(a.buffers, id)
			dropped++
		}
	}
	return dropped
}

// PendingBuffers reports how many incomplete messages are being held.
func (a *Assembler) PendingBuffers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffers)
}
