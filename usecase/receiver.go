package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/entities"
	"github.com/tourlingo/relay/internal/routing"
	"github.com/tourlingo/relay/internal/wire"
)

// Receiver is the listening half of the protocol for one participant:
// chunk reassembly followed by the channel/language filter. The transport
// already restricted delivery; the receiver enforces the routing rules
// again so privacy never rests on the transport alone.
type Receiver struct {
	assembler *wire.Assembler
	local     entities.Participant
	logger    *zap.Logger
}

// NewReceiver creates a receiver for the given local participant.
func NewReceiver(local entities.Participant, staleness time.Duration, logger *zap.Logger) *Receiver {
	return &Receiver{
		assembler: wire.NewAssembler(staleness, logger),
		local:     local,
		logger:    logger,
	}
}

// HandleRaw processes one data-channel payload. It returns a message only
// when a complete translated-audio message addressed to the local
// participant, in their language, came out of it.
func (r *Receiver) HandleRaw(payload []byte) (*wire.TranslatedAudioMessage, bool) {
	msg, ok := r.assembler.HandleRaw(payload)
	if !ok {
		return nil, false
	}
	if !routing.Accept(r.local, msg) {
		r.logger.Debug("Dropping message not addressed to us",
			zap.String("language", msg.Language),
			zap.String("targetChannel", msg.TargetChannel))
		return nil, false
	}
	return msg, true
}

// Start runs the stale-buffer sweep until ctx is done.
func (r *Receiver) Start(ctx context.Context) {
	r.assembler.Start(ctx)
}
