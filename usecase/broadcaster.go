package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/entities"
	"github.com/tourlingo/relay/internal/room"
	"github.com/tourlingo/relay/internal/routing"
	"github.com/tourlingo/relay/internal/wire"
)

// RoomSession is the slice of the room abstraction the broadcaster needs:
// the roster, and reliable data delivery with optional recipient
// restriction.
type RoomSession interface {
	Participants() []entities.Participant
	SendData(ctx context.Context, payload []byte, opts room.DataSendOptions) error
}

// Broadcaster fans a pipeline result out over a room: one translated-audio
// message per target language, each restricted to the recipients the
// channel resolves to.
type Broadcaster struct {
	sender *wire.Sender
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster sending through the given chunking
// sender.
func NewBroadcaster(sender *wire.Sender, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{sender: sender, logger: logger}
}

// ResolveTargets computes the languages and recipients for one utterance
// against the session's current roster.
func (b *Broadcaster) ResolveTargets(session RoomSession, speaker entities.Participant, channel string) routing.Targets {
	return routing.ResolveTargets(channel, speaker, session.Participants())
}

// Broadcast sends one message per translated language. A send failure is
// logged and skipped for that language so the remaining languages still go
// out; the return value is how many languages were delivered.
func (b *Broadcaster) Broadcast(
	ctx context.Context,
	session RoomSession,
	speaker entities.Participant,
	channel string,
	targets routing.Targets,
	result *entities.PipelineResult,
) int {
	if !result.HasSpeech() {
		return 0
	}

	delivered := 0
	for _, language := range targets.Languages {
		translation, ok := result.Translations[language]
		if !ok {
			continue
		}

		msg := wire.NewTranslatedAudioMessage(
			language,
			translation.Text,
			translation.AudioBytes,
			speaker.DisplayName,
			speaker.Language,
			channel,
		)

		err := b.sender.Send(ctx, msg, func(ctx context.Context, payload []byte) error {
			return session.SendData(ctx, payload, room.DataSendOptions{
				Reliable:              true,
				DestinationIdentities: targets.RecipientIdentities,
			})
		})
		if err != nil {
			b.logger.Warn("Failed to send translation",
				zap.String("language", language),
				zap.String("channel", channel),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}
