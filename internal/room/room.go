package room

import (
	"context"

	"github.com/tourlingo/relay/domain/entities"
)

// DataSendOptions controls delivery of one published payload. The relay
// transport is reliable by construction; the flag is carried so callers
// can state intent and future transports can honor it.
type DataSendOptions struct {
	Reliable              bool
	DestinationIdentities []string
}

// Session is one party's handle on a room: the roster and the data bus.
// The server-side pipeline uses a session with its own identity to fan
// translated audio out to participants.
type Session struct {
	hub      *Hub
	name     string
	identity string
}

// Room returns a session handle on the named room for the given identity.
func (h *Hub) Room(name, identity string) *Session {
	return &Session{hub: h, name: name, identity: identity}
}

// Participants returns the room's current roster.
func (s *Session) Participants() []entities.Participant {
	return s.hub.Participants(s.name)
}

// SendData publishes one payload to the room, restricted to
// opts.DestinationIdentities when non-empty.
func (s *Session) SendData(ctx context.Context, payload []byte, opts DataSendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.hub.Publish(s.name, s.identity, payload, opts.DestinationIdentities)
}
