package room

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/entities"
)

// DataHandler receives one data payload published by another participant.
type DataHandler func(sender string, payload []byte)

// ClientSession is a participant's connection to the relay. It tracks the
// room roster from roster frames and delivers incoming data payloads to the
// registered handler.
type ClientSession struct {
	conn *websocket.Conn

	send chan []byte
	done chan struct{}

	mu      sync.RWMutex
	roster  []entities.Participant
	handler DataHandler

	closeOnce sync.Once

	logger *zap.Logger
}

// Join dials the relay and joins the room the token admits to. serverURL is
// the ws scheme base, e.g. "ws://localhost:8080".
func Join(ctx context.Context, serverURL, token string, logger *zap.Logger) (*ClientSession, error) {
	endpoint := fmt.Sprintf("%s/ws?token=%s", serverURL, url.QueryEscape(token))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	s := &ClientSession{
		conn:   conn,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		logger: logger,
	}

	go s.readLoop()
	go s.writeLoop()

	return s, nil
}

// OnData registers the handler for incoming data payloads. Register before
// the first utterance arrives; frames received with no handler are dropped.
func (s *ClientSession) OnData(handler DataHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// Participants returns the roster as of the last roster frame.
func (s *ClientSession) Participants() []entities.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Participant(nil), s.roster...)
}

// SendData publishes one payload to the room, restricted to
// opts.DestinationIdentities when non-empty.
func (s *ClientSession) SendData(ctx context.Context, payload []byte, opts DataSendOptions) error {
	if len(payload) > MaxDataBytes {
		return fmt.Errorf("payload of %d bytes exceeds the %d byte data ceiling", len(payload), MaxDataBytes)
	}
	frame, err := json.Marshal(Envelope{
		Type:                  EnvelopePublish,
		DestinationIdentities: opts.DestinationIdentities,
		Payload:               base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		return err
	}

	select {
	case s.send <- frame:
		return nil
	case <-s.done:
		return fmt.Errorf("session closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close leaves the room.
func (s *ClientSession) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.conn.Close()
}

func (s *ClientSession) readLoop() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("WebSocket error", zap.Error(err))
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			s.logger.Warn("Ignoring malformed frame", zap.Error(err))
			continue
		}

		switch envelope.Type {
		case EnvelopeRoster:
			s.mu.Lock()
			s.roster = envelope.Participants
			s.mu.Unlock()
		case EnvelopeData:
			payload, err := base64.StdEncoding.DecodeString(envelope.Payload)
			if err != nil {
				s.logger.Warn("Ignoring data frame with undecodable payload", zap.Error(err))
				continue
			}
			s.mu.RLock()
			handler := s.handler
			s.mu.RUnlock()
			if handler != nil {
				handler(envelope.Sender, payload)
			}
		default:
			s.logger.Warn("Unknown frame type", zap.String("type", envelope.Type))
		}
	}
}

func (s *ClientSession) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Error("Failed to write frame", zap.Error(err))
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
