package room

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/entities"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum websocket frame size from a peer. The publish envelope
	// base64-encodes its payload, so this sits above MaxDataBytes with
	// encoding headroom.
	maxMessageSize = 128 * 1024

	// MaxDataBytes is the hard ceiling on one published data payload.
	// The chunking protocol exists to stay under this.
	MaxDataBytes = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Envelope is the wire frame between a participant and the relay. A
// participant publishes data with type "publish"; the relay delivers it to
// peers as type "data"; roster changes arrive as type "roster".
type Envelope struct {
	Type                  string                 `json:"type"`
	Sender                string                 `json:"sender,omitempty"`
	DestinationIdentities []string               `json:"destinationIdentities,omitempty"`
	Payload               string                 `json:"payload,omitempty"`
	Participants          []entities.Participant `json:"participants,omitempty"`
}

const (
	EnvelopePublish = "publish"
	EnvelopeData    = "data"
	EnvelopeRoster  = "roster"
)

// Hub maintains every connected participant grouped by room and relays
// published data between them.
type Hub struct {
	// Connected clients, keyed by room name then identity.
	rooms map[string]map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mu sync.RWMutex

	logger *zap.Logger
}

// NewHub creates a relay hub. Run must be started for registration to
// work.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			clients, ok := h.rooms[client.room]
			if !ok {
				clients = make(map[string]*Client)
				h.rooms[client.room] = clients
			}
			if previous, ok := clients[client.participant.Identity]; ok {
				close(previous.send)
			}
			clients[client.participant.Identity] = client
			h.mu.Unlock()
			h.logger.Info("Participant joined room",
				zap.String("room", client.room),
				zap.String("identity", client.participant.Identity),
				zap.String("language", client.participant.Language))
			h.broadcastRoster(client.room)

		case client := <-h.unregister:
			h.mu.Lock()
			clients, ok := h.rooms[client.room]
			if ok {
				if current, exists := clients[client.participant.Identity]; exists && current == client {
					delete(clients, client.participant.Identity)
					close(client.send)
				}
				if len(clients) == 0 {
					delete(h.rooms, client.room)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Participant left room",
				zap.String("room", client.room),
				zap.String("identity", client.participant.Identity))
			h.broadcastRoster(client.room)
		}
	}
}

// Participants returns the current roster of a room.
func (h *Hub) Participants(roomName string) []entities.Participant {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.rooms[roomName]
	participants := make([]entities.Participant, 0, len(clients))
	for _, client := range clients {
		participants = append(participants, client.participant)
	}
	return participants
}

// Publish delivers payload to participants of roomName. An empty
// destinations list broadcasts to everyone except the sender; otherwise
// only the named identities receive it. Delivery to a slow client is
// dropped rather than blocking the room.
func (h *Hub) Publish(roomName, senderIdentity string, payload []byte, destinations []string) error {
	if len(payload) > MaxDataBytes {
		return fmt.Errorf("payload of %d bytes exceeds the %d byte data ceiling", len(payload), MaxDataBytes)
	}

	frame, err := json.Marshal(Envelope{
		Type:    EnvelopeData,
		Sender:  senderIdentity,
		Payload: base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		return err
	}

	allowed := map[string]struct{}{}
	for _, identity := range destinations {
		allowed[identity] = struct{}{}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for identity, client := range h.rooms[roomName] {
		if identity == senderIdentity {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[identity]; !ok {
				continue
			}
		}
		select {
		case client.send <- frame:
		default:
			h.logger.Warn("Dropping data for slow participant",
				zap.String("room", roomName),
				zap.String("identity", identity))
		}
	}
	return nil
}

func (h *Hub) broadcastRoster(roomName string) {
	roster := h.Participants(roomName)
	frame, err := json.Marshal(Envelope{
		Type:         EnvelopeRoster,
		Participants: roster,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for identity, client := range h.rooms[roomName] {
		select {
		case client.send <- frame:
		default:
			h.logger.Warn("Dropping roster update for slow participant",
				zap.String("room", roomName),
				zap.String("identity", identity))
		}
	}
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffered channel of outbound frames.
	send chan []byte

	room        string
	participant entities.Participant

	logger *zap.Logger
}

// HandleWebSocket upgrades the connection for a participant already
// admitted by token validation and starts its pumps.
func HandleWebSocket(hub *Hub, c echo.Context, claims *TokenClaims, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		room:        claims.Room,
		participant: claims.Participant(),
		logger:      logger,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps frames from the websocket connection into the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		var envelope Envelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			c.logger.Warn("Ignoring malformed frame",
				zap.String("identity", c.participant.Identity),
				zap.Error(err))
			continue
		}

		switch envelope.Type {
		case EnvelopePublish:
			payload, err := base64.StdEncoding.DecodeString(envelope.Payload)
			if err != nil {
				c.logger.Warn("Ignoring publish with undecodable payload",
					zap.String("identity", c.participant.Identity),
					zap.Error(err))
				continue
			}
			if err := c.hub.Publish(c.room, c.participant.Identity, payload, envelope.DestinationIdentities); err != nil {
				c.logger.Warn("Rejected publish",
					zap.String("identity", c.participant.Identity),
					zap.Error(err))
			}
		default:
			c.logger.Warn("Unknown frame type",
				zap.String("identity", c.participant.Identity),
				zap.String("type", envelope.Type))
		}
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Error("Failed to write frame", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
