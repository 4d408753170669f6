package room

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tourlingo/relay/domain/entities"
)

func newTestHub() *Hub {
	return NewHub(zap.NewNop())
}

func addClient(hub *Hub, roomName string, p entities.Participant) *Client {
	client := &Client{
		hub:         hub,
		send:        make(chan []byte, 16),
		room:        roomName,
		participant: p,
		logger:      zap.NewNop(),
	}
	clients, ok := hub.rooms[roomName]
	if !ok {
		clients = make(map[string]*Client)
		hub.rooms[roomName] = clients
	}
	clients[p.Identity] = client
	return client
}

func receiveData(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case frame := <-client.send:
		var envelope Envelope
		if err := json.Unmarshal(frame, &envelope); err != nil {
			t.Fatalf("malformed frame: %v", err)
		}
		if envelope.Type != EnvelopeData {
			t.Fatalf("expected data frame, got %q", envelope.Type)
		}
		payload, err := base64.StdEncoding.DecodeString(envelope.Payload)
		if err != nil {
			t.Fatalf("undecodable payload: %v", err)
		}
		return payload
	case <-time.After(time.Second):
		t.Fatal("frame not received within timeout")
		return nil
	}
}

func assertNoFrame(t *testing.T, client *Client) {
	t.Helper()
	select {
	case frame := <-client.send:
		t.Fatalf("unexpected frame: %s", frame)
	default:
	}
}

func TestPublishBroadcast(t *testing.T) {
	hub := newTestHub()
	guide := addClient(hub, "tour-1", entities.Participant{Identity: "guide-1", Language: "de", Role: entities.RoleGuide})
	guest := addClient(hub, "tour-1", entities.Participant{Identity: "guest-1", Language: "en", Role: entities.RoleGuest})
	outsider := addClient(hub, "tour-2", entities.Participant{Identity: "guest-9", Language: "ja", Role: entities.RoleGuest})

	payload := []byte(`{"type":"translated_audio","language":"en"}`)
	if err := hub.Publish("tour-1", "guide-1", payload, nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if got := receiveData(t, guest); string(got) != string(payload) {
		t.Errorf("guest received %s, want %s", got, payload)
	}
	assertNoFrame(t, guide)
	assertNoFrame(t, outsider)
}

func TestPublishWithDestinationFilter(t *testing.T) {
	hub := newTestHub()
	guide := addClient(hub, "tour-1", entities.Participant{Identity: "guide-1", Language: "de", Role: entities.RoleGuide})
	addressed := addClient(hub, "tour-1", entities.Participant{Identity: "guest-1", Language: "en", Role: entities.RoleGuest})
	bystander := addClient(hub, "tour-1", entities.Participant{Identity: "guest-2", Language: "en", Role: entities.RoleGuest})

	payload := []byte(`{"type":"translated_audio"}`)
	if err := hub.Publish("tour-1", "guide-1", payload, []string{"guest-1"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	receiveData(t, addressed)
	assertNoFrame(t, bystander)
	assertNoFrame(t, guide)
}

func TestPublishRejectsOversizedPayload(t *testing.T) {
	hub := newTestHub()
	addClient(hub, "tour-1", entities.Participant{Identity: "guest-1", Language: "en"})

	oversized := make([]byte, MaxDataBytes+1)
	if err := hub.Publish("tour-1", "guide-1", oversized, nil); err == nil {
		t.Fatal("expected oversized payload to be rejected")
	}
}

func TestSessionSendData(t *testing.T) {
	hub := newTestHub()
	guest := addClient(hub, "tour-1", entities.Participant{Identity: "guest-1", Language: "en", Role: entities.RoleGuest})

	session := hub.Room("tour-1", "server")
	payload := []byte("hello")
	err := session.SendData(context.Background(), payload, DataSendOptions{
		Reliable:              true,
		DestinationIdentities: []string{"guest-1"},
	})
	if err != nil {
		t.Fatalf("SendData() error = %v", err)
	}
	if got := receiveData(t, guest); string(got) != "hello" {
		t.Errorf("received %q, want %q", got, "hello")
	}

	roster := session.Participants()
	if len(roster) != 1 || roster[0].Identity != "guest-1" {
		t.Errorf("unexpected roster: %+v", roster)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	participant := entities.Participant{
		Identity:    "guest-1",
		DisplayName: "Ana",
		Language:    "es",
		Role:        entities.RoleGuest,
	}

	token, err := issuer.Mint("tour-42", participant)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Room != "tour-42" {
		t.Errorf("Room = %q, want %q", claims.Room, "tour-42")
	}
	if got := claims.Participant(); got != participant {
		t.Errorf("Participant() = %+v, want %+v", got, participant)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Mint("tour-42", entities.Participant{Identity: "guide-1", Role: entities.RoleGuide, Language: "en"})
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	other := NewTokenIssuer("different-secret", time.Hour)
	if _, err := other.Validate(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestTokenMetadataDefaults(t *testing.T) {
	claims := &TokenClaims{
		Room: "tour-1",
		Metadata: entities.ParticipantMetadata{
			Language: "",
			Role:     "operator",
		},
	}
	claims.Subject = "guest-7"

	got := claims.Participant()
	if got.Language != "en" {
		t.Errorf("Language = %q, want en", got.Language)
	}
	if got.Role != entities.RoleGuest {
		t.Errorf("Role = %q, want guest", got.Role)
	}
}
