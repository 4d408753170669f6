// Package room is the real-time bus scoped to one tour: participants join
// with a signed token and exchange small reliable data messages, optionally
// restricted to a subset of identities.
package room

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tourlingo/relay/domain/entities"
)

// TokenClaims carries everything the relay needs to admit a participant:
// which room, who they are, and the metadata the routing layer reads.
type TokenClaims struct {
	Room     string                       `json:"room"`
	Name     string                       `json:"name"`
	Metadata entities.ParticipantMetadata `json:"metadata"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates room access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer. A non-positive ttl defaults to 4 hours,
// longer than any tour should run.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Mint issues a token admitting participant to roomName.
func (t *TokenIssuer) Mint(roomName string, participant entities.Participant) (string, error) {
	claims := &TokenClaims{
		Room: roomName,
		Name: participant.DisplayName,
		Metadata: entities.ParticipantMetadata{
			DisplayName: participant.DisplayName,
			Language:    participant.Language,
			Role:        participant.Role,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participant.Identity,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate parses and verifies a token, returning its claims.
func (t *TokenIssuer) Validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Room == "" || claims.Subject == "" {
		return nil, fmt.Errorf("token missing room or identity")
	}
	return claims, nil
}

// Participant reconstructs the participant the claims describe. Metadata
// gaps fall back to the same defaults the metadata parser uses.
func (c *TokenClaims) Participant() entities.Participant {
	role := c.Metadata.Role
	if role != entities.RoleGuide && role != entities.RoleGuest {
		role = entities.RoleGuest
	}
	language := c.Metadata.Language
	if language == "" {
		language = "en"
	}
	name := c.Name
	if name == "" {
		name = c.Metadata.DisplayName
	}
	return entities.Participant{
		Identity:    c.Subject,
		DisplayName: name,
		Language:    language,
		Role:        role,
	}
}
