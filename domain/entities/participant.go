package entities

import "encoding/json"

// Role distinguishes the tour guide from guests. The guide is the single
// participant that operates the tour; everyone else is a guest.
type Role string

const (
	RoleGuide Role = "guide"
	RoleGuest Role = "guest"
)

// Participant is one connected member of a tour room. Attributes are fixed
// for the lifetime of the session; the identity is unique within a room.
type Participant struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	Language    string `json:"language"`
	Role        Role   `json:"role"`
}

// IsGuide reports whether the participant operates the tour.
func (p Participant) IsGuide() bool {
	return p.Role == RoleGuide
}

// ParticipantMetadata is the payload carried in a room access token and on
// the room roster. It is decoded exactly once, at the room boundary;
// downstream code only ever sees the typed Participant.
type ParticipantMetadata struct {
	DisplayName string `json:"displayName,omitempty"`
	Language    string `json:"language"`
	Role        Role   `json:"role"`
}

// ParseParticipantMetadata decodes raw metadata with explicit defaults:
// malformed or absent metadata yields an English-speaking guest rather than
// an error, so a peer with broken metadata degrades instead of breaking
// the room.
func ParseParticipantMetadata(raw string) ParticipantMetadata {
	meta := ParticipantMetadata{Language: "en", Role: RoleGuest}
	if raw == "" {
		return meta
	}
	var decoded ParticipantMetadata
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return meta
	}
	if decoded.Language != "" {
		meta.Language = decoded.Language
	}
	if decoded.Role == RoleGuide || decoded.Role == RoleGuest {
		meta.Role = decoded.Role
	}
	meta.DisplayName = decoded.DisplayName
	return meta
}
