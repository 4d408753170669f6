package entities

import "time"

// TourStatus tracks the lifecycle of a tour.
type TourStatus string

const (
	TourStatusScheduled TourStatus = "scheduled"
	TourStatusLive      TourStatus = "live"
	TourStatusEnded     TourStatus = "ended"
)

// Tour is one guided tour session. Guests join with the short join code;
// the room name is derived from the tour ID.
type Tour struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	Name         string     `json:"name" bson:"name"`
	JoinCode     string     `json:"joinCode" bson:"join_code"`
	GuideName    string     `json:"guideName" bson:"guide_name"`
	GuideLanguage string    `json:"guideLanguage" bson:"guide_language"`
	Status       TourStatus `json:"status" bson:"status"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	StartedAt    *time.Time `json:"startedAt,omitempty" bson:"started_at,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty" bson:"ended_at,omitempty"`
}

// RoomName returns the real-time room a tour's participants join.
func (t *Tour) RoomName() string {
	return "tour-" + t.ID
}

// ArchivedUtterance is one processed segment persisted for the tour archive:
// what was said, how it was filtered, and what went out per language.
// Audio payloads are not archived, only text.
type ArchivedUtterance struct {
	ID           string            `json:"id" bson:"_id,omitempty"`
	TourID       string            `json:"tourId" bson:"tour_id"`
	SenderName   string            `json:"senderName" bson:"sender_name"`
	SenderLanguage string          `json:"senderLanguage" bson:"sender_language"`
	OriginalText string            `json:"originalText" bson:"original_text"`
	FilteredText string            `json:"filteredText,omitempty" bson:"filtered_text,omitempty"`
	Filtered     bool              `json:"filtered" bson:"filtered"`
	FilterReason FilterReason      `json:"filterReason,omitempty" bson:"filter_reason,omitempty"`
	Translations map[string]string `json:"translations" bson:"translations"`
	ProcessingTimeMs int64         `json:"processingTimeMs" bson:"processing_time_ms"`
	SpokenAt     time.Time         `json:"spokenAt" bson:"spoken_at"`
}
