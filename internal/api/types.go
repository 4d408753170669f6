package api

import "github.com/tourlingo/relay/domain/entities"

// TokenRequest asks for a room access token. Either TourID or JoinCode
// identifies the tour; guests normally join by code.
type TokenRequest struct {
	TourID      string        `json:"tourId"`
	JoinCode    string        `json:"joinCode"`
	DisplayName string        `json:"displayName" validate:"required"`
	Language    string        `json:"language" validate:"required"`
	Role        entities.Role `json:"role"`
}

// TokenResponse carries the minted token and the identity it was bound to.
type TokenResponse struct {
	Token    string `json:"token"`
	RoomName string `json:"roomName"`
	Identity string `json:"identity"`
}

// CreateTourRequest creates a new tour.
type CreateTourRequest struct {
	Name          string `json:"name" validate:"required"`
	GuideName     string `json:"guideName" validate:"required"`
	GuideLanguage string `json:"guideLanguage" validate:"required"`
}

// TranslateResponse is the pipeline outcome returned to the speaker. The
// translated audio itself travels over the room data channel, not this
// response.
type TranslateResponse struct {
	Result    *entities.PipelineResult `json:"result"`
	Delivered int                      `json:"delivered"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
