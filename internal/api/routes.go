package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourlingo/relay/adapters/mongo"
	"github.com/tourlingo/relay/domain/entities"
	"github.com/tourlingo/relay/domain/repositories"
	"github.com/tourlingo/relay/internal/room"
	"github.com/tourlingo/relay/internal/wire"
	"github.com/tourlingo/relay/usecase"
)

// maxAudioBytes bounds one uploaded segment. Live segments are a few
// seconds of compressed audio, well under this.
const maxAudioBytes = 10 << 20

// Handler wires the HTTP surface to the pipeline, the room hub, and
// persistence.
type Handler struct {
	issuer      *room.TokenIssuer
	hub         *room.Hub
	pipeline    *usecase.TranslationPipeline
	broadcaster *usecase.Broadcaster
	tours       repositories.TourRepository
	archive     repositories.ArchiveRepository
	logger      *zap.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	issuer *room.TokenIssuer,
	hub *room.Hub,
	pipeline *usecase.TranslationPipeline,
	broadcaster *usecase.Broadcaster,
	tours repositories.TourRepository,
	archive repositories.ArchiveRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		issuer:      issuer,
		hub:         hub,
		pipeline:    pipeline,
		broadcaster: broadcaster,
		tours:       tours,
		archive:     archive,
		logger:      logger,
	}
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handler) {
	// Health check
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "tourlingo-relay",
		})
	})

	api := e.Group("/api")

	api.POST("/token", h.issueToken)
	api.POST("/translate/audio", h.translateAudio)

	api.POST("/tours", h.createTour)
	api.GET("/tours", h.listTours)
	api.GET("/tours/:id", h.getTour)
	api.POST("/tours/:id/start", h.startTour)
	api.POST("/tours/:id/end", h.endTour)
	api.GET("/tours/:id/archive", h.tourArchive)

	// WebSocket endpoint, admission by room token
	e.GET("/ws", h.serveWebSocket)
}

func (h *Handler) issueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.DisplayName == "" || req.Language == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "displayName and language are required",
		})
	}
	if !entities.IsLanguageSupported(req.Language) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unsupported_language",
			Message: "Language " + req.Language + " is not supported",
		})
	}

	ctx := c.Request().Context()
	var tour *entities.Tour
	var err error
	switch {
	case req.TourID != "":
		tour, err = h.tours.GetByID(ctx, req.TourID)
	case req.JoinCode != "":
		tour, err = h.tours.GetByJoinCode(ctx, strings.ToUpper(req.JoinCode))
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "tourId or joinCode is required",
		})
	}
	if err != nil {
		if errors.Is(err, mongo.ErrTourNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "tour_not_found",
				Message: "No such tour",
			})
		}
		h.logger.Error("Failed to look up tour", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to look up tour",
		})
	}

	role := req.Role
	if role != entities.RoleGuide {
		role = entities.RoleGuest
	}
	participant := entities.Participant{
		Identity:    string(role) + "-" + uuid.NewString()[:8],
		DisplayName: req.DisplayName,
		Language:    req.Language,
		Role:        role,
	}

	token, err := h.issuer.Mint(tour.RoomName(), participant)
	if err != nil {
		h.logger.Error("Failed to mint room token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to mint token",
		})
	}

	return c.JSON(http.StatusOK, TokenResponse{
		Token:    token,
		RoomName: tour.RoomName(),
		Identity: participant.Identity,
	})
}

func (h *Handler) translateAudio(c echo.Context) error {
	claims, err := h.claimsFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "A valid room token is required",
		})
	}
	speaker := claims.Participant()

	file, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "An audio file is required",
		})
	}
	if file.Size > maxAudioBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "audio_too_large",
			Message: "Audio segment exceeds the size limit",
		})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Could not read audio file",
		})
	}
	defer src.Close()
	audio, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Could not read audio file",
		})
	}

	sourceLanguage := c.FormValue("sourceLanguage")
	if sourceLanguage == "" {
		sourceLanguage = speaker.Language
	}
	channel := c.FormValue("channel")
	if channel == "" {
		channel = wire.ChannelAll
	}

	opts := usecase.ProcessOptions{
		GenerateAudio:     formBool(c, "generateAudio", true),
		EnableNoiseFilter: formBool(c, "noiseFilter", true),
		UseOperatorVoice:  formBool(c, "useOperatorVoice", false),
		FastMode:          formBool(c, "fastMode", true),
	}

	session := h.hub.Room(claims.Room, speaker.Identity)
	targets := h.broadcaster.ResolveTargets(session, speaker, channel)

	ctx := c.Request().Context()
	result, err := h.pipeline.Process(ctx, audio, sourceLanguage, targets.Languages, opts)
	if err != nil {
		var configErr *repositories.ConfigurationError
		if errors.As(err, &configErr) {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:   "service_unavailable",
				Message: configErr.Error(),
			})
		}
		h.logger.Error("Pipeline failed",
			zap.String("room", claims.Room),
			zap.String("identity", speaker.Identity),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "translation_failed",
			Message: "The segment could not be processed",
		})
	}

	delivered := h.broadcaster.Broadcast(ctx, session, speaker, channel, targets, result)
	h.archiveResult(claims.Room, speaker, result)

	return c.JSON(http.StatusOK, TranslateResponse{
		Result:    result,
		Delivered: delivered,
	})
}

// archiveResult persists the utterance off the request path; archiving is
// best effort and never fails the translate call.
func (h *Handler) archiveResult(roomName string, speaker entities.Participant, result *entities.PipelineResult) {
	if result.OriginalText == "" {
		return
	}
	tourID := strings.TrimPrefix(roomName, "tour-")

	translations := make(map[string]string, len(result.Translations))
	for language, translation := range result.Translations {
		translations[language] = translation.Text
	}
	utterance := &entities.ArchivedUtterance{
		TourID:           tourID,
		SenderName:       speaker.DisplayName,
		SenderLanguage:   speaker.Language,
		OriginalText:     result.OriginalText,
		FilteredText:     result.FilteredText,
		Filtered:         result.Filtered,
		FilterReason:     result.FilterReason,
		Translations:     translations,
		ProcessingTimeMs: result.ProcessingTimeMs,
		SpokenAt:         time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.archive.Append(ctx, utterance); err != nil {
			h.logger.Warn("Failed to archive utterance",
				zap.String("tourId", tourID),
				zap.Error(err))
		}
	}()
}

func (h *Handler) createTour(c echo.Context) error {
	var req CreateTourRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Name == "" || req.GuideName == "" || req.GuideLanguage == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "name, guideName and guideLanguage are required",
		})
	}
	if !entities.IsLanguageSupported(req.GuideLanguage) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unsupported_language",
			Message: "Language " + req.GuideLanguage + " is not supported",
		})
	}

	tour := &entities.Tour{
		Name:          req.Name,
		JoinCode:      strings.ToUpper(uuid.NewString()[:6]),
		GuideName:     req.GuideName,
		GuideLanguage: req.GuideLanguage,
		Status:        entities.TourStatusScheduled,
	}
	if err := h.tours.Create(c.Request().Context(), tour); err != nil {
		h.logger.Error("Failed to create tour", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create tour",
		})
	}

	return c.JSON(http.StatusCreated, tour)
}

func (h *Handler) listTours(c echo.Context) error {
	tours, err := h.tours.List(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list tours", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list tours",
		})
	}
	return c.JSON(http.StatusOK, tours)
}

func (h *Handler) getTour(c echo.Context) error {
	tour, err := h.tours.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrTourNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "tour_not_found",
				Message: "No such tour",
			})
		}
		h.logger.Error("Failed to get tour", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get tour",
		})
	}
	return c.JSON(http.StatusOK, tour)
}

func (h *Handler) startTour(c echo.Context) error {
	return h.transitionTour(c, entities.TourStatusLive)
}

func (h *Handler) endTour(c echo.Context) error {
	return h.transitionTour(c, entities.TourStatusEnded)
}

func (h *Handler) transitionTour(c echo.Context, status entities.TourStatus) error {
	ctx := c.Request().Context()
	tour, err := h.tours.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrTourNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "tour_not_found",
				Message: "No such tour",
			})
		}
		h.logger.Error("Failed to get tour", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get tour",
		})
	}

	now := time.Now()
	switch status {
	case entities.TourStatusLive:
		if tour.Status == entities.TourStatusEnded {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "tour_ended",
				Message: "An ended tour cannot be restarted",
			})
		}
		tour.Status = entities.TourStatusLive
		if tour.StartedAt == nil {
			tour.StartedAt = &now
		}
	case entities.TourStatusEnded:
		tour.Status = entities.TourStatusEnded
		if tour.EndedAt == nil {
			tour.EndedAt = &now
		}
	}

	if err := h.tours.Update(ctx, tour); err != nil {
		h.logger.Error("Failed to update tour", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update tour",
		})
	}
	return c.JSON(http.StatusOK, tour)
}

func (h *Handler) tourArchive(c echo.Context) error {
	utterances, err := h.archive.ListByTour(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to list archive", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list archive",
		})
	}
	return c.JSON(http.StatusOK, utterances)
}

func (h *Handler) serveWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "A room token is required",
		})
	}
	claims, err := h.issuer.Validate(token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid room token",
		})
	}
	return room.HandleWebSocket(h.hub, c, claims, h.logger)
}

// claimsFromRequest resolves the room token from the Authorization header
// or, for multipart clients that cannot set headers, a form field.
func (h *Handler) claimsFromRequest(c echo.Context) (*room.TokenClaims, error) {
	token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = c.FormValue("token")
	}
	return h.issuer.Validate(token)
}

func formBool(c echo.Context, field string, fallback bool) bool {
	raw := c.FormValue(field)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
