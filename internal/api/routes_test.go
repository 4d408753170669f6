package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tourlingo/relay/adapters/mongo"
	"github.com/tourlingo/relay/adapters/stt"
	"github.com/tourlingo/relay/adapters/translate"
	"github.com/tourlingo/relay/adapters/tts"
	"github.com/tourlingo/relay/domain/entities"
	"github.com/tourlingo/relay/internal/room"
	"github.com/tourlingo/relay/internal/wire"
	"github.com/tourlingo/relay/usecase"
)

type memoryTourRepo struct {
	mu    sync.Mutex
	tours map[string]*entities.Tour
	next  int
}

func newMemoryTourRepo() *memoryTourRepo {
	return &memoryTourRepo{tours: make(map[string]*entities.Tour)}
}

func (r *memoryTourRepo) Create(_ context.Context, tour *entities.Tour) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	tour.ID = fmt.Sprintf("tour%d", r.next)
	copied := *tour
	r.tours[tour.ID] = &copied
	return nil
}

func (r *memoryTourRepo) GetByID(_ context.Context, id string) (*entities.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tour, ok := r.tours[id]
	if !ok {
		return nil, mongo.ErrTourNotFound
	}
	copied := *tour
	return &copied, nil
}

func (r *memoryTourRepo) GetByJoinCode(_ context.Context, code string) (*entities.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tour := range r.tours {
		if tour.JoinCode == code {
			copied := *tour
			return &copied, nil
		}
	}
	return nil, mongo.ErrTourNotFound
}

func (r *memoryTourRepo) List(_ context.Context) ([]*entities.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tours := make([]*entities.Tour, 0, len(r.tours))
	for _, tour := range r.tours {
		copied := *tour
		tours = append(tours, &copied)
	}
	return tours, nil
}

func (r *memoryTourRepo) Update(_ context.Context, tour *entities.Tour) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tours[tour.ID]; !ok {
		return mongo.ErrTourNotFound
	}
	copied := *tour
	r.tours[tour.ID] = &copied
	return nil
}

type memoryArchiveRepo struct {
	mu         sync.Mutex
	utterances []*entities.ArchivedUtterance
}

func (r *memoryArchiveRepo) Append(_ context.Context, utterance *entities.ArchivedUtterance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utterances = append(r.utterances, utterance)
	return nil
}

func (r *memoryArchiveRepo) ListByTour(_ context.Context, tourID string) ([]*entities.ArchivedUtterance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.ArchivedUtterance
	for _, u := range r.utterances {
		if u.TourID == tourID {
			out = append(out, u)
		}
	}
	return out, nil
}

type testEnv struct {
	echo    *echo.Echo
	handler *Handler
	issuer  *room.TokenIssuer
	tours   *memoryTourRepo
	archive *memoryArchiveRepo
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	pipeline := usecase.NewTranslationPipeline(
		&stt.MockSpeechToText{Transcript: "Welcome to the harbor"},
		&translate.MockTranslator{Translations: map[string]string{"fr": "Bienvenue au port"}},
		&tts.MockSynthesizer{},
		nil,
		logger,
	)
	issuer := room.NewTokenIssuer("test-secret", time.Hour)
	hub := room.NewHub(logger)
	broadcaster := usecase.NewBroadcaster(wire.NewSender(wire.DefaultMaxChunkBytes, time.Millisecond, logger), logger)

	tours := newMemoryTourRepo()
	archive := &memoryArchiveRepo{}

	handler := NewHandler(issuer, hub, pipeline, broadcaster, tours, archive, logger)
	e := echo.New()
	InitRoutes(e, handler)

	return &testEnv{echo: e, handler: handler, issuer: issuer, tours: tours, archive: archive}
}

func (env *testEnv) createTour(t *testing.T) *entities.Tour {
	t.Helper()
	tour := &entities.Tour{
		Name:          "Harbor Walk",
		JoinCode:      "ABC123",
		GuideName:     "Maya",
		GuideLanguage: "en",
		Status:        entities.TourStatusLive,
	}
	if err := env.tours.Create(context.Background(), tour); err != nil {
		t.Fatalf("create tour: %v", err)
	}
	return tour
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	env := setupTestEnv(t)
	rec := doJSON(t, env.echo, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestIssueTokenByJoinCode(t *testing.T) {
	env := setupTestEnv(t)
	tour := env.createTour(t)

	rec := doJSON(t, env.echo, http.MethodPost, "/api/token", TokenRequest{
		JoinCode:    "abc123",
		DisplayName: "Ken",
		Language:    "ja",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.RoomName != tour.RoomName() {
		t.Errorf("RoomName = %q, want %q", resp.RoomName, tour.RoomName())
	}

	claims, err := env.issuer.Validate(resp.Token)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	p := claims.Participant()
	if p.Language != "ja" || p.Role != entities.RoleGuest || p.DisplayName != "Ken" {
		t.Errorf("unexpected participant from token: %+v", p)
	}
	if p.Identity != resp.Identity {
		t.Errorf("identity mismatch: %q vs %q", p.Identity, resp.Identity)
	}
}

func TestIssueTokenRejections(t *testing.T) {
	env := setupTestEnv(t)
	env.createTour(t)

	tests := []struct {
		name string
		req  TokenRequest
		want int
	}{
		{"unknown tour", TokenRequest{TourID: "missing", DisplayName: "A", Language: "en"}, http.StatusNotFound},
		{"no tour reference", TokenRequest{DisplayName: "A", Language: "en"}, http.StatusBadRequest},
		{"missing name", TokenRequest{JoinCode: "ABC123", Language: "en"}, http.StatusBadRequest},
		{"unsupported language", TokenRequest{JoinCode: "ABC123", DisplayName: "A", Language: "xx"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, env.echo, http.MethodPost, "/api/token", tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestTourLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	rec := doJSON(t, env.echo, http.MethodPost, "/api/tours", CreateTourRequest{
		Name:          "Old Town",
		GuideName:     "Maya",
		GuideLanguage: "de",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}
	var tour entities.Tour
	if err := json.Unmarshal(rec.Body.Bytes(), &tour); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tour.JoinCode == "" || tour.Status != entities.TourStatusScheduled {
		t.Errorf("unexpected created tour: %+v", tour)
	}

	rec = doJSON(t, env.echo, http.MethodPost, "/api/tours/"+tour.ID+"/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d", rec.Code)
	}
	var started entities.Tour
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if started.Status != entities.TourStatusLive || started.StartedAt == nil {
		t.Errorf("unexpected started tour: %+v", started)
	}

	rec = doJSON(t, env.echo, http.MethodPost, "/api/tours/"+tour.ID+"/end", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d", rec.Code)
	}

	// An ended tour cannot go live again.
	rec = doJSON(t, env.echo, http.MethodPost, "/api/tours/"+tour.ID+"/start", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("restart status = %d, want 409", rec.Code)
	}
}

func multipartAudioRequest(t *testing.T, token string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "segment.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake-webm-audio")); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/translate/audio", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestTranslateAudio(t *testing.T) {
	env := setupTestEnv(t)
	tour := env.createTour(t)

	guide := entities.Participant{Identity: "guide-1", DisplayName: "Maya", Language: "en", Role: entities.RoleGuide}
	token, err := env.issuer.Mint(tour.RoomName(), guide)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, multipartAudioRequest(t, token, map[string]string{"channel": "all"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp TranslateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Result.OriginalText != "Welcome to the harbor" {
		t.Errorf("OriginalText = %q", resp.Result.OriginalText)
	}
	// With an empty room the only target language is the speaker's own.
	if translation, ok := resp.Result.Translations["en"]; !ok || translation.Text != "Welcome to the harbor" {
		t.Errorf("unexpected translations: %+v", resp.Result.Translations)
	}

	// The utterance lands in the archive shortly after the response.
	deadline := time.Now().Add(time.Second)
	for {
		utterances, err := env.archive.ListByTour(context.Background(), tour.ID)
		if err != nil {
			t.Fatalf("list archive: %v", err)
		}
		if len(utterances) == 1 {
			if utterances[0].OriginalText != "Welcome to the harbor" {
				t.Errorf("archived text = %q", utterances[0].OriginalText)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("utterance never archived")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTranslateAudioRequiresToken(t *testing.T) {
	env := setupTestEnv(t)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, multipartAudioRequest(t, "", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTranslateAudioTranscriptionFailure(t *testing.T) {
	env := setupTestEnv(t)
	tour := env.createTour(t)

	failing := usecase.NewTranslationPipeline(
		&stt.MockSpeechToText{Err: errors.New("service exploded")},
		&translate.MockTranslator{},
		&tts.MockSynthesizer{},
		nil,
		zap.NewNop(),
	)
	env.handler.pipeline = failing

	token, err := env.issuer.Mint(tour.RoomName(), entities.Participant{
		Identity: "guide-1", Language: "en", Role: entities.RoleGuide,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, multipartAudioRequest(t, token, nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(resp.Error, "translation_failed") {
		t.Errorf("error = %q", resp.Error)
	}
}
