package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/lifeskills-engine/internal/logger"
	"github.com/jwebster45206/lifeskills-engine/internal/middleware"
	svcevents "github.com/jwebster45206/lifeskills-engine/internal/services/events"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/events"
	"github.com/jwebster45206/lifeskills-engine/pkg/session"
	"github.com/jwebster45206/lifeskills-engine/pkg/storage"
)

const sessionsPrefix = "/v1/sessions"

type SessionResponse struct {
	ID     uuid.UUID          `json:"id"`
	View   *session.SceneView `json:"view,omitempty"`
	Events []events.Event     `json:"events,omitempty"`
}

type SelectStoryRequest struct {
	StoryID *int `json:"story_id"`
}

type ChoiceRequest struct {
	Index *int `json:"index"`
}

// SessionHandler runs play sessions over HTTP. Each request loads the
// session snapshot, applies one action to a restored controller and saves
// the result. Requests for the same session are serialised.
type SessionHandler struct {
	catalog   *content.Catalog
	storage   storage.Storage
	publisher svcevents.Publisher
	logger    *slog.Logger

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewSessionHandler(catalog *content.Catalog, storage storage.Storage, publisher svcevents.Publisher, logger *slog.Logger) *SessionHandler {
	if publisher == nil {
		publisher = svcevents.Nop{}
	}
	return &SessionHandler{
		catalog:   catalog,
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		locks:     make(map[uuid.UUID]*sessionLock),
	}
}

// ServeHTTP handles HTTP requests for play sessions
// Routes:
// POST   /v1/sessions              - Start a new session
// GET    /v1/sessions/{id}         - Current view
// DELETE /v1/sessions/{id}         - End a session
// POST   /v1/sessions/{id}/story   - Select a story {"story_id": n}
// POST   /v1/sessions/{id}/choice  - Submit a choice {"index": n}
// POST   /v1/sessions/{id}/back    - Back to the story catalog
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.WithRequestID(h.logger, r.Header.Get(middleware.RequestIDHeader))

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, sessionsPrefix), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r, log)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		writeError(w, log, http.StatusNotFound, "Not found")
		return
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		log.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, log, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	log = logger.WithSession(log, id.String())

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, log, id)
		case http.MethodDelete:
			h.handleDelete(w, r, log, id)
		default:
			w.Header().Set("Allow", "GET, DELETE")
			writeError(w, log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}
	switch parts[1] {
	case "story":
		h.handleSelectStory(w, r, log, id)
	case "choice":
		h.handleChoice(w, r, log, id)
	case "back":
		h.handleBack(w, r, log, id)
	default:
		writeError(w, log, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	c := h.newController(log)
	c.StartSession()
	view, err := c.View()
	if err != nil {
		writeEngineError(w, log, err)
		return
	}

	s := &storage.Session{ID: uuid.New(), Snapshot: c.Snapshot()}
	if err := h.storage.SaveSession(r.Context(), s); err != nil {
		log.Error("Failed to save new session", "error", err)
		writeError(w, log, http.StatusInternalServerError, "Failed to save session")
		return
	}

	log.Info("Session started", "session_id", s.ID)
	writeJSON(w, log, http.StatusCreated, SessionResponse{ID: s.ID, View: view})
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	s, c, ok := h.load(w, r, log, id)
	if !ok {
		return
	}
	view, err := c.View()
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, SessionResponse{ID: s.ID, View: view})
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	unlock := h.lock(id)
	defer unlock()

	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		log.Error("Failed to delete session", "error", err)
		writeError(w, log, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	log.Info("Session deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleSelectStory(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	var req SelectStoryRequest
	if !decodeBody(w, r, log, &req) {
		return
	}
	if req.StoryID == nil {
		writeError(w, log, http.StatusBadRequest, "story_id is required")
		return
	}

	h.act(w, r, log, id, func(c *session.Controller) (*session.SceneView, []events.Event, error) {
		view, err := c.SelectStory(*req.StoryID)
		return view, nil, err
	})
}

func (h *SessionHandler) handleChoice(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	var req ChoiceRequest
	if !decodeBody(w, r, log, &req) {
		return
	}
	if req.Index == nil {
		writeError(w, log, http.StatusBadRequest, "index is required")
		return
	}

	h.act(w, r, log, id, func(c *session.Controller) (*session.SceneView, []events.Event, error) {
		turn, err := c.SubmitChoice(*req.Index)
		if err != nil {
			return nil, nil, err
		}
		return turn.View, turn.Events, nil
	})
}

func (h *SessionHandler) handleBack(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	h.act(w, r, log, id, func(c *session.Controller) (*session.SceneView, []events.Event, error) {
		if err := c.BackToCatalog(); err != nil {
			return nil, nil, err
		}
		view, err := c.View()
		return view, nil, err
	})
}

// act runs one controller action under the session lock and saves the
// result. Nothing is saved when the action fails.
func (h *SessionHandler) act(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID,
	action func(*session.Controller) (*session.SceneView, []events.Event, error)) {
	unlock := h.lock(id)
	defer unlock()

	s, c, ok := h.load(w, r, log, id)
	if !ok {
		return
	}

	view, evts, err := action(c)
	if err != nil {
		log.Debug("Session action rejected", "error", err)
		writeEngineError(w, log, err)
		return
	}

	s.Snapshot = c.Snapshot()
	if err := h.storage.SaveSession(r.Context(), s); err != nil {
		log.Error("Failed to save session", "error", err)
		writeError(w, log, http.StatusInternalServerError, "Failed to save session")
		return
	}

	h.publish(r.Context(), log, id, r.Header.Get(middleware.RequestIDHeader), evts)
	writeJSON(w, log, http.StatusOK, SessionResponse{ID: s.ID, View: view, Events: evts})
}

func (h *SessionHandler) publish(ctx context.Context, log *slog.Logger, id uuid.UUID, requestID string, evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	if err := h.publisher.Publish(ctx, id, requestID, evts); err != nil {
		// The response still carries the events.
		log.Warn("Failed to publish session events", "error", err)
	}
}

func (h *SessionHandler) load(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) (*storage.Session, *session.Controller, bool) {
	s, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		log.Error("Failed to load session", "error", err)
		writeError(w, log, http.StatusInternalServerError, "Failed to load session")
		return nil, nil, false
	}
	if s == nil || s.Snapshot == nil {
		writeError(w, log, http.StatusNotFound, "Session not found")
		return nil, nil, false
	}

	c, err := session.Restore(h.catalog, s.Snapshot, session.WithLogger(log))
	if err != nil {
		log.Error("Failed to restore session", "error", err)
		writeError(w, log, http.StatusConflict, "Session no longer matches the loaded content")
		return nil, nil, false
	}
	return s, c, true
}

func (h *SessionHandler) newController(log *slog.Logger) *session.Controller {
	return session.NewController(h.catalog, session.WithLogger(log))
}

// lock serialises requests for one session and returns the unlock func.
func (h *SessionHandler) lock(id uuid.UUID) func() {
	h.locksMu.Lock()
	l, ok := h.locks[id]
	if !ok {
		l = &sessionLock{}
		h.locks[id] = l
	}
	l.refs++
	h.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		h.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, id)
		}
		h.locksMu.Unlock()
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, log, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		log.Warn("Invalid request body", "error", err)
		writeError(w, log, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
