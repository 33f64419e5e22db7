package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/lifeskills-engine/internal/logger"
	"github.com/jwebster45206/lifeskills-engine/pkg/events"
	"github.com/jwebster45206/lifeskills-engine/pkg/session"
	"github.com/jwebster45206/lifeskills-engine/pkg/storage"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published map[uuid.UUID][]events.Event
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, id uuid.UUID, _ string, list []events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.published == nil {
		p.published = make(map[uuid.UUID][]events.Event)
	}
	p.published[id] = append(p.published[id], list...)
	return p.err
}

type sessionServer struct {
	handler   *SessionHandler
	store     *storage.MemoryStorage
	publisher *recordingPublisher
}

func newSessionServer(t *testing.T) *sessionServer {
	t.Helper()
	store := storage.NewMemoryStorage(0)
	pub := &recordingPublisher{}
	return &sessionServer{
		handler:   NewSessionHandler(builtinCatalog(t), store, pub, logger.Discard()),
		store:     store,
		publisher: pub,
	}
}

func (s *sessionServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *sessionServer) create(t *testing.T) uuid.UUID {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEqual(t, uuid.Nil, resp.ID)
	return resp.ID
}

func decodeSession(t *testing.T, rr *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestSessionHandler_Create(t *testing.T) {
	s := newSessionServer(t)
	rr := s.do(t, http.MethodPost, "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rr.Code)

	resp := decodeSession(t, rr)
	require.NotNil(t, resp.View)
	assert.Equal(t, session.PhaseStorySelection, resp.View.Phase)
	assert.Equal(t, 1, resp.View.Level)
	require.Len(t, resp.View.Stories, 3)
	assert.True(t, resp.View.Stories[0].Unlocked)
	assert.False(t, resp.View.Stories[1].Unlocked)

	stored, err := s.store.LoadSession(context.Background(), resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, session.PhaseStorySelection, stored.Snapshot.Phase)
}

func TestSessionHandler_PlayThrough(t *testing.T) {
	s := newSessionServer(t)
	id := s.create(t)
	base := "/v1/sessions/" + id.String()

	rr := s.do(t, http.MethodPost, base+"/story", `{"story_id": 0}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decodeSession(t, rr)
	assert.Equal(t, session.PhaseInScene, resp.View.Phase)
	assert.Equal(t, 0, *resp.View.SceneID)
	assert.Empty(t, resp.Events)

	for i := 0; i < 3; i++ {
		rr = s.do(t, http.MethodPost, base+"/choice", `{"index": 0}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp = decodeSession(t, rr)
		assert.NotEmpty(t, resp.Events)
	}
	assert.Equal(t, session.PhaseStoryComplete, resp.View.Phase)
	assert.Equal(t, 2, resp.View.Level)
	assert.Equal(t, events.KindStoryCompleted, resp.Events[len(resp.Events)-1].Kind)

	// State survives a plain read.
	rr = s.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	read := decodeSession(t, rr)
	assert.Equal(t, 130, read.View.XP)
	assert.True(t, read.View.Stories[1].Unlocked)

	// Choices on a finished story are rejected.
	rr = s.do(t, http.MethodPost, base+"/choice", `{"index": 0}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_CHOICE", decodeError(t, rr).Code)

	rr = s.do(t, http.MethodPost, base+"/back", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, session.PhaseStorySelection, decodeSession(t, rr).View.Phase)

	// Level 2 unlocked the next story.
	rr = s.do(t, http.MethodPost, base+"/story", `{"story_id": 1}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	s.publisher.mu.Lock()
	published := s.publisher.published[id]
	s.publisher.mu.Unlock()
	assert.NotEmpty(t, published)
}

func TestSessionHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, s *sessionServer, base string)
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "choice without story",
			path:       "/choice",
			body:       `{"index": 0}`,
			wantStatus: http.StatusConflict,
			wantCode:   "NO_ACTIVE_STORY",
		},
		{
			name:       "locked story",
			path:       "/story",
			body:       `{"story_id": 2}`,
			wantStatus: http.StatusForbidden,
			wantCode:   "STORY_LOCKED",
		},
		{
			name:       "unknown story",
			path:       "/story",
			body:       `{"story_id": 42}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "STORY_NOT_FOUND",
		},
		{
			name: "choice out of range",
			setup: func(t *testing.T, s *sessionServer, base string) {
				rr := s.do(t, http.MethodPost, base+"/story", `{"story_id": 0}`)
				require.Equal(t, http.StatusOK, rr.Code)
			},
			path:       "/choice",
			body:       `{"index": 9}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_CHOICE",
		},
		{
			name:       "missing index",
			path:       "/choice",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			path:       "/story",
			body:       `{"story": 0}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			path:       "/story",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown action",
			path:       "/jump",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSessionServer(t)
			id := s.create(t)
			base := "/v1/sessions/" + id.String()
			if tt.setup != nil {
				tt.setup(t, s, base)
			}

			before, err := s.store.LoadSession(context.Background(), id)
			require.NoError(t, err)

			rr := s.do(t, http.MethodPost, base+tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rr).Code)
			}

			after, err := s.store.LoadSession(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, before.Snapshot, after.Snapshot)
		})
	}
}

func TestSessionHandler_NotFoundAndBadIDs(t *testing.T) {
	s := newSessionServer(t)

	rr := s.do(t, http.MethodGet, "/v1/sessions/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodPost, "/v1/sessions/"+uuid.NewString()+"/choice", `{"index": 0}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodGet, "/v1/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodGet, "/v1/sessions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = s.do(t, http.MethodPut, "/v1/sessions/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = s.do(t, http.MethodGet, "/v1/sessions/"+uuid.NewString()+"/choice", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = s.do(t, http.MethodGet, "/v1/sessions/"+uuid.NewString()+"/a/b", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newSessionServer(t)
	id := s.create(t)
	base := "/v1/sessions/" + id.String()

	rr := s.do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_PublishFailureStillResponds(t *testing.T) {
	s := newSessionServer(t)
	s.publisher.err = errors.New("redis down")
	id := s.create(t)
	base := "/v1/sessions/" + id.String()

	rr := s.do(t, http.MethodPost, base+"/story", `{"story_id": 0}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = s.do(t, http.MethodPost, base+"/choice", `{"index": 0}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, decodeSession(t, rr).Events)
}

func TestSessionHandler_ConcurrentChoicesAreSerialised(t *testing.T) {
	s := newSessionServer(t)
	id := s.create(t)
	base := "/v1/sessions/" + id.String()
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, base+"/story", `{"story_id": 0}`).Code)

	// Story 0 has three choice scenes; exactly three of these can succeed.
	const attempts = 8
	codes := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, base+"/choice", strings.NewReader(`{"index": 0}`))
			rr := httptest.NewRecorder()
			s.handler.ServeHTTP(rr, req)
			codes <- rr.Code
		}()
	}
	wg.Wait()
	close(codes)

	ok := 0
	for code := range codes {
		if code == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusBadRequest, code)
		}
	}
	assert.Equal(t, 3, ok)

	rr := s.do(t, http.MethodGet, base, "")
	assert.Equal(t, session.PhaseStoryComplete, decodeSession(t, rr).View.Phase)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("plain")))
}
