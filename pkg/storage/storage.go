package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/lifeskills-engine/pkg/session"
)

// Session is a stored play session: the controller snapshot between
// requests plus bookkeeping timestamps.
type Session struct {
	ID        uuid.UUID         `json:"id"`
	Snapshot  *session.Snapshot `json:"snapshot"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Storage holds sessions for the HTTP API. It is a cache with expiry, not a
// progress save: an expired session is gone.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SaveSession creates or replaces a session and refreshes its expiry.
	SaveSession(ctx context.Context, s *Session) error
	// LoadSession returns nil, nil when the session does not exist.
	LoadSession(ctx context.Context, id uuid.UUID) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}
