// Package session keeps the server-side sessions referenced by the session
// cookie. Stores are injected into the auth handler.
package session

import (
	"context"
	"errors"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown and expired sessions.
var ErrNotFound = errors.New("session not found")

type Store interface {
	// Create assigns a new opaque id to s and persists it.
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

func newID() string {
	return uuid.NewString()
}
