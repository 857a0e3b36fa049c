// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"manga_bot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	UpsertUser(ctx context.Context, id int64, name string) error
	GetUser(ctx context.Context, id int64) (*model.User, error)

	// AddTitle is a no-op when the owner already tracks the exact title.
	AddTitle(ctx context.Context, ownerID int64, title string) error
	// RemoveTitle reports whether a title with exactly this spelling was removed.
	RemoveTitle(ctx context.Context, ownerID int64, title string) (bool, error)
	ListTitles(ctx context.Context, ownerID int64) ([]model.TrackedTitle, error)
	ListAllTitles(ctx context.Context) ([]model.TrackedTitle, error)

	Close() error
}
