// Package storage provides the state management for the watchlist and the
// owner account.
package storage

import (
	"context"

	"github.com/stolasapp/watchlist/internal/storage/db"
)

const (
	// ErrNotFound is returned when a movie or the owner account cannot be found.
	ErrNotFound Error = "not found"
	// ErrInvalidUsername is returned when a username fails validation.
	ErrInvalidUsername Error = "username must be 3-64 characters, alphanumeric and underscores only"
)

// Error is an error type returned by the storage implementation.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Movies are the methods on a storage implementation that are responsible
// for accessing and modifying watchlist entries.
type Movies interface {
	// ListMovies returns every movie in insertion order.
	ListMovies(ctx context.Context) ([]db.Movie, error)
	// GetMovie returns a single movie with the specified ID. An [ErrNotFound]
	// is returned if the ID does not exist.
	GetMovie(ctx context.Context, id uint64) (db.Movie, error)
	// CreateMovie inserts a new movie, assigning its ID. The stored row is
	// returned.
	CreateMovie(ctx context.Context, movie db.Movie) (db.Movie, error)
	// UpdateMovie replaces the title and year of the row matching movie.ID.
	// An [ErrNotFound] is returned if the ID does not exist.
	UpdateMovie(ctx context.Context, movie db.Movie) error
	// DeleteMovie removes the movie with the specified ID. An [ErrNotFound]
	// is returned if the ID does not exist.
	DeleteMovie(ctx context.Context, id uint64) error
}

// Users are the methods on a storage implementation that are responsible for
// accessing and modifying the single owner account.
type Users interface {
	// GetAdmin returns the owner account. An [ErrNotFound] is returned until
	// the account has been created.
	GetAdmin(ctx context.Context) (db.User, error)
	// SaveAdmin creates or replaces the owner account. The account always
	// occupies the same row, so at most one owner exists.
	SaveAdmin(ctx context.Context, user db.User) error
	// SetAdminName updates the owner's display name. An [ErrNotFound] is
	// returned if the account has not been created yet.
	SetAdminName(ctx context.Context, name string) error
}

// Store is the combination interface for [Movies] and [Users].
type Store interface {
	Movies
	Users
	// Close releases any resources held by the store. An error is returned if
	// the store cannot be cleanly closed.
	Close() error
}
