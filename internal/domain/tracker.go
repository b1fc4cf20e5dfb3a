package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrUserNotFound is returned when a user id is unknown or malformed.
var ErrUserNotFound = errors.New("user not found")

// User is a tracked person.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// Exercise is a single logged workout. Username is copied from the owning
// user when the exercise is created and is never re-synced.
type Exercise struct {
	ID          string
	UserID      string
	Username    string
	Description string
	Duration    Int
	Date        Date
}

// ExerciseFilter selects a user's exercises. Nil bounds are unconstrained;
// both bounds are inclusive.
type ExerciseFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// PurgeResult reports how many records a bulk delete removed.
type PurgeResult struct {
	Users     int64
	Exercises int64
}

// Repository captures the document store operations the tracker needs.
// GetUser returns nil, nil when the id does not match a stored user.
type Repository interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, username string) (User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	InsertExercise(ctx context.Context, exercise Exercise) (Exercise, error)
	CountExercises(ctx context.Context, filter ExerciseFilter) (int64, error)
	FindExercises(ctx context.Context, filter ExerciseFilter, limit int64) ([]Exercise, error)
	Purge(ctx context.Context) (PurgeResult, error)
}
