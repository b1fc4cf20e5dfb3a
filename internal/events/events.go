// Package events publishes tracker events to downstream consumers.
package events

import (
	"context"
	"time"
)

// Event types emitted by the tracker.
const (
	TypeUserCreated    = "user.created"
	TypeExerciseLogged = "exercise.logged"
)

// Event is a single message handed to a Publisher. Key groups events for
// the same user onto the same partition.
type Event struct {
	Type    string
	Key     string
	Payload interface{}
}

// UserCreated is emitted after a user is stored.
type UserCreated struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExerciseLogged is emitted after an exercise is stored. Duration and Date
// are null when the caller's input could not be parsed.
type ExerciseLogged struct {
	ExerciseID  string     `json:"exercise_id"`
	UserID      string     `json:"user_id"`
	Username    string     `json:"username"`
	Description string     `json:"description"`
	Duration    *int       `json:"duration"`
	Date        *time.Time `json:"date"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NoopPublisher) Close() error { return nil }
