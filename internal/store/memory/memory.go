// Package memory is an in-process tracker store for tests and local runs.
package memory

import (
	"context"
	"sync"

	"example.com/exercisetracker/internal/domain"
)

// Repository keeps users and exercises in insertion order.
type Repository struct {
	mu        sync.RWMutex
	users     []domain.User
	userIndex map[string]int
	exercises []domain.Exercise
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{userIndex: make(map[string]int)}
}

// ListUsers implements domain.Repository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

// CreateUser implements domain.Repository.
func (r *Repository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := domain.User{ID: domain.NewID(), Username: username}
	r.userIndex[user.ID] = len(r.users)
	r.users = append(r.users, user)
	return user, nil
}

// GetUser implements domain.Repository.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := domain.CanonicalID(id)
	if !ok {
		return nil, nil
	}
	idx, ok := r.userIndex[id]
	if !ok {
		return nil, nil
	}
	user := r.users[idx]
	return &user, nil
}

// InsertExercise implements domain.Repository.
func (r *Repository) InsertExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exercise.ID = domain.NewID()
	r.exercises = append(r.exercises, exercise)
	return exercise, nil
}

// CountExercises implements domain.Repository.
func (r *Repository) CountExercises(ctx context.Context, filter domain.ExerciseFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, ex := range r.exercises {
		if matches(filter, ex) {
			n++
		}
	}
	return n, nil
}

// FindExercises implements domain.Repository. A limit of zero means no cap.
func (r *Repository) FindExercises(ctx context.Context, filter domain.ExerciseFilter, limit int64) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Exercise, 0)
	for _, ex := range r.exercises {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		if matches(filter, ex) {
			out = append(out, ex)
		}
	}
	return out, nil
}

// Purge implements domain.Repository.
func (r *Repository) Purge(ctx context.Context) (domain.PurgeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := domain.PurgeResult{Users: int64(len(r.users)), Exercises: int64(len(r.exercises))}
	r.users = nil
	r.userIndex = make(map[string]int)
	r.exercises = nil
	return result, nil
}

// Close implements store.Store.
func (r *Repository) Close(ctx context.Context) error {
	return nil
}

// An exercise without a stored date never satisfies a date bound.
func matches(filter domain.ExerciseFilter, ex domain.Exercise) bool {
	if ex.UserID != filter.UserID {
		return false
	}
	if filter.From == nil && filter.To == nil {
		return true
	}
	if !ex.Date.Valid {
		return false
	}
	if filter.From != nil && ex.Date.Time.Before(*filter.From) {
		return false
	}
	if filter.To != nil && ex.Date.Time.After(*filter.To) {
		return false
	}
	return true
}
