// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"example.com/exercisetracker/internal/events"
	"example.com/exercisetracker/internal/observability"
)

// Service orchestrates tracker workflows over a Repository.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    log.FieldLogger
	now       func() time.Time
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithPublisher sets where created users and logged exercises are announced.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger overrides the logger used for diagnostics.
func WithLogger(logger log.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used to default missing dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: events.NoopPublisher{},
		logger:    log.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogExerciseInput carries the raw, unvalidated request fields.
type LogExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// LogQuery carries the raw log retrieval parameters. Empty strings mean the
// parameter was not supplied.
type LogQuery struct {
	UserID string
	From   string
	To     string
	Limit  string
}

// ExerciseLog is a user's filtered exercise history.
type ExerciseLog struct {
	User    User
	Total   int64
	Entries []Exercise
}

// Count is the number of entries actually returned.
func (l ExerciseLog) Count() int {
	return len(l.Entries)
}

// ListUsers returns every user in store order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	if len(users) == 0 {
		s.logger.Debug("no users found")
	}
	return users, nil
}

// CreateUser stores a user with the given username as-is.
func (s *Service) CreateUser(ctx context.Context, username string) (User, error) {
	user, err := s.repo.CreateUser(ctx, username)
	if err != nil {
		return User{}, errors.Wrap(err, "create user")
	}
	observability.RecordUserCreated()
	s.logger.WithField("user_id", user.ID).Info("inserted user")

	s.publish(ctx, events.Event{
		Type: events.TypeUserCreated,
		Key:  user.ID,
		Payload: events.UserCreated{
			UserID:     user.ID,
			Username:   user.Username,
			OccurredAt: s.now().UTC(),
		},
	})
	return user, nil
}

// LogExercise records an exercise for an existing user. Duration and date
// are coerced rather than validated; an empty date means now.
func (s *Service) LogExercise(ctx context.Context, input LogExerciseInput) (Exercise, error) {
	user, err := s.lookupUser(ctx, "log_exercise", input.UserID)
	if err != nil {
		return Exercise{}, err
	}

	date := DateOf(s.now())
	if strings.TrimSpace(input.Date) != "" {
		date = ParseDate(input.Date)
	}

	exercise := Exercise{
		UserID:      user.ID,
		Username:    user.Username,
		Description: input.Description,
		Duration:    ParseInt(input.Duration),
		Date:        date,
	}

	stored, err := s.repo.InsertExercise(ctx, exercise)
	if err != nil {
		return Exercise{}, errors.Wrap(err, "insert exercise")
	}
	observability.RecordExerciseLogged(s.now())
	s.logger.WithFields(log.Fields{
		"user_id":     stored.UserID,
		"exercise_id": stored.ID,
		"date":        stored.Date.Display(),
		"date_given":  strings.TrimSpace(input.Date) != "",
	}).Info("inserted exercise")

	s.publish(ctx, events.Event{
		Type: events.TypeExerciseLogged,
		Key:  stored.UserID,
		Payload: events.ExerciseLogged{
			ExerciseID:  stored.ID,
			UserID:      stored.UserID,
			Username:    stored.Username,
			Description: stored.Description,
			Duration:    stored.Duration.Ptr(),
			Date:        stored.Date.Ptr(),
			OccurredAt:  s.now().UTC(),
		},
	})
	return stored, nil
}

// GetLog returns a user's exercises, optionally bounded by date and capped
// in count. Unparsable bounds and limits are ignored.
func (s *Service) GetLog(ctx context.Context, query LogQuery) (*ExerciseLog, error) {
	user, err := s.lookupUser(ctx, "get_log", query.UserID)
	if err != nil {
		return nil, err
	}

	// Date bounds only apply once from is supplied; to on its own is ignored.
	filter := ExerciseFilter{UserID: user.ID}
	if query.From != "" {
		filter.From = ParseDate(query.From).Ptr()
		if query.To != "" {
			filter.To = ParseDate(query.To).Ptr()
		}
	}

	var limit int64
	if l := ParseInt(query.Limit); l.Valid && l.Value > 0 {
		limit = int64(l.Value)
	}

	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"from":    query.From,
		"to":      query.To,
		"limit":   query.Limit,
	}).Debug("log query parameters")

	total, err := s.repo.CountExercises(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "count exercises")
	}
	if total == 0 {
		s.logger.WithField("user_id", user.ID).Debug("no exercises found")
	}

	entries, err := s.repo.FindExercises(ctx, filter, limit)
	if err != nil {
		return nil, errors.Wrap(err, "find exercises")
	}
	if entries == nil {
		entries = []Exercise{}
	}

	return &ExerciseLog{User: *user, Total: total, Entries: entries}, nil
}

// Purge deletes every user and exercise. It is a maintenance operation and
// is not reachable over HTTP.
func (s *Service) Purge(ctx context.Context) (PurgeResult, error) {
	result, err := s.repo.Purge(ctx)
	if err != nil {
		return PurgeResult{}, errors.Wrap(err, "purge")
	}
	s.logger.WithFields(log.Fields{
		"users":     result.Users,
		"exercises": result.Exercises,
	}).Warn("purged store")
	return result, nil
}

func (s *Service) lookupUser(ctx context.Context, operation, raw string) (*User, error) {
	id, ok := CanonicalID(raw)
	if !ok {
		observability.RecordUserLookupMiss(operation)
		s.logger.WithField("user_id", raw).Info("malformed user id")
		return nil, ErrUserNotFound
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	if user == nil {
		observability.RecordUserLookupMiss(operation)
		s.logger.WithField("user_id", id).Info("cannot find user")
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	err := s.publisher.Publish(ctx, event)
	observability.RecordEventPublished(event.Type, err)
	if err != nil {
		s.logger.WithError(err).WithField("event_type", event.Type).Warn("event publish failed")
	}
}
