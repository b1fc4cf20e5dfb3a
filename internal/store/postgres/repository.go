// Package postgres stores users and exercises in PostgreSQL tables.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"

	"example.com/exercisetracker/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Repository provides Postgres-backed persistence for the tracker. Ids are
// ObjectID-shaped hex strings so they match the Mongo store.
type Repository struct {
	pool *pgxpool.Pool
}

// Connect opens a pool, applies migrations and returns a Repository.
func Connect(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewRepository(pool), nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	goose.SetLogger(log.StandardLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Close releases the pool.
func (r *Repository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

// ListUsers implements domain.Repository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, username FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser implements domain.Repository.
func (r *Repository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{ID: domain.NewID(), Username: username}
	if _, err := r.pool.Exec(ctx, `INSERT INTO users (id, username) VALUES ($1, $2)`, user.ID, user.Username); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// GetUser implements domain.Repository.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	id, ok := domain.CanonicalID(id)
	if !ok {
		return nil, nil
	}

	var u domain.User
	err := r.pool.QueryRow(ctx, `SELECT id, username FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// InsertExercise implements domain.Repository.
func (r *Repository) InsertExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	exercise.ID = domain.NewID()

	const stmt = `INSERT INTO exercises (id, user_id, username, description, duration, date)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := r.pool.Exec(ctx, stmt,
		exercise.ID,
		exercise.UserID,
		exercise.Username,
		exercise.Description,
		exercise.Duration.Ptr(),
		exercise.Date.Ptr(),
	)
	if err != nil {
		return domain.Exercise{}, err
	}
	return exercise, nil
}

// CountExercises implements domain.Repository.
func (r *Repository) CountExercises(ctx context.Context, filter domain.ExerciseFilter) (int64, error) {
	where, args := exerciseWhere(filter)
	query := `SELECT COUNT(*) FROM exercises` + where

	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// FindExercises implements domain.Repository. A limit of zero means no cap.
func (r *Repository) FindExercises(ctx context.Context, filter domain.ExerciseFilter, limit int64) ([]domain.Exercise, error) {
	where, args := exerciseWhere(filter)
	query := `SELECT id, user_id, username, description, duration, date FROM exercises` + where + ` ORDER BY seq`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Exercise, 0)
	for rows.Next() {
		var (
			ex       domain.Exercise
			duration *int
			date     *time.Time
		)
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.Username, &ex.Description, &duration, &date); err != nil {
			return nil, err
		}
		ex.Duration = domain.IntFromPtr(duration)
		ex.Date = domain.DateFromPtr(date)
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Purge implements domain.Repository.
func (r *Repository) Purge(ctx context.Context) (domain.PurgeResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.PurgeResult{}, err
	}
	defer tx.Rollback(ctx)

	exercises, err := tx.Exec(ctx, `DELETE FROM exercises`)
	if err != nil {
		return domain.PurgeResult{}, errors.Wrap(err, "delete exercises")
	}
	users, err := tx.Exec(ctx, `DELETE FROM users`)
	if err != nil {
		return domain.PurgeResult{}, errors.Wrap(err, "delete users")
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.PurgeResult{}, err
	}
	return domain.PurgeResult{Users: users.RowsAffected(), Exercises: exercises.RowsAffected()}, nil
}

// exerciseWhere renders the filter as a WHERE clause with positional args.
func exerciseWhere(filter domain.ExerciseFilter) (string, []interface{}) {
	args := []interface{}{filter.UserID}
	clause := ` WHERE user_id = $1`

	if filter.From != nil {
		args = append(args, *filter.From)
		clause += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clause += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	return clause, args
}
