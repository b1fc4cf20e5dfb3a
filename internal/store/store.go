// Package store opens the tracker's document store from a connection string.
package store

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/store/memory"
	"example.com/exercisetracker/internal/store/mongo"
	"example.com/exercisetracker/internal/store/postgres"
)

// Store is a Repository that owns a connection.
type Store interface {
	domain.Repository
	Close(ctx context.Context) error
}

// Open picks a backend from the scheme of rawURL: mongodb and mongodb+srv
// use MongoDB, postgres and postgresql use PostgreSQL and memory keeps
// everything in process. database names the Mongo database.
func Open(ctx context.Context, rawURL, database string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return mongo.Connect(ctx, rawURL, database)
	case "postgres", "postgresql":
		return postgres.Connect(ctx, rawURL)
	case "memory":
		return memory.NewRepository(), nil
	default:
		return nil, errors.Errorf("unsupported database scheme %q", u.Scheme)
	}
}
