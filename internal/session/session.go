// Package session persists completed questionnaire sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned by Load when no record has the requested id.
var ErrNotFound = errors.New("session not found")

// Record is a completed questionnaire: the raw answers and the names of the
// schemes that matched them.
type Record struct {
	ID        string
	Answers   map[string]string
	Schemes   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store saves and loads session records. Save replaces an existing record
// with the same id.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Close() error
}

// Opts holds the settings shared by the store constructors.
type Opts struct {
	DSN string
}

// Option configures a store.
type Option func(*Opts)

// WithDSN sets the data source name: a file path for SQLite, a connection
// string for PostgreSQL.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = strings.TrimSpace(dsn)
	}
}

// Open builds the store for driver.
func Open(driver string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, "sqlite3":
		return NewSQLiteStore(opts...)
	case DriverPostgres, "postgresql":
		return NewPostgresStore(opts...)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

func validate(r *Record) error {
	if r == nil {
		return errors.New("session record is nil")
	}
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("session id is required")
	}
	return nil
}

func clone(r *Record) *Record {
	c := *r
	c.Answers = make(map[string]string, len(r.Answers))
	for k, v := range r.Answers {
		c.Answers[k] = v
	}
	c.Schemes = append([]string(nil), r.Schemes...)
	return &c
}
