package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// sqlStore implements Store on database/sql. The drivers only differ in
// placeholders and migrations.
type sqlStore struct {
	db     *sql.DB
	upsert string
	load   string
}

func (s *sqlStore) Save(ctx context.Context, r *Record) error {
	if err := validate(r); err != nil {
		return err
	}

	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	schemes, err := json.Marshal(r.Schemes)
	if err != nil {
		return fmt.Errorf("encode schemes: %w", err)
	}

	now := time.Now().UTC()
	created := r.CreatedAt.UTC()
	if r.CreatedAt.IsZero() {
		created = now
	}
	updated := r.UpdatedAt.UTC()
	if r.UpdatedAt.IsZero() {
		updated = now
	}

	if _, err := s.db.ExecContext(ctx, s.upsert, r.ID, string(answers), string(schemes), created, updated); err != nil {
		return fmt.Errorf("failed to save session %s: %w", r.ID, err)
	}
	return nil
}

func (s *sqlStore) Load(ctx context.Context, id string) (*Record, error) {
	var (
		r       Record
		answers string
		schemes string
	)

	err := s.db.QueryRowContext(ctx, s.load, id).Scan(&r.ID, &answers, &schemes, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of session %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(schemes), &r.Schemes); err != nil {
		return nil, fmt.Errorf("decode schemes of session %s: %w", id, err)
	}
	return &r, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
