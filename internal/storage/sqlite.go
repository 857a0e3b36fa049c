package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"manga_bot/internal/model"
	"manga_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes every statement and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// UpsertUser creates the user or refreshes its display name.
func (s *SQLite) UpsertUser(ctx context.Context, id int64, name string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		id, name, now,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUser returns a single user by chat ID.
func (s *SQLite) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return &u, nil
}

// AddTitle starts tracking title for the owner.
func (s *SQLite) AddTitle(ctx context.Context, ownerID int64, title string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tracked_titles (owner_id, title, created_at) VALUES (?, ?, ?)`,
		ownerID, title, now,
	)
	if err != nil {
		return fmt.Errorf("insert title: %w", err)
	}
	return nil
}

// RemoveTitle stops tracking the exact, case-sensitive title for the owner.
func (s *SQLite) RemoveTitle(ctx context.Context, ownerID int64, title string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tracked_titles WHERE owner_id = ? AND title = ?`,
		ownerID, title,
	)
	if err != nil {
		return false, fmt.Errorf("delete title: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListTitles returns the titles tracked by one owner in insertion order.
func (s *SQLite) ListTitles(ctx context.Context, ownerID int64) ([]model.TrackedTitle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_id, title, created_at FROM tracked_titles WHERE owner_id = ? ORDER BY id`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query titles: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTitles(rows)
}

// ListAllTitles returns every tracked title grouped by owner.
func (s *SQLite) ListAllTitles(ctx context.Context) ([]model.TrackedTitle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_id, title, created_at FROM tracked_titles ORDER BY owner_id, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query all titles: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTitles(rows)
}

func scanTitles(rows *sql.Rows) ([]model.TrackedTitle, error) {
	var titles []model.TrackedTitle
	for rows.Next() {
		var t model.TrackedTitle
		var created string
		if err := rows.Scan(&t.OwnerID, &t.Title, &created); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		t.CreatedAt, _ = time.Parse(timeLayout, created)
		titles = append(titles, t)
	}
	return titles, rows.Err()
}
