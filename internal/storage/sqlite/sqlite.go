// sqlite — Store поверх файла SQLite: профиль переживает перезапуск процесса.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pribylovaa/clinicare/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	profile    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (profile, key)
);`

type Store struct {
	db      *sql.DB
	profile string
}

// New открывает (или создаёт) базу по пути path и готовит схему.
func New(ctx context.Context, path, profile string) (*Store, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Один писатель: SQLite сериализует запись на уровне файла.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: init schema: %w", op, err)
	}

	return &Store{db: db, profile: profile}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.sqlite.Get"

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM credentials WHERE profile = ? AND key = ?`,
		s.profile, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *Store) Put(ctx context.Context, values map[string]string) error {
	const op = "storage.sqlite.Put"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO credentials (profile, key, value, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (profile, key) DO UPDATE
			SET value = excluded.value, updated_at = excluded.updated_at`,
			s.profile, key, value,
		); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "storage.sqlite.Delete"

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE profile = ? AND key = ?`, s.profile, key,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	const op = "storage.sqlite.Clear"

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE profile = ?`, s.profile,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Close() error { return s.db.Close() }

var _ storage.Store = (*Store)(nil)
