// postgres — Store поверх PostgreSQL для развёртываний, где профили
// нескольких клиентов живут в общей базе. Схема — migrations/1_init_credentials.up.sql.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pribylovaa/clinicare/internal/storage"
)

// ErrSchemaMissing — таблица credentials не создана, миграции не применены.
var ErrSchemaMissing = errors.New("credentials table is missing, apply migrations")

type Store struct {
	db      *pgxpool.Pool
	profile string
}

// New создает новое подключение к PostgreSQL.
func New(ctx context.Context, dbURL, profile string) (*Store, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{db: db, profile: profile}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.postgres.Get"

	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM credentials WHERE profile = $1 AND key = $2`,
		s.profile, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, classify(err))
	}

	return value, nil
}

func (s *Store) Put(ctx context.Context, values map[string]string) error {
	const op = "storage.postgres.Put"

	query := `
        INSERT INTO credentials (profile, key, value, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (profile, key) DO UPDATE
        SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for key, value := range values {
			batch.Queue(query, s.profile, key, value)
		}

		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "storage.postgres.Delete"

	if _, err := s.db.Exec(ctx,
		`DELETE FROM credentials WHERE profile = $1 AND key = $2`, s.profile, key,
	); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	const op = "storage.postgres.Clear"

	if _, err := s.db.Exec(ctx,
		`DELETE FROM credentials WHERE profile = $1`, s.profile,
	); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	return nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// classify подменяет ошибку отсутствующей таблицы на ErrSchemaMissing.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
	}

	return err
}

// Проверка на соответствие интерфейсу Store.
var _ storage.Store = (*Store)(nil)
