// storage задаёт контракт долговременного key-value хранилища учётных
// данных профиля (аналог localStorage браузера) и общие хелперы поверх него.
package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/store_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/clinicare/internal/models"
)

// Известные ключи профиля.
const (
	KeyAccess  = "access"
	KeyRefresh = "refresh"
)

var (
	// ErrNotFound — ключ в профиле отсутствует.
	ErrNotFound = errors.New("not found")
)

// Store — хранилище строковых значений одного профиля.
// Реализации обязаны быть безопасны для конкурентного использования.
type Store interface {
	// Get возвращает значение ключа или ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Put атомарно записывает все переданные пары.
	Put(ctx context.Context, values map[string]string) error
	// Delete удаляет ключ; отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, key string) error
	// Clear удаляет все ключи профиля.
	Clear(ctx context.Context) error
	// Close освобождает ресурсы хранилища.
	Close() error
}

// LoadCredentials читает пару токенов; отсутствующий токен даёт пустую строку.
func LoadCredentials(ctx context.Context, s Store) (models.Credentials, error) {
	const op = "storage.LoadCredentials"

	access, err := getOptional(ctx, s, KeyAccess)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := getOptional(ctx, s, KeyRefresh)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

// SaveCredentials записывает пару токенов одной операцией.
func SaveCredentials(ctx context.Context, s Store, c models.Credentials) error {
	const op = "storage.SaveCredentials"

	if err := s.Put(ctx, map[string]string{
		KeyAccess:  c.AccessToken,
		KeyRefresh: c.RefreshToken,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteCredentials удаляет оба токена, не трогая прочие ключи профиля.
func DeleteCredentials(ctx context.Context, s Store) error {
	const op = "storage.DeleteCredentials"

	var errs []error
	for _, key := range []string{KeyAccess, KeyRefresh} {
		if err := s.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func getOptional(ctx context.Context, s Store, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}

	return v, err
}
