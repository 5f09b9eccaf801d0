package clients

import (
	"context"
	"fmt"

	"github.com/pribylovaa/clinicare/internal/models"
	"github.com/pribylovaa/clinicare/internal/storage"
)

// SaveCredentials записывает новую пару токенов профиля. Обновление,
// начатое до этого вызова, своего результата уже не запишет.
func (c *Client) SaveCredentials(ctx context.Context, creds models.Credentials) error {
	const op = "clients.SaveCredentials"

	if err := c.replaceCredentials(func() error {
		return storage.SaveCredentials(ctx, c.store, creds)
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ClearCredentials очищает профиль целиком (выход).
func (c *Client) ClearCredentials(ctx context.Context) error {
	const op = "clients.ClearCredentials"

	if err := c.replaceCredentials(func() error { return c.store.Clear(ctx) }); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteCredentials удаляет только токены, прочие ключи профиля остаются.
func (c *Client) DeleteCredentials(ctx context.Context) error {
	const op = "clients.DeleteCredentials"

	if err := c.replaceCredentials(func() error {
		return storage.DeleteCredentials(ctx, c.store)
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) generation() uint64 {
	c.credMu.Lock()
	defer c.credMu.Unlock()

	return c.gen
}

// replaceCredentials выполняет write под credMu, сдвигая поколение.
func (c *Client) replaceCredentials(write func() error) error {
	c.credMu.Lock()
	defer c.credMu.Unlock()

	c.gen++

	return write()
}

// commitRefresh пишет результат обновления, только если с момента gen
// учётные данные никто не менял. Проверка и запись идут под одним credMu.
func (c *Client) commitRefresh(ctx context.Context, gen uint64, values map[string]string) error {
	c.credMu.Lock()
	defer c.credMu.Unlock()

	if c.gen != gen {
		return ErrCredentialsChanged
	}

	return c.store.Put(ctx, values)
}

// clearIfCurrent очищает профиль, если поколение всё ещё gen, и сдвигает его.
func (c *Client) clearIfCurrent(ctx context.Context, gen uint64) (bool, error) {
	c.credMu.Lock()
	defer c.credMu.Unlock()

	if c.gen != gen {
		return false, nil
	}

	c.gen++

	return true, c.store.Clear(ctx)
}
