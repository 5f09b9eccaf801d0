package clients

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoRefreshToken — access отвергнут, а refresh-токена в хранилище нет.
	// Получают запросы, ожидавшие в очереди обновления.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrEmptyAccessToken — refresh-эндпойнт ответил 2xx без access-токена.
	ErrEmptyAccessToken = errors.New("refresh response without access token")
	// ErrCredentialsChanged — пока шло обновление, учётные данные профиля
	// заменили или удалили (выход, новый вход). Результат обновления отброшен.
	ErrCredentialsChanged = errors.New("credentials changed during refresh")
)

// StatusError — ответ апстрима с кодом вне 2xx. Body хранит тело как есть:
// по нему формы строят ошибки полей.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// IsUnauthorized сообщает, что err — отказ в авторизации (HTTP 401).
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode достаёт HTTP-код из цепочки ошибок; 0, если это не StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}

	return 0
}

// ErrorBody достаёт тело ответа апстрима из цепочки ошибок.
func ErrorBody(err error) []byte {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Body
	}

	return nil
}
