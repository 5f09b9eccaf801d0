package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials — пара токенов текущего профиля.
//
// AccessToken — короткоживущий токен для запросов к API;
// RefreshToken — долгоживущий токен, используемый только для выпуска нового access.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Empty сообщает, что ни одного токена нет.
func (c Credentials) Empty() bool { return c.AccessToken == "" && c.RefreshToken == "" }

// AccessExpiresAt достаёт exp из access-токена без проверки подписи.
// Подпись проверяет сервер; клиенту exp нужен только для отображения и логов.
func (c Credentials) AccessExpiresAt() (time.Time, bool) {
	return TokenExpiresAt(c.AccessToken)
}

// TokenExpiresAt — exp из JWT без проверки подписи; ok=false, если токен
// не JWT или exp отсутствует.
func TokenExpiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time.UTC(), true
}
