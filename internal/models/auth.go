// Модели обмена с апстрим API клиники (/users/login/, /token/refresh/).
package models

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair — ответ /users/login/.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse — ответ /token/refresh/. Refresh приходит только
// если сервер ротирует refresh-токены.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
