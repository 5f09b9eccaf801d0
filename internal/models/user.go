package models

import (
	"fmt"
	"strconv"
)

// User — запись "who am I" от сервера. Форма не валидируется клиентом,
// поэтому храним как есть; аксессоры достают известные поля по возможности.
type User map[string]any

func (u User) ID() string {
	switch v := u["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (u User) Username() string { return u.str("username") }

func (u User) Email() string { return u.str("email") }

func (u User) str(key string) string {
	s, _ := u[key].(string)
	return s
}
