package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenExpiresAt(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second).UTC()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := Credentials{AccessToken: tok}.AccessExpiresAt()
	require.True(t, ok)
	require.True(t, exp.Equal(got))

	_, ok = TokenExpiresAt("opaque-token")
	require.False(t, ok)

	_, ok = TokenExpiresAt("")
	require.False(t, ok)
}

func TestUser_Accessors(t *testing.T) {
	t.Parallel()

	u := User{"id": float64(7), "username": "alice", "email": "alice@clinic.org", "extra": true}
	require.Equal(t, "7", u.ID())
	require.Equal(t, "alice", u.Username())
	require.Equal(t, "alice@clinic.org", u.Email())

	require.Empty(t, User{}.ID())
	require.Equal(t, "u-1", User{"id": "u-1"}.ID())
}

func TestAppointment_Status(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		date string
		want string
	}{
		{"2026-03-11", StatusUpcoming},
		{"2026-03-10", StatusCompleted},
		{"2026-03-01", StatusCompleted},
		{"garbage", StatusCompleted},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Appointment{AppointmentDate: tt.date}.Status(now), tt.date)
	}
}

func TestCredentials_Empty(t *testing.T) {
	t.Parallel()

	require.True(t, Credentials{}.Empty())
	require.False(t, Credentials{RefreshToken: "r"}.Empty())
}
