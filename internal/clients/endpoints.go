package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pribylovaa/clinicare/internal/models"
)

// Пути REST API клиники относительно BaseURL.
const (
	PathMe           = "/users/me/"
	PathLogin        = "/users/login/"
	PathDoctors      = "/doctors/"
	PathAppointments = "/appointments/"
)

// Me — запись текущего пользователя (GET /users/me/).
func (c *Client) Me(ctx context.Context) (models.User, error) {
	const op = "clients.Me"

	var u models.User
	if err := c.getJSON(ctx, PathMe, &u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// Login обменивает e-mail и пароль на пару токенов (POST /users/login/).
// Токены не сохраняются: это забота сессии.
func (c *Client) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	const op = "clients.Login"

	var pair models.TokenPair
	if err := c.postJSON(ctx, PathLogin, models.LoginRequest{Email: email, Password: password}, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// Doctors — список врачей (GET /doctors/).
func (c *Client) Doctors(ctx context.Context) ([]models.Doctor, error) {
	const op = "clients.Doctors"

	var out []models.Doctor
	if err := c.getJSON(ctx, PathDoctors, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Doctor — карточка врача (GET /doctors/{id}/).
func (c *Client) Doctor(ctx context.Context, id string) (models.Doctor, error) {
	const op = "clients.Doctor"

	var out models.Doctor
	if err := c.getJSON(ctx, PathDoctors+url.PathEscape(id)+"/", &out); err != nil {
		return models.Doctor{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Appointments — записи текущего пользователя (GET /appointments/).
func (c *Client) Appointments(ctx context.Context) ([]models.Appointment, error) {
	const op = "clients.Appointments"

	var out []models.Appointment
	if err := c.getJSON(ctx, PathAppointments, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// CreateAppointment записывает на приём (POST /appointments/).
func (c *Client) CreateAppointment(ctx context.Context, in models.BookingRequest) (models.Appointment, error) {
	const op = "clients.CreateAppointment"

	var out models.Appointment
	if err := c.postJSON(ctx, PathAppointments, in, &out); err != nil {
		return models.Appointment{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return err
	}

	return resp.Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	req, err := NewJSONRequest(http.MethodPost, path, in)
	if err != nil {
		return err
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if len(resp.Body) == 0 || out == nil {
		return nil
	}

	return resp.Decode(out)
}
