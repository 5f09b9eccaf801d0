package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pribylovaa/clinicare/internal/forms"
	apierrors "github.com/pribylovaa/clinicare/internal/http/errors"
	"github.com/pribylovaa/clinicare/internal/models"
	"github.com/pribylovaa/clinicare/internal/session"
	"github.com/pribylovaa/clinicare/internal/storage"
)

// Clinic — ресурсные эндпойнты API клиники.
type Clinic interface {
	Doctors(ctx context.Context) ([]models.Doctor, error)
	Doctor(ctx context.Context, id string) (models.Doctor, error)
	Appointments(ctx context.Context) ([]models.Appointment, error)
	CreateAppointment(ctx context.Context, in models.BookingRequest) (models.Appointment, error)
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	Session *session.Controller
	Clinic  Clinic
	Store   storage.Store
	Now     func() time.Time
}

func New(sess *session.Controller, clinic Clinic, store storage.Store) *Handlers {
	return &Handlers{Session: sess, Clinic: clinic, Store: store, Now: time.Now}
}

var errInvalidBody = forms.Errors{General: "invalid request body"}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через fail.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return errors.Join(errInvalidBody, err)
	}
	return nil
}

// fail пишет ошибку; 401 при потерянной сессии дополняется переадресацией,
// которую выбрал клиент при инвалидации.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := apierrors.ToHTTP(err)

	if status == http.StatusUnauthorized && resp.Error.Redirect == "" {
		if st := h.Session.State(); !st.Authenticated {
			resp.Error.Redirect = st.Redirect
			if resp.Error.Redirect == "" {
				resp.Error.Redirect = "/"
			}
		}
	}

	apierrors.WriteResponse(w, r, status, resp)
}
