package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/clinicare/internal/clients"
	"github.com/pribylovaa/clinicare/internal/forms"
	"github.com/pribylovaa/clinicare/internal/models"
)

// MsgDoctorRequired — запись без врача.
const MsgDoctorRequired = "Doctor is required"

type appointmentView struct {
	models.Appointment
	Status string `json:"status"`
}

type appointmentsView struct {
	Items     []appointmentView `json:"items"`
	Total     int               `json:"total"`
	Upcoming  int               `json:"upcoming"`
	Completed int               `json:"completed"`
}

type bookingFormView struct {
	Doctor          models.Doctor `json:"doctor"`
	AppointmentDate string        `json:"appointment_date"`
}

func (h *Handlers) ListDoctors(w http.ResponseWriter, r *http.Request) {
	out, err := h.Clinic.Doctors(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if out == nil {
		out = []models.Doctor{}
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetDoctor(w http.ResponseWriter, r *http.Request) {
	out, err := h.Clinic.Doctor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// BookingForm — данные для формы записи: врач и дата по умолчанию.
func (h *Handlers) BookingForm(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Clinic.Doctor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bookingFormView{
		Doctor:          doc,
		AppointmentDate: forms.DefaultBookingDate(h.Now()),
	})
}

func (h *Handlers) ListAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Clinic.Appointments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	now := h.Now()
	out := appointmentsView{Items: make([]appointmentView, 0, len(list)), Total: len(list)}
	for _, a := range list {
		st := a.Status(now)
		if st == models.StatusUpcoming {
			out.Upcoming++
		} else {
			out.Completed++
		}
		out.Items = append(out.Items, appointmentView{Appointment: a, Status: st})
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in models.BookingRequest
	if err := decodeStrict(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := forms.ValidateBooking(in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.DoctorID == "" {
		h.fail(w, r, forms.Errors{Fields: map[string]string{"doctor_id": MsgDoctorRequired}})
		return
	}

	out, err := h.Clinic.CreateAppointment(r.Context(), in)
	if err != nil {
		h.fail(w, r, bookingError(err))
		return
	}

	writeJSON(w, http.StatusCreated, appointmentView{Appointment: out, Status: out.Status(h.Now())})
}

// bookingError раскладывает отказ апстрима на ошибки формы записи.
// Потеря сессии и отмена контекста остаются как есть.
func bookingError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, clients.ErrNoRefreshToken) || errors.Is(err, clients.ErrCredentialsChanged) {
		return err
	}

	code := clients.StatusCode(err)
	switch {
	case code == http.StatusUnauthorized:
		return err
	case code != 0:
		return fmt.Errorf("%w: %w", forms.FromServer(clients.ErrorBody(err), forms.MsgBookingFailed), err)
	default:
		return fmt.Errorf("%w: %w", forms.Errors{General: forms.MsgBookingUnreachable}, err)
	}
}
