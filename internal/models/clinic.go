package models

import "time"

// DateLayout — формат даты приёма на проводе (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Статусы приёма относительно текущего момента.
const (
	StatusUpcoming  = "upcoming"
	StatusCompleted = "completed"
)

// Doctor — врач из /doctors/.
type Doctor struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Speciality string `json:"speciality"`
}

// Appointment — запись из /appointments/.
type Appointment struct {
	ID              int64   `json:"id"`
	PatientName     string  `json:"patient_name"`
	Age             int     `json:"age"`
	AppointmentDate string  `json:"appointment_date"`
	Doctor          *Doctor `json:"doctor,omitempty"`
	User            int64   `json:"user,omitempty"`
}

// Status — "upcoming", если дата приёма (полночь UTC) позже now, иначе "completed".
// Нераспарсенная дата считается прошедшей.
func (a Appointment) Status(now time.Time) string {
	d, err := time.Parse(DateLayout, a.AppointmentDate)
	if err != nil {
		return StatusCompleted
	}

	if d.After(now) {
		return StatusUpcoming
	}

	return StatusCompleted
}

// BookingRequest — тело POST /appointments/.
type BookingRequest struct {
	PatientName     string `json:"patient_name"`
	Age             int    `json:"age"`
	AppointmentDate string `json:"appointment_date"`
	DoctorID        string `json:"doctor_id"`
}
