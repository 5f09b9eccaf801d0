// forms проверяет формы входа и записи на приём до обращения к сети и
// раскладывает ответы сервера с ошибками на ошибки полей и общую ошибку.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pribylovaa/clinicare/internal/models"
)

// Сообщения, которые видит пользователь.
const (
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Invalid email address"
	MsgPasswordRequired = "Password is required"

	MsgPatientNameRequired = "Patient name is required"
	MsgAgeInvalid          = "Please enter a valid age (1-150)"
	MsgDateRequired        = "Appointment date is required"

	MsgLoginFailed        = "Invalid credentials. Please try again."
	MsgBookingFailed      = "Failed to book appointment. Please try again."
	MsgBookingUnreachable = "Failed to book appointment. Please check your connection and try again."
)

// Errors — ошибки формы: по полям (ключ — имя поля на проводе) и общая.
type Errors struct {
	Fields  map[string]string `json:"fields,omitempty"`
	General string            `json:"general,omitempty"`
}

func (e Errors) Error() string {
	if e.General != "" {
		return e.General
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return strings.Join(parts, "; ")
}

// Empty сообщает, что ошибок нет.
func (e Errors) Empty() bool { return e.General == "" && len(e.Fields) == 0 }

// AsErrors достаёт Errors из цепочки ошибок.
func AsErrors(err error) (Errors, bool) {
	var fe Errors
	if errors.As(err, &fe) {
		return fe, true
	}

	return Errors{}, false
}

var emailRe = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

type loginForm struct {
	Email    string `json:"email" validate:"required,clinic_email"`
	Password string `json:"password" validate:"required"`
}

type bookingForm struct {
	PatientName     string `json:"patient_name" validate:"required"`
	Age             int    `json:"age" validate:"min=1,max=150"`
	AppointmentDate string `json:"appointment_date" validate:"required"`
}

// messages — текст ошибки по паре "поле/тег".
var messages = map[string]string{
	"email/required":            MsgEmailRequired,
	"email/clinic_email":        MsgEmailInvalid,
	"password/required":         MsgPasswordRequired,
	"patient_name/required":     MsgPatientNameRequired,
	"age/min":                   MsgAgeInvalid,
	"age/max":                   MsgAgeInvalid,
	"appointment_date/required": MsgDateRequired,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("clinic_email", func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("forms: register clinic_email: %v", err))
	}

	return v
}

// ValidateLogin проверяет форму входа. Пробелы по краям не делают поле заполненным.
func ValidateLogin(email, password string) error {
	return check(loginForm{
		Email:    strings.TrimSpace(email),
		Password: strings.TrimSpace(password),
	})
}

// ValidateBooking проверяет форму записи на приём.
func ValidateBooking(in models.BookingRequest) error {
	return check(bookingForm{
		PatientName:     strings.TrimSpace(in.PatientName),
		Age:             in.Age,
		AppointmentDate: strings.TrimSpace(in.AppointmentDate),
	})
}

// DefaultBookingDate — дата приёма по умолчанию: сегодняшняя дата (UTC).
func DefaultBookingDate(now time.Time) string {
	return now.UTC().Format(models.DateLayout)
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("forms.check: %w", err)
	}

	out := Errors{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out.Fields[field]; seen {
			continue
		}

		msg, ok := messages[field+"/"+fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		out.Fields[field] = msg
	}

	return out
}
