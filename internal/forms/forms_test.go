package forms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/clinicare/internal/models"
)

func TestValidateLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		password string
		want     map[string]string
	}{
		{name: "ok", email: "alice@clinic.org", password: "secret"},
		{name: "ok upper case", email: "ALICE@CLINIC.ORG", password: "secret"},
		{name: "ok padded", email: "  alice@clinic.org ", password: "secret"},
		{
			name:  "empty",
			email: "", password: "",
			want: map[string]string{"email": MsgEmailRequired, "password": MsgPasswordRequired},
		},
		{
			name:  "blank password",
			email: "alice@clinic.org", password: "   ",
			want: map[string]string{"password": MsgPasswordRequired},
		},
		{
			name:  "not an email",
			email: "not-an-email", password: "secret",
			want: map[string]string{"email": MsgEmailInvalid},
		},
		{
			name:  "short tld",
			email: "alice@clinic.o", password: "secret",
			want: map[string]string{"email": MsgEmailInvalid},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateLogin(tt.email, tt.password)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}

			fe, ok := AsErrors(err)
			require.True(t, ok)
			require.Equal(t, tt.want, fe.Fields)
			require.Empty(t, fe.General)
		})
	}
}

func TestValidateBooking(t *testing.T) {
	t.Parallel()

	ok := models.BookingRequest{PatientName: "Bob", Age: 40, AppointmentDate: "2026-05-01", DoctorID: "3"}
	require.NoError(t, ValidateBooking(ok))

	tests := []struct {
		name   string
		mutate func(*models.BookingRequest)
		want   map[string]string
	}{
		{"no name", func(b *models.BookingRequest) { b.PatientName = " " }, map[string]string{"patient_name": MsgPatientNameRequired}},
		{"age zero", func(b *models.BookingRequest) { b.Age = 0 }, map[string]string{"age": MsgAgeInvalid}},
		{"age too big", func(b *models.BookingRequest) { b.Age = 151 }, map[string]string{"age": MsgAgeInvalid}},
		{"no date", func(b *models.BookingRequest) { b.AppointmentDate = "" }, map[string]string{"appointment_date": MsgDateRequired}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := ok
			tt.mutate(&in)

			fe, isForm := AsErrors(ValidateBooking(in))
			require.True(t, isForm)
			require.Equal(t, tt.want, fe.Fields)
		})
	}

	in := ok
	in.Age = 150
	require.NoError(t, ValidateBooking(in))
}

func TestDefaultBookingDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))
	require.Equal(t, "2026-03-11", DefaultBookingDate(now))
}

func TestErrors_Error(t *testing.T) {
	t.Parallel()

	require.Equal(t, "boom", Errors{General: "boom"}.Error())
	require.Equal(t, "age: bad; email: worse", Errors{Fields: map[string]string{"email": "worse", "age": "bad"}}.Error())
	require.True(t, Errors{}.Empty())
}

func TestFromServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want Errors
	}{
		{
			name: "field arrays",
			body: `{"patient_name":["This field may not be blank.","second"],"age":["Ensure this value is less than or equal to 150."]}`,
			want: Errors{Fields: map[string]string{
				"patient_name": "This field may not be blank.",
				"age":          "Ensure this value is less than or equal to 150.",
			}},
		},
		{
			name: "field string",
			body: `{"appointment_date":"Date has wrong format."}`,
			want: Errors{Fields: map[string]string{"appointment_date": "Date has wrong format."}},
		},
		{name: "message", body: `{"message":"Doctor is busy"}`, want: Errors{General: "Doctor is busy"}},
		{name: "error", body: `{"error":"Slot taken","detail":"ignored"}`, want: Errors{General: "Slot taken"}},
		{name: "array body", body: `["nope"]`, want: Errors{General: "fallback"}},
		{name: "empty object", body: `{}`, want: Errors{General: "fallback"}},
		{name: "empty body", body: ``, want: Errors{General: "fallback"}},
		{name: "html", body: `<html>502</html>`, want: Errors{General: "fallback"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, FromServer([]byte(tt.body), "fallback"))
		})
	}
}

func TestGeneralMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "No active account found", GeneralMessage([]byte(`{"detail":"No active account found"}`), MsgLoginFailed))
	require.Equal(t, "bad", GeneralMessage([]byte(`{"message":"bad","detail":"x"}`), MsgLoginFailed))
	require.Equal(t, MsgLoginFailed, GeneralMessage([]byte(`{"message":""}`), MsgLoginFailed))
	require.Equal(t, MsgLoginFailed, GeneralMessage(nil, MsgLoginFailed))
}
