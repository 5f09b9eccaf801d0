package session

import "strings"

// Представления UI.
const (
	ViewLogin        = "login"
	ViewDoctors      = "doctors"
	ViewAppointments = "appointments"
	ViewBook         = "book"
)

// Route — итог разрешения пути: либо представление, либо переадресация.
type Route struct {
	View     string `json:"view,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	DoctorID string `json:"doctor_id,omitempty"`
}

// Resolve решает, что показать по пути path в текущем состоянии сессии.
//
//	/                 doctors | login
//	/appointments     appointments | -> /
//	/book/{doctorId}  book | -> /
//	/login            login | -> / (уже вошёл)
//	прочее            -> /
func (c *Controller) Resolve(path string) Route {
	return resolve(path, c.State().Authenticated)
}

func resolve(path string, authed bool) Route {
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	switch {
	case path == "/":
		if authed {
			return Route{View: ViewDoctors}
		}
		return Route{View: ViewLogin}

	case path == "/login":
		if authed {
			return Route{Redirect: "/"}
		}
		return Route{View: ViewLogin}

	case path == "/appointments":
		if authed {
			return Route{View: ViewAppointments}
		}
		return Route{Redirect: "/"}

	case strings.HasPrefix(path, "/book/"):
		id := strings.TrimPrefix(path, "/book/")
		if id == "" || strings.Contains(id, "/") {
			return Route{Redirect: "/"}
		}
		if authed {
			return Route{View: ViewBook, DoctorID: id}
		}
		return Route{Redirect: "/"}
	}

	return Route{Redirect: "/"}
}
