package handlers

import (
	"net/http"
	"time"

	"github.com/pribylovaa/clinicare/internal/models"
	"github.com/pribylovaa/clinicare/internal/session"
	"github.com/pribylovaa/clinicare/internal/storage"
)

type sessionView struct {
	Authenticated   bool        `json:"authenticated"`
	User            models.User `json:"user,omitempty"`
	AccessExpiresAt *time.Time  `json:"access_expires_at,omitempty"`
	Redirect        string      `json:"redirect,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) sessionView(r *http.Request, st session.State) sessionView {
	out := sessionView{Authenticated: st.Authenticated, User: st.User, Redirect: st.Redirect}
	if !st.Authenticated {
		return out
	}

	if access, err := h.Store.Get(r.Context(), storage.KeyAccess); err == nil {
		if exp, ok := models.TokenExpiresAt(access); ok {
			out.AccessExpiresAt = &exp
		}
	}

	return out
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionView(r, h.Session.State()))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Session.Login(r.Context(), in.Email, in.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.sessionView(r, h.Session.State()))
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Logout(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ResolveRoute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.Resolve(r.URL.Query().Get("path")))
}
