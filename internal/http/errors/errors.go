// errors стандартизирует ответы об ошибках локального HTTP API.
// На вход он принимает ошибку клиента клиники, формы или сессии,
// а на выход даёт:
//   - HTTP-статус (статус апстрима передаётся как есть);
//   - короткий стабильный code и безопасное message;
//   - ошибки полей формы и переадресацию UI, если они есть.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/pribylovaa/clinicare/internal/clients"
	"github.com/pribylovaa/clinicare/internal/forms"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// Коды ошибок для UI.
const (
	CodeInvalidArgument  = "invalid_argument"
	CodeUnauthenticated  = "unauthenticated"
	CodePermissionDenied = "permission_denied"
	CodeNotFound         = "not_found"
	CodeConflict         = "already_exists"
	CodeRateLimited      = "resource_exhausted"
	CodeUpstreamRejected = "upstream_rejected"
	CodeUpstreamError    = "upstream_error"
	CodeBadGateway       = "bad_gateway"
	CodeDeadline         = "deadline_exceeded"
	CodeCanceled         = "canceled"
	CodeInternal         = "internal"
)

// APIError — единый формат для UI.
// Fields — ошибки полей формы (ключ — имя поля на проводе).
// Redirect — куда увести UI (например, "/" при потере сессии).
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Redirect  string            `json:"redirect,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
//
// Поведение:
//   - nil — программная ошибка вызова: 500/internal;
//   - истёкший контекст — 504, отменённый — 499;
//   - нет refresh-токена — 401 с переадресацией на "/";
//   - сессию сменили во время обновления токена — 401;
//   - *clients.StatusError — статус апстрима как есть;
//   - сетевой сбой до апстрима — 502;
//   - только ошибки формы — 400;
//   - прочее — 500/internal без деталей.
//
// Если в цепочке есть forms.Errors, их поля и общее сообщение попадают в ответ.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)
	resp := ErrorResponse{Error: APIError{Code: code, Message: msg}}

	if err == nil {
		return status, resp
	}

	if errors.Is(err, clients.ErrNoRefreshToken) {
		resp.Error.Redirect = clients.RouteEntry
	}

	if fe, ok := forms.AsErrors(err); ok {
		resp.Error.Fields = fe.Fields
		if fe.General != "" {
			resp.Error.Message = fe.General
		}
	}

	return status, resp
}

// WriteError — хелпер для HTTP-хендлеров.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)
	WriteResponse(w, r, status, resp)
}

// WriteResponse пишет готовый ответ об ошибке, добавляя request_id из заголовка.
func WriteResponse(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func classify(err error) (int, string, string) {
	if err == nil {
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeDeadline, "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, CodeCanceled, "canceled"
	case errors.Is(err, clients.ErrNoRefreshToken):
		return http.StatusUnauthorized, CodeUnauthenticated, "session expired"
	case errors.Is(err, clients.ErrCredentialsChanged):
		return http.StatusUnauthorized, CodeUnauthenticated, "session changed"
	}

	if status := clients.StatusCode(err); status != 0 {
		return fromUpstream(status)
	}

	if isTransport(err) {
		return http.StatusBadGateway, CodeBadGateway, "clinic api unavailable"
	}

	if _, ok := forms.AsErrors(err); ok {
		return http.StatusBadRequest, CodeInvalidArgument, "invalid argument"
	}

	return http.StatusInternalServerError, CodeInternal, "internal error"
}

// fromUpstream — статус апстрима -> код/сообщение для UI. Статус не меняется.
func fromUpstream(status int) (int, string, string) {
	switch status {
	case http.StatusBadRequest:
		return status, CodeInvalidArgument, "invalid argument"
	case http.StatusUnauthorized:
		return status, CodeUnauthenticated, "unauthenticated"
	case http.StatusForbidden:
		return status, CodePermissionDenied, "permission denied"
	case http.StatusNotFound:
		return status, CodeNotFound, "not found"
	case http.StatusConflict:
		return status, CodeConflict, "already exists"
	case http.StatusTooManyRequests:
		return status, CodeRateLimited, "resource exhausted"
	}

	if status >= http.StatusInternalServerError {
		return status, CodeUpstreamError, "clinic api error"
	}

	return status, CodeUpstreamRejected, "request rejected by clinic api"
}

func isTransport(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return true
	}

	var nerr net.Error
	return errors.As(err, &nerr)
}
