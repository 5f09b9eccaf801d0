// interceptors предоставляет набор http.RoundTripper-обёрток для исходящих
// запросов к API клиники.
package interceptors

import "net/http"

// Interceptor оборачивает транспорт.
type Interceptor func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc — адаптер функции к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain применяет интерсепторы к транспорту в порядке перечисления:
// первый в списке выполняется первым.
func Chain(rt http.RoundTripper, ics ...Interceptor) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}

	for i := len(ics) - 1; i >= 0; i-- {
		rt = ics[i](rt)
	}

	return rt
}
