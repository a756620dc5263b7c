// Package http carries the caller's preferred cultures from an HTTP request into the
// request context so that Manager.Translate can pick a resource file.
package http

import (
	"net/http"

	"github.com/pitabwire/langstore/localization"
)

// LanguageHTTPMiddleware stores the cultures named by the "lang" form value and the
// Accept-Language header in the request context. Requests naming none pass through untouched.
func LanguageHTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cultures := localization.ExtractLanguageFromHTTPRequest(r)
		if len(cultures) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(localization.ToContext(r.Context(), cultures)))
	})
}
