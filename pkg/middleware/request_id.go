package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/picalc/pi-calculator/pkg/requestid"
)

// RequestID takes the request id from the X-Request-Id header, or the one chi
// generated, or a fresh uuid, stores it in the request context and echoes it
// back in the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestid.RequestIDHeader)
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = requestid.Generate()
		}

		w.Header().Set(requestid.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(requestid.ToContext(r.Context(), requestID)))
	})
}
