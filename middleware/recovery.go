package middleware

import (
	"log"
	"net/http"
)

// RecoveryMiddleware turns handler panics into 500 responses. The
// request id is already on the response header by the time we run.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC recovered [%s] %s %s: %v",
					w.Header().Get(requestIDHeader), r.Method, r.URL.Path, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
