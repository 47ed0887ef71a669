package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"credentry/pkg/requestcontext"
)

// Header carries the correlation ID in and out.
const Header = "X-Request-ID"

// Middleware assigns a correlation ID to every request, honoring one the
// caller supplied, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
