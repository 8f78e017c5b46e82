// Package request assigns a correlation ID to every incoming request.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"drip/pkg/requestcontext"
)

// HeaderRequestID carries the correlation ID in both directions.
const HeaderRequestID = "X-Request-ID"

const maxInboundIDLen = 128

// RequestID reuses a caller-supplied X-Request-ID when it is reasonably sized
// and otherwise mints a new UUID. The ID is echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxInboundIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
