package testutil

import (
	"net/http"

	"drip/pkg/domain"
	"drip/pkg/requestcontext"
)

// WithCaller adds a verified identity to the request context.
// This simulates what the signature middleware does for signed requests.
func WithCaller(req *http.Request, caller domain.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}
