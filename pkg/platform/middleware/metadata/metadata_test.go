package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"drip/pkg/requestcontext"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted bool
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "first forwarded hop wins", trusted: true, headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, remote: "10.0.0.2:443", want: "203.0.113.9"},
		{name: "real ip header", trusted: true, headers: map[string]string{"X-Real-IP": " 198.51.100.4 "}, remote: "10.0.0.2:443", want: "198.51.100.4"},
		{name: "empty forwarded entry falls through", trusted: true, headers: map[string]string{"X-Forwarded-For": " ,10.0.0.1"}, remote: "10.0.0.2:443", want: "10.0.0.2"},
		{name: "untrusted headers ignored", headers: map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "198.51.100.4"}, remote: "10.0.0.2:443", want: "10.0.0.2"},
		{name: "remote addr v4", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "remote addr v6", remote: "[::1]:5555", want: "::1"},
		{name: "remote addr without port", remote: "192.0.2.1", want: "192.0.2.1"},
		{name: "no information", remote: "", want: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r, tt.trusted))
		})
	}
}

func TestClientMetadata(t *testing.T) {
	var ip, ua string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	r.Header.Set("User-Agent", "dripctl/1")

	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.7", ip)
	assert.Equal(t, "dripctl/1", ua)
}

func TestMiddlewareTrustsForwardedWhenEnabled(t *testing.T) {
	var ip string
	h := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.50")

	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "203.0.113.50", ip)
}
