package auth

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/suite"

	"drip/pkg/domain"
	"drip/pkg/requestcontext"
)

type AuthMiddlewareSuite struct {
	suite.Suite
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
	now  time.Time
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	s.pub, s.priv = pub, priv
	s.now = time.Unix(1_700_000_000, 0)
}

func (s *AuthMiddlewareSuite) serve(r *http.Request, opts ...Option) (*httptest.ResponseRecorder, domain.Address, []byte) {
	var caller domain.Address
	var body []byte
	h := RequireSignature(nil, opts...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = requestcontext.Caller(r.Context())
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	r = r.WithContext(requestcontext.WithTime(r.Context(), s.now))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w, caller, body
}

func (s *AuthMiddlewareSuite) signed(body string, at time.Time) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/v1/claims", bytes.NewBufferString(body))
	s.Require().NoError(Sign(r, s.priv, at))
	return r
}

func (s *AuthMiddlewareSuite) TestValidSignature() {
	w, caller, body := s.serve(s.signed(`{"a":1}`, s.now))

	s.Equal(http.StatusNoContent, w.Code)
	s.Equal(base58.Encode(s.pub), caller.String())
	s.Equal(`{"a":1}`, string(body), "body must be restored for the next handler")
}

func (s *AuthMiddlewareSuite) TestRejections() {
	s.Run("missing headers", func() {
		r := httptest.NewRequest(http.MethodPost, "/v1/claims", nil)
		w, _, _ := s.serve(r)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("tampered body", func() {
		r := s.signed(`{"a":1}`, s.now)
		r.Body = io.NopCloser(bytes.NewBufferString(`{"a":2}`))
		w, _, _ := s.serve(r)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("tampered path", func() {
		r := s.signed(`{}`, s.now)
		r.URL.Path = "/v1/users"
		w, _, _ := s.serve(r)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("stale timestamp", func() {
		w, _, _ := s.serve(s.signed(`{}`, s.now.Add(-DefaultMaxSkew-time.Second)))
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("future timestamp within custom skew", func() {
		w, _, _ := s.serve(s.signed(`{}`, s.now.Add(30*time.Second)), WithMaxSkew(time.Minute))
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("malformed signature", func() {
		r := s.signed(`{}`, s.now)
		r.Header.Set(HeaderSignature, "abc")
		w, _, _ := s.serve(r)
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

type fakeReplayGuard struct{ seen map[string]bool }

func (g *fakeReplayGuard) MarkSeen(_ context.Context, sig string, _ time.Duration) (bool, error) {
	before := g.seen[sig]
	g.seen[sig] = true
	return before, nil
}

func (s *AuthMiddlewareSuite) TestReplayGuard() {
	guard := &fakeReplayGuard{seen: map[string]bool{}}
	r1 := s.signed(`{}`, s.now)
	r2 := r1.Clone(context.Background())
	r2.Body = io.NopCloser(bytes.NewBufferString(`{}`))

	w, _, _ := s.serve(r1, WithReplayGuard(guard))
	s.Equal(http.StatusNoContent, w.Code)

	w, _, _ = s.serve(r2, WithReplayGuard(guard))
	s.Equal(http.StatusUnauthorized, w.Code)
}
