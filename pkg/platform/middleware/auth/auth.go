// Package auth authenticates requests signed with the caller's ed25519 key.
//
// A signed request carries three headers:
//
//	X-Drip-Identity:  base58 public key of the signer
//	X-Drip-Timestamp: unix seconds at signing time
//	X-Drip-Signature: base58 ed25519 signature over Digest(method, path, timestamp, body)
//
// The signer becomes the request's caller identity (requestcontext.Caller).
package auth

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/sha3"

	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/httputil"
	"drip/pkg/requestcontext"
)

const (
	HeaderIdentity  = "X-Drip-Identity"
	HeaderTimestamp = "X-Drip-Timestamp"
	HeaderSignature = "X-Drip-Signature"

	// DefaultMaxSkew bounds how far a signing timestamp may drift from request time.
	DefaultMaxSkew = 5 * time.Minute

	maxSignedBody = httputil.MaxBodyBytes
)

// ReplayGuard rejects signatures that were already presented inside the skew window.
type ReplayGuard interface {
	// MarkSeen records sig and reports whether it had been seen before.
	MarkSeen(ctx context.Context, sig string, ttl time.Duration) (bool, error)
}

// Digest is the message a client signs.
func Digest(method, path, timestamp string, body []byte) [32]byte {
	h := sha3.New256()
	_, _ = io.WriteString(h, method)
	_, _ = h.Write([]byte{'\n'})
	_, _ = io.WriteString(h, path)
	_, _ = h.Write([]byte{'\n'})
	_, _ = io.WriteString(h, timestamp)
	_, _ = h.Write([]byte{'\n'})
	_, _ = h.Write(body)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Sign attaches the signature headers to req. The body, when present, is
// buffered and restored so the request can still be sent.
func Sign(req *http.Request, key ed25519.PrivateKey, now time.Time) error {
	body, err := readAndRestore(req)
	if err != nil {
		return err
	}
	ts := strconv.FormatInt(now.Unix(), 10)
	digest := Digest(req.Method, req.URL.Path, ts, body)
	sig := ed25519.Sign(key, digest[:])

	pub, ok := key.Public().(ed25519.PublicKey)
	if !ok {
		return fmt.Errorf("unexpected public key type %T", key.Public())
	}
	req.Header.Set(HeaderIdentity, base58.Encode(pub))
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderSignature, base58.Encode(sig))
	return nil
}

// Option configures RequireSignature.
type Option func(*verifier)

// WithMaxSkew overrides DefaultMaxSkew.
func WithMaxSkew(d time.Duration) Option {
	return func(v *verifier) { v.maxSkew = d }
}

// WithReplayGuard enables replay rejection.
func WithReplayGuard(g ReplayGuard) Option {
	return func(v *verifier) { v.replay = g }
}

// WithReplayTTL sets how long a presented signature is remembered. It never
// drops below twice the skew, or a replay could outlive its record.
func WithReplayTTL(d time.Duration) Option {
	return func(v *verifier) { v.replayTTL = d }
}

type verifier struct {
	logger    *slog.Logger
	maxSkew   time.Duration
	replay    ReplayGuard
	replayTTL time.Duration
}

// RequireSignature rejects requests without a valid signature and injects the
// signer as the caller identity otherwise.
func RequireSignature(logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	v := &verifier{logger: logger, maxSkew: DefaultMaxSkew}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	v.replayTTL = max(v.replayTTL, 2*v.maxSkew)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			signer, err := v.verify(ctx, r)
			if err != nil {
				v.logger.WarnContext(ctx, "unauthorized access - invalid request signature",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, signer)))
		})
	}
}

func (v *verifier) verify(ctx context.Context, r *http.Request) (domain.Address, error) {
	identity := r.Header.Get(HeaderIdentity)
	tsRaw := r.Header.Get(HeaderTimestamp)
	sigRaw := r.Header.Get(HeaderSignature)
	if identity == "" || tsRaw == "" || sigRaw == "" {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthorized, "missing request signature")
	}

	signer, err := domain.ParseAddress(identity)
	if err != nil {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthorized, "invalid signer identity")
	}

	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthorized, "invalid signature timestamp")
	}
	skew := requestcontext.Now(ctx).Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.maxSkew {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthorized, "signature timestamp outside allowed skew")
	}

	sig := base58.Decode(sigRaw)
	if len(sig) != ed25519.SignatureSize {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthorized, "malformed signature")
	}

	body, err := readAndRestore(r)
	if err != nil {
		return domain.Address{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable request body")
	}
	digest := Digest(r.Method, r.URL.Path, tsRaw, body)
	if !ed25519.Verify(ed25519.PublicKey(signer.Bytes()), digest[:], sig) {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthorized, "signature verification failed")
	}

	if v.replay != nil {
		seen, err := v.replay.MarkSeen(ctx, sigRaw, v.replayTTL)
		if err != nil {
			return domain.Address{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "replay check unavailable")
		}
		if seen {
			return domain.Address{}, dErrors.New(dErrors.CodeUnauthorized, "signature already used")
		}
	}
	return signer, nil
}

func readAndRestore(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBody+1))
	_ = r.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(body) > maxSignedBody {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxSignedBody)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
