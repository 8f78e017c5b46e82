// Package redisgateway verifies gateway tokens whose state is mirrored into
// Redis hashes by an external issuer.
//
// The proof is the gateway token address. Its record lives at prefix+proof
// with fields owner, network, state and expires_at (unix seconds, 0 for none).
package redisgateway

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/requestcontext"
)

const (
	// DefaultPrefix prefixes every gateway token key.
	DefaultPrefix = "drip:gateway:"
	// StateActive is the only state that passes.
	StateActive = "ACTIVE"
)

// Record is a gateway token as stored in Redis.
type Record struct {
	Owner     domain.Address
	Network   domain.Address
	State     string
	ExpiresAt int64
}

type Verifier struct {
	client *redis.Client
	prefix string
}

type Option func(*Verifier)

func WithPrefix(prefix string) Option {
	return func(v *Verifier) {
		v.prefix = prefix
	}
}

func NewVerifier(client *redis.Client, opts ...Option) *Verifier {
	v := &Verifier{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify implements the faucet attestation port.
func (v *Verifier) Verify(ctx context.Context, proof string, subject, network domain.Address, _ []byte) error {
	token, err := domain.ParseAddress(proof)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "gateway token address is malformed")
	}
	rec, err := v.Load(ctx, token)
	if err != nil {
		return err
	}
	if rec.Owner != subject {
		return dErrors.New(dErrors.CodeUnauthorized, "gateway token belongs to another identity")
	}
	if rec.Network != network {
		return dErrors.New(dErrors.CodeUnauthorized, "gateway token was issued under another network")
	}
	if rec.State != StateActive {
		return dErrors.New(dErrors.CodeUnauthorized, "gateway token is not active")
	}
	if rec.ExpiresAt != 0 && requestcontext.Now(ctx).Unix() >= rec.ExpiresAt {
		return dErrors.New(dErrors.CodeUnauthorized, "gateway token has expired")
	}
	return nil
}

// Load reads the record at token.
func (v *Verifier) Load(ctx context.Context, token domain.Address) (*Record, error) {
	fields, err := v.client.HGetAll(ctx, v.prefix+token.String()).Result()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "gateway token lookup failed")
	}
	if len(fields) == 0 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "gateway token not found")
	}
	return decode(fields)
}

// Store writes rec at token. Used by the issuer tooling and tests.
func (v *Verifier) Store(ctx context.Context, token domain.Address, rec Record) error {
	return v.client.HSet(ctx, v.prefix+token.String(), encode(rec)).Err()
}

func encode(rec Record) map[string]any {
	return map[string]any{
		"owner":      rec.Owner.String(),
		"network":    rec.Network.String(),
		"state":      rec.State,
		"expires_at": strconv.FormatInt(rec.ExpiresAt, 10),
	}
}

func decode(fields map[string]string) (*Record, error) {
	owner, err := domain.ParseAddress(fields["owner"])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "gateway token owner is malformed")
	}
	network, err := domain.ParseAddress(fields["network"])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "gateway token network is malformed")
	}
	var expires int64
	if raw := fields["expires_at"]; raw != "" {
		expires, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "gateway token expiry is malformed")
		}
	}
	return &Record{Owner: owner, Network: network, State: fields["state"], ExpiresAt: expires}, nil
}
