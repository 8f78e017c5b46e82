// Package jwtgateway verifies gateway tokens issued as EdDSA-signed JWTs.
//
// A gatekeeper network is an ed25519 key: its base58 address is the public key
// and the token issuer. A token vouches for the identity in its subject while
// it is unexpired and its state is active.
package jwtgateway

import (
	"context"
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/requestcontext"
)

// StateActive is the only token state that passes verification.
const StateActive = "ACTIVE"

// DefaultLeeway tolerates small clock drift between issuer and faucet.
const DefaultLeeway = 30 * time.Second

// Claims are the gateway token claims.
type Claims struct {
	State string `json:"state"`
	jwt.RegisteredClaims
}

// Verifier checks gateway tokens against the network key.
type Verifier struct {
	leeway time.Duration
}

type Option func(*Verifier)

func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) {
		v.leeway = d
	}
}

func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{leeway: DefaultLeeway}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify implements the faucet attestation port. The token must be signed by
// network, issued by network, name subject and be active at request time.
// extra is not used by gateway tokens.
func (v *Verifier) Verify(ctx context.Context, proof string, subject, network domain.Address, _ []byte) error {
	if proof == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "gateway token is required")
	}
	now := requestcontext.Now(ctx)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(proof, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return ed25519.PublicKey(network.Bytes()), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(network.String()),
		jwt.WithSubject(subject.String()),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeUnauthorized, "gateway token has expired")
		}
		return dErrors.New(dErrors.CodeUnauthorized, "invalid gateway token")
	}
	if !parsed.Valid {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid gateway token")
	}
	if claims.State != StateActive {
		return dErrors.New(dErrors.CodeUnauthorized, "gateway token is not active")
	}
	return nil
}

// Issue signs a gateway token for subject with the network's private key.
// dripctl uses it to mint development tokens.
func Issue(networkKey ed25519.PrivateKey, subject domain.Address, issuedAt time.Time, expiresIn time.Duration) (string, error) {
	pub, ok := networkKey.Public().(ed25519.PublicKey)
	if !ok {
		return "", errors.New("network key has no ed25519 public key")
	}
	network, err := domain.AddressFromBytes(pub)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, Claims{
		State: StateActive,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    network.String(),
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(expiresIn)),
		},
	})
	return token.SignedString(networkKey)
}
