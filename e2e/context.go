package e2e

import (
	"context"
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/cucumber/godog"

	"drip/internal/attestation/jwtgateway"
	"drip/internal/client"
	"drip/pkg/domain"
)

// TestContext holds per-scenario state shared by the step packages.
type TestContext struct {
	server     string
	networkKey ed25519.PrivateKey

	key     ed25519.PrivateKey
	proof   string
	lastErr error
	last    any
}

func NewTestContext(server string, networkKey ed25519.PrivateKey) *TestContext {
	return &TestContext{server: server, networkKey: networkKey}
}

// Reset clears scenario state.
func (tc *TestContext) Reset() {
	tc.key = nil
	tc.proof = ""
	tc.lastErr = nil
	tc.last = nil
}

func (tc *TestContext) Client() *client.Client {
	if tc.key == nil {
		return client.New(tc.server)
	}
	return client.New(tc.server, client.WithKey(tc.key))
}

func (tc *TestContext) NewIdentity() (domain.Address, error) {
	key, err := client.GenerateKey()
	if err != nil {
		return domain.Address{}, err
	}
	tc.key = key
	return tc.Client().Identity()
}

func (tc *TestContext) Identity() (domain.Address, error) {
	if tc.key == nil {
		return domain.Address{}, errors.New("no identity in this scenario")
	}
	return tc.Client().Identity()
}

// IssueProof signs a gateway token for subject with the configured network key.
func (tc *TestContext) IssueProof(subject domain.Address) error {
	if tc.networkKey == nil {
		return godog.ErrPending
	}
	token, err := jwtgateway.Issue(tc.networkKey, subject, time.Now(), time.Hour)
	if err != nil {
		return err
	}
	tc.proof = token
	return nil
}

func (tc *TestContext) Proof() string { return tc.proof }

// Record stores the outcome of the last call.
func (tc *TestContext) Record(result any, err error) {
	tc.last = result
	tc.lastErr = err
}

func (tc *TestContext) LastError() error { return tc.lastErr }

func (tc *TestContext) LastResult() any { return tc.last }

func (tc *TestContext) Context() context.Context { return context.Background() }
