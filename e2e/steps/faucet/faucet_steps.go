package faucet

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"drip/internal/client"
	"drip/pkg/domain"
)

// TestContext lists what the faucet steps need from the shared scenario state.
type TestContext interface {
	Client() *client.Client
	NewIdentity() (domain.Address, error)
	Identity() (domain.Address, error)
	IssueProof(subject domain.Address) error
	Proof() string
	Record(result any, err error)
	LastError() error
	LastResult() any
	Context() context.Context
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &faucetSteps{tc: tc}

	ctx.Step(`^the faucet is initialized$`, steps.faucetInitialized)
	ctx.Step(`^a fresh identity$`, steps.freshIdentity)
	ctx.Step(`^a gateway token issued to that identity$`, steps.tokenForIdentity)
	ctx.Step(`^a gateway token issued to another identity$`, steps.tokenForOther)
	ctx.Step(`^the identity registers$`, steps.register)
	ctx.Step(`^the identity claims$`, steps.claim)
	ctx.Step(`^I look up the identity$`, steps.lookup)
	ctx.Step(`^the request succeeds$`, steps.requestSucceeds)
	ctx.Step(`^the request fails with status (\d+)$`, steps.failsWithStatus)
	ctx.Step(`^the request fails with status (\d+) and reason "([^"]*)"$`, steps.failsWithReason)
	ctx.Step(`^the response carries a Retry-After header$`, steps.hasRetryAfter)
	ctx.Step(`^the identity is registered$`, steps.identityRegistered)
}

type faucetSteps struct {
	tc TestContext
}

func (s *faucetSteps) faucetInitialized() error {
	cfg, err := s.tc.Client().Config(s.tc.Context())
	if err != nil {
		return fmt.Errorf("faucet config: %w", err)
	}
	if cfg.TokenMint == "" {
		return errors.New("faucet has no token mint")
	}
	return nil
}

func (s *faucetSteps) freshIdentity() error {
	_, err := s.tc.NewIdentity()
	return err
}

func (s *faucetSteps) tokenForIdentity() error {
	identity, err := s.tc.Identity()
	if err != nil {
		return err
	}
	return s.tc.IssueProof(identity)
}

func (s *faucetSteps) tokenForOther() error {
	key, err := client.GenerateKey()
	if err != nil {
		return err
	}
	other, err := client.New("", client.WithKey(key)).Identity()
	if err != nil {
		return err
	}
	return s.tc.IssueProof(other)
}

func (s *faucetSteps) register() error {
	s.tc.Record(s.tc.Client().Register(s.tc.Context(), s.tc.Proof()))
	return nil
}

func (s *faucetSteps) claim() error {
	s.tc.Record(s.tc.Client().Claim(s.tc.Context(), s.tc.Proof(), ""))
	return nil
}

func (s *faucetSteps) lookup() error {
	identity, err := s.tc.Identity()
	if err != nil {
		return err
	}
	s.tc.Record(s.tc.Client().User(s.tc.Context(), identity))
	return nil
}

func (s *faucetSteps) requestSucceeds() error {
	if err := s.tc.LastError(); err != nil {
		return fmt.Errorf("expected success, got %w", err)
	}
	return nil
}

func (s *faucetSteps) apiError() (*client.APIError, error) {
	var apiErr *client.APIError
	if !errors.As(s.tc.LastError(), &apiErr) {
		return nil, fmt.Errorf("expected an API error, got %v", s.tc.LastError())
	}
	return apiErr, nil
}

func (s *faucetSteps) failsWithStatus(status int) error {
	apiErr, err := s.apiError()
	if err != nil {
		return err
	}
	if apiErr.Status != status {
		return fmt.Errorf("expected status %d, got %d", status, apiErr.Status)
	}
	return nil
}

func (s *faucetSteps) failsWithReason(status int, reason string) error {
	if err := s.failsWithStatus(status); err != nil {
		return err
	}
	apiErr, _ := s.apiError()
	if apiErr.Reason != reason {
		return fmt.Errorf("expected reason %q, got %q", reason, apiErr.Reason)
	}
	return nil
}

func (s *faucetSteps) hasRetryAfter() error {
	apiErr, err := s.apiError()
	if err != nil {
		return err
	}
	if apiErr.RetryAfter == "" {
		return errors.New("Retry-After header missing")
	}
	return nil
}

func (s *faucetSteps) identityRegistered() error {
	identity, err := s.tc.Identity()
	if err != nil {
		return err
	}
	status, err := s.tc.Client().User(s.tc.Context(), identity)
	if err != nil {
		return err
	}
	if status.Identity != identity.String() {
		return fmt.Errorf("status is for %s, want %s", status.Identity, identity)
	}
	return nil
}
