package models

import (
	"fmt"
	"time"
)

// ReasonCode is a stable, machine-readable failure reason. It satisfies error
// so it can sit at the bottom of a domain-error chain and be matched with errors.Is.
type ReasonCode string

func (r ReasonCode) Error() string  { return string(r) }
func (r ReasonCode) Reason() string { return string(r) }

const (
	ErrAttestationCheckFailed ReasonCode = "attestation_check_failed"
	ErrNotRegistered          ReasonCode = "not_registered"
	ErrNotExemptSigner        ReasonCode = "not_exempt_signer"
	ErrCooldownNotMet         ReasonCode = "cooldown_not_met"
	ErrAlreadyRegistered      ReasonCode = "already_registered"
	ErrConfigMismatch         ReasonCode = "config_mismatch"
	ErrNotInitialized         ReasonCode = "not_initialized"
	ErrAlreadyInitialized     ReasonCode = "already_initialized"
)

// CooldownError reports a claim made before the cooldown elapsed.
type CooldownError struct {
	Remaining int64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: retry in %ds", ErrCooldownNotMet, e.Remaining)
}

func (e *CooldownError) Reason() string { return string(ErrCooldownNotMet) }

// RetryAfter is the wait until the next claim can pass the cooldown.
func (e *CooldownError) RetryAfter() time.Duration {
	return time.Duration(e.Remaining) * time.Second
}

// Is matches ErrCooldownNotMet.
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownNotMet
}
