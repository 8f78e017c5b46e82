package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
)

var (
	alice = domain.MustParseAddress("BYJtTQxe8F1Zi41bzWRStVPf57knpst3JqvZ7P5EMjex")
	bob   = domain.MustParseAddress("uniqobk8oGh4XBLMqM68K8M2zNu3CdYX7q5go7whQiv")
)

func TestAccrue(t *testing.T) {
	tests := []struct {
		name        string
		elapsed     int64
		rate        uint64
		want        uint64
		wantClamped bool
	}{
		{name: "one cooldown", elapsed: 60, rate: DefaultRatePerSecond, want: 1_249_980},
		{name: "two cooldowns", elapsed: 120, rate: DefaultRatePerSecond, want: 2_499_960},
		{name: "zero elapsed", elapsed: 0, rate: DefaultRatePerSecond, want: 0},
		{name: "negative elapsed", elapsed: -5, rate: DefaultRatePerSecond, want: 0},
		{name: "zero rate", elapsed: 600, rate: 0, want: 0},
		{name: "exactly max", elapsed: 1, rate: math.MaxUint64, want: math.MaxUint64},
		{name: "clamps on overflow", elapsed: math.MaxInt64, rate: DefaultRatePerSecond, want: math.MaxUint64, wantClamped: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := Accrue(tt.elapsed, tt.rate)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantClamped, clamped)
		})
	}
}

func TestUserCooldown(t *testing.T) {
	u := NewUser(domain.Address{}, alice, time.Unix(0, 0))

	assert.Equal(t, int64(1000), u.Elapsed(1000), "first claim measures from zero")

	u.RecordClaim(1000)
	assert.Equal(t, int64(1000), u.LastClaimedAt)
	assert.Equal(t, int64(59), u.Elapsed(1059))
	assert.Equal(t, int64(1), u.CooldownRemaining(1059))
	assert.Zero(t, u.CooldownRemaining(1060))
	assert.Equal(t, int64(1060), u.NextEligibleAt())

	assert.Zero(t, u.Elapsed(900), "clock behind last claim clamps to zero")

	u.RecordClaim(900)
	assert.Equal(t, int64(1000), u.LastClaimedAt, "last claim never decreases")
}

func TestConfigExempt(t *testing.T) {
	cfg := &Config{}

	t.Run("sentinel exempts nobody", func(t *testing.T) {
		assert.False(t, cfg.IsExempt(alice))
		assert.False(t, cfg.IsExempt(domain.Address{}))
	})

	t.Run("anyone may set while unset", func(t *testing.T) {
		assert.True(t, cfg.CanRotateExempt(bob))
	})

	t.Run("only holder may rotate once set", func(t *testing.T) {
		cfg.RotateExempt(alice, time.Unix(10, 0))
		assert.True(t, cfg.IsExempt(alice))
		assert.False(t, cfg.CanRotateExempt(bob))
		assert.True(t, cfg.CanRotateExempt(alice))
	})

	t.Run("rotating back to sentinel reopens", func(t *testing.T) {
		cfg.RotateExempt(domain.Zero, time.Unix(20, 0))
		assert.False(t, cfg.IsExempt(alice))
		assert.True(t, cfg.CanRotateExempt(bob))
	})
}

func TestReasonErrors(t *testing.T) {
	wrapped := dErrors.Wrap(&CooldownError{Remaining: 12}, dErrors.CodeRateLimited, "cooldown")

	assert.True(t, errors.Is(wrapped, ErrCooldownNotMet))
	assert.False(t, errors.Is(wrapped, ErrNotRegistered))

	var ce *CooldownError
	assert.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, 12*time.Second, ce.RetryAfter())
	assert.Equal(t, "cooldown_not_met", ce.Reason())

	assert.True(t, errors.Is(dErrors.Wrap(ErrNotRegistered, dErrors.CodeForbidden, "x"), ErrNotRegistered))
}
