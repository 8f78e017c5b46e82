package domain

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "drip/pkg/domain-errors"
)

func TestParseAddress(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-base58 characters", func(t *testing.T) {
		_, err := ParseAddress("0OIl-not-base58")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseAddress("3mJr7AoUXx2Wqd")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("sentinel round-trips as all ones", func(t *testing.T) {
		assert.Equal(t, strings.Repeat("1", 32), Zero.String())
		parsed, err := ParseAddress(Zero.String())
		require.NoError(t, err)
		assert.True(t, parsed.IsZero())
	})

	t.Run("public keys round-trip", func(t *testing.T) {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		addr, err := AddressFromBytes(pub)
		require.NoError(t, err)

		parsed, err := ParseAddress(addr.String())
		require.NoError(t, err)
		assert.Equal(t, addr, parsed)
		assert.False(t, parsed.IsZero())
	})
}

func TestAddressJSON(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	addr, err := AddressFromBytes(pub)
	require.NoError(t, err)

	type payload struct {
		Who Address `json:"who"`
	}
	raw, err := json.Marshal(payload{Who: addr})
	require.NoError(t, err)
	assert.JSONEq(t, `{"who":"`+addr.String()+`"}`, string(raw))

	var decoded payload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, addr, decoded.Who)

	err = json.Unmarshal([]byte(`{"who":"nope"}`), &decoded)
	require.Error(t, err)
}

func TestAddressFromBytes(t *testing.T) {
	_, err := AddressFromBytes(make([]byte, 31))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	b := make([]byte, 32)
	b[0] = 7
	addr, err := AddressFromBytes(b)
	require.NoError(t, err)
	b[0] = 9
	assert.Equal(t, byte(7), addr[0], "address must not alias the input slice")
	out := addr.Bytes()
	out[0] = 1
	assert.Equal(t, byte(7), addr[0], "Bytes must return a copy")
}
