package domain

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "drip/pkg/domain-errors"
)

var testProgram = MustParseAddress("BYJtTQxe8F1Zi41bzWRStVPf57knpst3JqvZ7P5EMjex")

func TestFindProgramAddress(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		a1, n1, err := FindProgramAddress([][]byte{[]byte("dapp_config")}, testProgram)
		require.NoError(t, err)
		a2, n2, err := FindProgramAddress([][]byte{[]byte("dapp_config")}, testProgram)
		require.NoError(t, err)
		assert.Equal(t, a1, a2)
		assert.Equal(t, n1, n2)
	})

	t.Run("result is off curve and reproducible from the nonce", func(t *testing.T) {
		addr, nonce, err := FindProgramAddress([][]byte{[]byte("mint_authority")}, testProgram)
		require.NoError(t, err)
		assert.False(t, IsOnCurve(addr))

		again, err := CreateProgramAddress([][]byte{[]byte("mint_authority"), {nonce}}, testProgram)
		require.NoError(t, err)
		assert.Equal(t, addr, again)
	})

	t.Run("every nonce above the found one is on curve", func(t *testing.T) {
		seeds := [][]byte{[]byte("user_pda"), testProgram[:]}
		_, nonce, err := FindProgramAddress(seeds, testProgram)
		require.NoError(t, err)
		for n := 255; n > int(nonce); n-- {
			_, err := CreateProgramAddress(append(seeds, []byte{byte(n)}), testProgram)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		}
	})

	t.Run("different seeds give different addresses", func(t *testing.T) {
		pubA, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		pubB, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		a, _, err := FindProgramAddress([][]byte{[]byte("user_pda"), pubA}, testProgram)
		require.NoError(t, err)
		b, _, err := FindProgramAddress([][]byte{[]byte("user_pda"), pubB}, testProgram)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("different programs give different addresses", func(t *testing.T) {
		other := MustParseAddress("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
		a, _, err := FindProgramAddress([][]byte{[]byte("dapp_config")}, testProgram)
		require.NoError(t, err)
		b, _, err := FindProgramAddress([][]byte{[]byte("dapp_config")}, other)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestDerivationLimits(t *testing.T) {
	t.Run("seed longer than 32 bytes", func(t *testing.T) {
		_, _, err := FindProgramAddress([][]byte{make([]byte, 33)}, testProgram)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("no room left for the nonce", func(t *testing.T) {
		seeds := make([][]byte, MaxSeeds)
		for i := range seeds {
			seeds[i] = []byte{byte(i)}
		}
		_, _, err := FindProgramAddress(seeds, testProgram)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestIsOnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	addr, err := AddressFromBytes(pub)
	require.NoError(t, err)
	assert.True(t, IsOnCurve(addr), "ed25519 public keys are curve points")
}
