package models

import "drip/pkg/domain"

const (
	// CooldownSeconds is the minimum spacing between two claims of one user.
	CooldownSeconds int64 = 60

	// DefaultRatePerSecond is the accrual in base units per elapsed second
	// (about 1.25 tokens per minute at 6 decimals).
	DefaultRatePerSecond uint64 = 20833

	// DefaultDecimals applies when a mint is created without explicit decimals.
	DefaultDecimals uint8 = 6
)

// Derivation tags for the faucet's records.
const (
	ConfigSeed        = "dapp_config"
	MintAuthoritySeed = "mint_authority"
	UserSeed          = "user_pda"
	TokenMintSeed     = "token_mint"
)

var (
	// DefaultProgramID is the identity all faucet records are derived under.
	DefaultProgramID = domain.MustParseAddress("BYJtTQxe8F1Zi41bzWRStVPf57knpst3JqvZ7P5EMjex")
	// DefaultAttestationNetwork is the gatekeeper network whose verdicts are trusted.
	DefaultAttestationNetwork = domain.MustParseAddress("uniqobk8oGh4XBLMqM68K8M2zNu3CdYX7q5go7whQiv")
)

// ConfigSeeds locates the singleton config record.
func ConfigSeeds() [][]byte { return [][]byte{[]byte(ConfigSeed)} }

// MintAuthoritySeeds locates the mint authority record and signer.
func MintAuthoritySeeds() [][]byte { return [][]byte{[]byte(MintAuthoritySeed)} }

// UserSeeds locates the registry entry of identity.
func UserSeeds(identity domain.Address) [][]byte {
	return [][]byte{[]byte(UserSeed), identity.Bytes()}
}

// TokenMintSeeds derives the default mint when none is configured.
func TokenMintSeeds() [][]byte { return [][]byte{[]byte(TokenMintSeed)} }
