package handler

import (
	"time"

	"drip/internal/faucet/models"
	"drip/internal/faucet/service"
)

type UserResponse struct {
	Identity      string    `json:"identity"`
	Address       string    `json:"address"`
	LastClaimedAt int64     `json:"last_claimed_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type UserStatusResponse struct {
	UserResponse
	NextEligibleAt    int64  `json:"next_eligible_at"`
	CooldownRemaining int64  `json:"cooldown_remaining"`
	AccruedAmount     uint64 `json:"accrued_amount"`
}

type ClaimResponse struct {
	Identity       string `json:"identity"`
	TokenMint      string `json:"token_mint"`
	TokenAccount   string `json:"token_account,omitempty"`
	Amount         uint64 `json:"amount"`
	Minted         bool   `json:"minted"`
	Clamped        bool   `json:"clamped,omitempty"`
	ClaimedAt      int64  `json:"claimed_at"`
	NextEligibleAt int64  `json:"next_eligible_at"`
}

type ConfigResponse struct {
	Address            string    `json:"address"`
	ProgramID          string    `json:"program_id"`
	AttestationNetwork string    `json:"attestation_network"`
	TokenMint          string    `json:"token_mint"`
	MintAuthority      string    `json:"mint_authority"`
	MintAuthorityNonce uint8     `json:"mint_authority_nonce"`
	// ExemptIdentity is empty while the role is unset.
	ExemptIdentity string    `json:"exempt_identity"`
	Decimals       uint8     `json:"decimals"`
	Supply         uint64    `json:"supply"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type BalanceResponse struct {
	Identity     string `json:"identity"`
	TokenMint    string `json:"token_mint"`
	TokenAccount string `json:"token_account"`
	Amount       uint64 `json:"amount"`
	Decimals     uint8  `json:"decimals"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		Identity:      u.Authority.String(),
		Address:       u.Address.String(),
		LastClaimedAt: u.LastClaimedAt,
		CreatedAt:     u.CreatedAt,
	}
}

func toUserStatusResponse(v *service.UserView) UserStatusResponse {
	return UserStatusResponse{
		UserResponse:      toUserResponse(&v.User),
		NextEligibleAt:    v.NextEligibleAt,
		CooldownRemaining: v.CooldownRemaining,
		AccruedAmount:     v.AccruedAmount,
	}
}

func toClaimResponse(r *service.ClaimResult) ClaimResponse {
	resp := ClaimResponse{
		Identity:       r.Identity.String(),
		TokenMint:      r.TokenMint.String(),
		Amount:         r.Amount,
		Minted:         r.Minted,
		Clamped:        r.Clamped,
		ClaimedAt:      r.ClaimedAt,
		NextEligibleAt: r.NextEligibleAt,
	}
	if !r.TokenAccount.IsZero() {
		resp.TokenAccount = r.TokenAccount.String()
	}
	return resp
}

func toConfigResponse(v *service.ConfigView) ConfigResponse {
	resp := ConfigResponse{
		Address:            v.Config.Address.String(),
		ProgramID:          v.ProgramID.String(),
		AttestationNetwork: v.Config.AttestationNetwork.String(),
		TokenMint:          v.Config.TokenMint.String(),
		MintAuthority:      v.MintAuthority.String(),
		MintAuthorityNonce: v.Config.MintAuthorityNonce,
		Decimals:           v.Decimals,
		Supply:             v.Supply,
		UpdatedAt:          v.Config.UpdatedAt,
	}
	if !v.Config.ExemptIdentity.IsZero() {
		resp.ExemptIdentity = v.Config.ExemptIdentity.String()
	}
	return resp
}

func toBalanceResponse(v *service.BalanceView) BalanceResponse {
	return BalanceResponse{
		Identity:     v.Identity.String(),
		TokenMint:    v.TokenMint.String(),
		TokenAccount: v.TokenAccount.String(),
		Amount:       v.Amount,
		Decimals:     v.Decimals,
	}
}
