package handler

import (
	"strings"

	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
)

// RegisterRequest is the body of POST /v1/users.
type RegisterRequest struct {
	// Proof is the gateway token. The exempt identity may omit it.
	Proof string `json:"proof"`
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Proof = strings.TrimSpace(r.Proof)
	return nil
}

// ClaimRequest is the body of POST /v1/claims.
type ClaimRequest struct {
	Proof     string `json:"proof"`
	TokenMint string `json:"token_mint,omitempty"`

	tokenMint domain.Address
}

func (r *ClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Proof = strings.TrimSpace(r.Proof)
	r.TokenMint = strings.TrimSpace(r.TokenMint)
	if r.TokenMint == "" {
		return nil
	}
	mint, err := domain.ParseAddress(r.TokenMint)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "token_mint is not a valid address")
	}
	r.tokenMint = mint
	return nil
}

// SetExemptRequest is the body of PUT /v1/config/exempt. An empty identity
// clears the role.
type SetExemptRequest struct {
	Identity string `json:"identity"`

	identity domain.Address
}

func (r *SetExemptRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Identity = strings.TrimSpace(r.Identity)
	if r.Identity == "" {
		r.identity = domain.Address{}
		return nil
	}
	next, err := domain.ParseAddress(r.Identity)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "identity is not a valid address")
	}
	r.identity = next
	return nil
}
