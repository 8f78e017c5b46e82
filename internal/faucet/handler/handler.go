// Package handler exposes the faucet over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drip/internal/faucet/models"
	"drip/internal/faucet/service"
	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/httputil"
	"drip/pkg/requestcontext"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks drip/internal/faucet/handler Service

// Service is the faucet surface the handler drives.
type Service interface {
	Register(ctx context.Context, caller domain.Address, proof string) (*models.User, error)
	Claim(ctx context.Context, req service.ClaimRequest) (*service.ClaimResult, error)
	SetExempt(ctx context.Context, caller, next domain.Address) (*models.Config, error)
	GetConfig(ctx context.Context) (*service.ConfigView, error)
	GetUser(ctx context.Context, identity domain.Address) (*service.UserView, error)
	GetBalance(ctx context.Context, identity domain.Address) (*service.BalanceView, error)
}

type Handler struct {
	faucet Service
	logger *slog.Logger
	// signed guards the mutating routes. It must put the caller in context.
	signed []func(http.Handler) http.Handler
}

// New creates a handler. signed is applied, in order, to every mutating route.
func New(faucet Service, logger *slog.Logger, signed ...func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{faucet: faucet, logger: logger, signed: signed}
}

// Register mounts the faucet routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.signed...)
			r.Post("/users", h.handleRegister)
			r.Post("/claims", h.handleClaim)
			r.Put("/config/exempt", h.handleSetExempt)
		})
		r.Get("/config", h.handleGetConfig)
		r.Get("/users/{identity}", h.handleGetUser)
		r.Get("/users/{identity}/balance", h.handleGetBalance)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	user, err := h.faucet.Register(ctx, caller, req.Proof)
	if err != nil {
		h.writeError(ctx, w, "register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ClaimRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	res, err := h.faucet.Claim(ctx, service.ClaimRequest{
		Caller:    caller,
		Proof:     req.Proof,
		TokenMint: req.tokenMint,
	})
	if err != nil {
		h.writeError(ctx, w, "claim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(res))
}

func (h *Handler) handleSetExempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetExemptRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if _, err := h.faucet.SetExempt(ctx, caller, req.identity); err != nil {
		h.writeError(ctx, w, "set exempt", err)
		return
	}
	view, err := h.faucet.GetConfig(ctx)
	if err != nil {
		h.writeError(ctx, w, "read config", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(view))
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.faucet.GetConfig(ctx)
	if err != nil {
		h.writeError(ctx, w, "read config", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(view))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identityParam(w, r)
	if !ok {
		return
	}
	view, err := h.faucet.GetUser(ctx, identity)
	if err != nil {
		h.writeError(ctx, w, "read user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserStatusResponse(view))
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identityParam(w, r)
	if !ok {
		return
	}
	view, err := h.faucet.GetBalance(ctx, identity)
	if err != nil {
		h.writeError(ctx, w, "read balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBalanceResponse(view))
}

func (h *Handler) caller(w http.ResponseWriter, ctx context.Context) (domain.Address, bool) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		h.logger.ErrorContext(ctx, "caller missing from context despite signature middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "request is not signed"))
		return domain.Address{}, false
	}
	return caller, true
}

func (h *Handler) identityParam(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	identity, err := domain.ParseAddress(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "identity is not a valid address"))
		return domain.Address{}, false
	}
	return identity, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.InfoContext(ctx, op+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"code", string(dErrors.CodeOf(err)),
		)
	}
	httputil.WriteError(w, err)
}
