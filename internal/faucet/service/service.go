package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks drip/internal/faucet/ports AttestationVerifier,AuditPublisher

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"drip/internal/faucet/metrics"
	"drip/internal/faucet/models"
	"drip/internal/faucet/ports"
	"drip/pkg/domain"
	"drip/pkg/platform/tx"
)

const tracerName = "drip/internal/faucet/service"

// Service implements registration, claiming and exempt rotation.
type Service struct {
	store    ports.AccountStore
	ledger   ports.TokenLedger
	verifier ports.AttestationVerifier
	tx       tx.Runner

	program       domain.Address
	network       domain.Address
	ratePerSecond uint64

	configAddr     domain.Address
	authorityAddr  domain.Address
	authorityNonce uint8

	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithProgramID sets the identity records are derived under.
func WithProgramID(program domain.Address) Option {
	return func(s *Service) {
		s.program = program
	}
}

// WithAttestationNetwork sets the gatekeeper network passed to the verifier.
func WithAttestationNetwork(network domain.Address) Option {
	return func(s *Service) {
		s.network = network
	}
}

// WithRatePerSecond overrides the accrual rate.
func WithRatePerSecond(rate uint64) Option {
	return func(s *Service) {
		s.ratePerSecond = rate
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(store ports.AccountStore, ledger ports.TokenLedger, verifier ports.AttestationVerifier, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	if ledger == nil {
		return nil, errors.New("token ledger is required")
	}
	if verifier == nil {
		return nil, errors.New("attestation verifier is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}

	s := &Service{
		store:         store,
		ledger:        ledger,
		verifier:      verifier,
		tx:            runner,
		program:       models.DefaultProgramID,
		network:       models.DefaultAttestationNetwork,
		ratePerSecond: models.DefaultRatePerSecond,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.program.IsZero() {
		return nil, errors.New("program id is required")
	}
	if s.network.IsZero() {
		return nil, errors.New("attestation network is required")
	}

	var err error
	s.configAddr, _, err = domain.FindProgramAddress(models.ConfigSeeds(), s.program)
	if err != nil {
		return nil, err
	}
	s.authorityAddr, s.authorityNonce, err = domain.FindProgramAddress(models.MintAuthoritySeeds(), s.program)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ConfigAddress is where the singleton config record lives.
func (s *Service) ConfigAddress() domain.Address { return s.configAddr }

// MintAuthorityAddress is the derived identity that signs mints.
func (s *Service) MintAuthorityAddress() domain.Address { return s.authorityAddr }

// AttestationNetwork is the network the verifier is asked to vouch under.
func (s *Service) AttestationNetwork() domain.Address { return s.network }

// UserAddress derives the registry address of identity.
func (s *Service) UserAddress(identity domain.Address) (domain.Address, error) {
	addr, _, err := domain.FindProgramAddress(models.UserSeeds(identity), s.program)
	return addr, err
}

// mintSigner rebuilds the mint authority capability from the stored nonce.
func (s *Service) mintSigner(nonce uint8) (domain.Signer, error) {
	return domain.NewSigner(s.program, nonce, models.MintAuthoritySeeds()...)
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "faucet."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
