package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Claim outcomes recorded by ClaimsTotal.
const (
	OutcomeMinted      = "minted"
	OutcomeZeroAccrual = "zero_accrual"
	OutcomeRejected    = "rejected"
)

// Metrics provides observability for the faucet module.
type Metrics struct {
	RegistrationsTotal prometheus.Counter
	ClaimsTotal        *prometheus.CounterVec
	TokensMinted       prometheus.Counter
	AccrualClamped     prometheus.Counter
	ExemptRotations    prometheus.Counter
	ClaimDuration      prometheus.Histogram
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the faucet metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "drip_registrations_total",
			Help: "Total number of users registered",
		}),
		ClaimsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "drip_claims_total",
			Help: "Claims processed, by outcome and reason",
		}, []string{"outcome", "reason"}),
		TokensMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "drip_tokens_minted_base_units_total",
			Help: "Base units minted by successful claims",
		}),
		AccrualClamped: f.NewCounter(prometheus.CounterOpts{
			Name: "drip_accrual_clamped_total",
			Help: "Claims whose accrual saturated at the maximum amount",
		}),
		ExemptRotations: f.NewCounter(prometheus.CounterOpts{
			Name: "drip_exempt_rotations_total",
			Help: "Successful exempt identity rotations",
		}),
		ClaimDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "drip_claim_duration_seconds",
			Help:    "Duration of Claim operations including attestation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementRegistrations() {
	m.RegistrationsTotal.Inc()
}

// RecordClaim counts a claim outcome; reason is empty unless rejected.
func (m *Metrics) RecordClaim(outcome, reason string) {
	m.ClaimsTotal.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) AddMinted(amount uint64) {
	m.TokensMinted.Add(float64(amount))
}

func (m *Metrics) IncrementAccrualClamped() {
	m.AccrualClamped.Inc()
}

func (m *Metrics) IncrementExemptRotations() {
	m.ExemptRotations.Inc()
}

// ObserveClaim records the duration of a Claim operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveClaim(start time.Time) {
	m.ClaimDuration.Observe(time.Since(start).Seconds())
}
