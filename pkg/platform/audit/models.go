package audit

import (
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events that change who holds tokens or who may
	// bypass attestation. These are retained indefinitely.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected operations that are useful for abuse
	// detection: failed attestations, unauthorized rotations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject is the base58 identity the event is about.
	Subject string
	Action  string
	// Decision is the outcome ("granted", "denied") where one applies.
	Decision string
	Reason   string
	// Amount is the number of base units minted, for claim events.
	Amount    uint64
	RequestID string
	// ActorID is the signer when it differs from Subject, e.g. an exempt rotation.
	ActorID string
}

type AuditEvent string

const (
	EventFaucetInitialized AuditEvent = "faucet_initialized"
	EventUserRegistered    AuditEvent = "user_registered"
	EventTokensClaimed     AuditEvent = "tokens_claimed"
	EventClaimRejected     AuditEvent = "claim_rejected"
	EventExemptRotated     AuditEvent = "exempt_rotated"
	EventExemptDenied      AuditEvent = "exempt_rotation_denied"
	EventThrottled         AuditEvent = "request_throttled"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventFaucetInitialized: CategoryCompliance,
	EventTokensClaimed:     CategoryCompliance,
	EventExemptRotated:     CategoryCompliance,

	EventClaimRejected: CategorySecurity,
	EventExemptDenied:  CategorySecurity,
	EventThrottled:     CategorySecurity,

	EventUserRegistered: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
