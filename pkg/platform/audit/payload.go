package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the JSON document written to the outbox and published to Kafka.
type Payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
}

// Encode renders event as a payload under id. Category always follows the
// action so consumers can route on it.
func Encode(id string, event Event) ([]byte, error) {
	raw, err := json.Marshal(Payload{
		ID:        id,
		Category:  string(AuditEvent(event.Action).Category()),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		Amount:    event.Amount,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return raw, nil
}

// Decode parses a payload back into an event.
func Decode(raw []byte) (Event, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, fmt.Errorf("decode audit payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("parse audit timestamp: %w", err)
	}
	return Event{
		Category:  EventCategory(p.Category),
		Timestamp: ts,
		Subject:   p.Subject,
		Action:    p.Action,
		Decision:  p.Decision,
		Reason:    p.Reason,
		Amount:    p.Amount,
		RequestID: p.RequestID,
		ActorID:   p.ActorID,
	}, nil
}
