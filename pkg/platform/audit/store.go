package audit

import "context"

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can serve events back.
type Reader interface {
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
