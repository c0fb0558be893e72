package ports

import (
	"context"
	"encoding/json"
	"time"
)

// CareEvent is the outbox representation of a store change.
type CareEvent struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Kind       string          `json:"kind"`
	RecordID   string          `json:"record_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type CareEventPublisher interface {
	PublishCareEvent(ctx context.Context, evt CareEvent) error
}
