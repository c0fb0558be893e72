package ports

import (
	"context"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RecordRepository is the persisted backend behind the in-memory store.
type RecordRepository interface {
	// LoadRecords returns the JSON payloads of one collection in creation order.
	LoadRecords(ctx context.Context, collection string) ([][]byte, error)
	// ApplyChange writes the change to the record table and queues it in the
	// outbox for the relay, in one transaction.
	ApplyChange(ctx context.Context, evt CareEvent) error
}
