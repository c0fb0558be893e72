package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/config"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/store"
)

type SQLRepository struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker
}

var (
	_ ports.UserRepository   = (*SQLRepository)(nil)
	_ ports.RecordRepository = (*SQLRepository)(nil)
)

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{
		db: db,
		cb: config.NewCircuitBreaker(config.BreakerPostgres),
	}
}

func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		var user domain.User
		err := r.db.QueryRowContext(
			ctx,
			"SELECT id, email, role, COALESCE(patient_id, ''), password_hash, created_at FROM users WHERE email = $1",
			email,
		).Scan(&user.ID, &user.Email, &user.Role, &user.PatientID, &user.PasswordHash, &user.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	user, _ := res.(*domain.User)
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (r *SQLRepository) LoadRecords(ctx context.Context, collection string) ([][]byte, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		rows, err := r.db.QueryContext(ctx,
			"SELECT payload FROM care_records WHERE collection = $1 ORDER BY created_at, id",
			collection,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var payloads [][]byte
		for rows.Next() {
			var payload []byte
			if err := rows.Scan(&payload); err != nil {
				return nil, err
			}
			payloads = append(payloads, payload)
		}
		return payloads, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	payloads, _ := res.([][]byte)
	return payloads, nil
}

func (r *SQLRepository) ApplyChange(ctx context.Context, evt ports.CareEvent) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.applyChange(ctx, evt)
	})
	if err != nil {
		return fmt.Errorf("apply %s %s/%s: %w", evt.Kind, evt.Collection, evt.RecordID, err)
	}
	return nil
}

func (r *SQLRepository) applyChange(ctx context.Context, evt ports.CareEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	evt.OccurredAt = occurredAt(evt)
	if evt.Kind == string(store.Deleted) {
		_, err = tx.ExecContext(ctx,
			"DELETE FROM care_records WHERE collection = $1 AND id = $2",
			evt.Collection, evt.RecordID,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO care_records (collection, id, payload, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $4)
			 ON CONFLICT (collection, id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
			evt.Collection, evt.RecordID, []byte(evt.Payload), evt.OccurredAt,
		)
	}
	if err != nil {
		return err
	}

	payload, err := encodeEvent(evt)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO outbox_events (id, event_type, payload, created_at) VALUES ($1, $2, $3, $4)",
		evt.ID, EventType(evt), payload, evt.OccurredAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// EventType is the outbox event_type of evt, e.g. "patients.added".
func EventType(evt ports.CareEvent) string {
	return evt.Collection + "." + evt.Kind
}

func occurredAt(evt ports.CareEvent) time.Time {
	if evt.OccurredAt.IsZero() {
		return time.Now().UTC()
	}
	return evt.OccurredAt
}
