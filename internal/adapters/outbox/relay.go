package outbox

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/adapters/repository"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/config"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

const (
	// PostgreSQL NOTIFY/LISTEN configuration
	listenerMinReconnectInterval = 10 * time.Second
	listenerMaxReconnectInterval = time.Minute
	outboxChannelName            = "outbox_channel"

	// Event processing timeouts
	eventProcessTimeout     = 30 * time.Second
	batchProcessTimeout     = 60 * time.Second
	periodicProcessInterval = 90 * time.Second

	healthCheckStaleThreshold = 5 * time.Minute

	maxEventsPerBatch = 100
)

var tracer = otel.Tracer("care-portal/outbox")

// Relay listens for PostgreSQL NOTIFY signals on the outbox_channel and
// publishes the care events they point at.
type Relay struct {
	db            *sql.DB
	publisher     ports.CareEventPublisher
	listener      *pq.Listener
	dbURL         string
	dbCB          *gobreaker.CircuitBreaker
	log           *logging.Logger
	lastProcessed atomic.Int64
	healthy       atomic.Bool
}

func NewRelay(db *sql.DB, dbURL string, publisher ports.CareEventPublisher, log *logging.Logger) *Relay {
	r := &Relay{
		db:        db,
		dbURL:     dbURL,
		publisher: publisher,
		dbCB:      config.NewCircuitBreaker(config.BreakerRelay),
		log:       log,
	}
	r.markProcessed()
	r.healthy.Store(true)
	return r
}

// IsHealthy is the liveness check: an open breaker means degraded, not dead.
func (r *Relay) IsHealthy() bool {
	return r.healthy.Load()
}

// IsReady reports whether the relay can currently process events.
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}
	if time.Since(time.Unix(0, r.lastProcessed.Load())) > healthCheckStaleThreshold {
		return false
	}
	return r.healthy.Load()
}

func (r *Relay) markProcessed() {
	r.lastProcessed.Store(time.Now().UnixNano())
}

// Start begins listening for outbox notifications and processing events.
// It blocks until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.log.Error("relay: listener error", "error", err)
		}
	}

	r.listener = pq.NewListener(r.dbURL, listenerMinReconnectInterval, listenerMaxReconnectInterval, reportProblem)
	defer r.listener.Close()

	if err := r.listener.Listen(outboxChannelName); err != nil {
		return err
	}

	r.log.Info("relay: listening for notifications", "channel", outboxChannelName)

	// Catch up on anything written while the relay was down.
	if err := r.ProcessUnprocessedEvents(ctx); err != nil {
		r.log.Error("relay: error processing startup backlog", "error", err)
	}

	ticker := time.NewTicker(periodicProcessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay: shutting down")
			return ctx.Err()

		case notification := <-r.listener.Notify:
			if notification == nil {
				r.log.Warn("relay: received nil notification (reconnecting)")
				r.healthy.Store(false)
				continue
			}

			if err := r.ProcessEventByID(ctx, notification.Extra); err != nil {
				r.log.Error("relay: error processing event", "event_id", notification.Extra, "error", err)
			} else {
				r.markProcessed()
				r.healthy.Store(true)
			}

		case <-ticker.C:
			go r.listener.Ping()

			if err := r.ProcessUnprocessedEvents(ctx); err != nil {
				r.log.Error("relay: error in periodic processing", "error", err)
			} else {
				r.markProcessed()
			}
		}
	}
}

// ProcessEventByID publishes a single unprocessed event and marks it done.
func (r *Relay) ProcessEventByID(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, eventProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		var id string
		var payload []byte
		// An event with older pending ones is left to the ordered sweep.
		err = tx.QueryRowContext(ctx, `
			SELECT id, payload
			FROM outbox_events e
			WHERE e.id = $1 AND e.processed_at IS NULL
			  AND NOT EXISTS (
				SELECT 1 FROM outbox_events older
				WHERE older.processed_at IS NULL AND older.created_at < e.created_at
			  )
			FOR UPDATE SKIP LOCKED`, eventID).Scan(&id, &payload)

		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		if err := r.publish(ctx, id, payload); err != nil {
			return nil, err
		}

		if err := markDone(ctx, tx, id); err != nil {
			return nil, err
		}
		return nil, tx.Commit()
	})
	return err
}

// ProcessUnprocessedEvents drains up to maxEventsPerBatch pending events in
// creation order. The first publish failure ends the batch so later changes
// to the same record are never delivered ahead of it.
func (r *Relay) ProcessUnprocessedEvents(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, batchProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		rows, err := tx.QueryContext(ctx, `
			SELECT id, payload
			FROM outbox_events
			WHERE processed_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE`, maxEventsPerBatch)
		if err != nil {
			return nil, err
		}

		type record struct {
			ID      string
			Payload []byte
		}

		var records []record
		for rows.Next() {
			var rec record
			if err := rows.Scan(&rec.ID, &rec.Payload); err != nil {
				rows.Close()
				return nil, err
			}
			records = append(records, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for i, rec := range records {
			if err := r.publish(ctx, rec.ID, rec.Payload); err != nil {
				r.log.Error("relay: failed to publish event, stopping batch",
					"event_id", rec.ID, "held_back", len(records)-i-1, "error", err)
				break
			}
			if err := markDone(ctx, tx, rec.ID); err != nil {
				return nil, err
			}
			r.log.Debug("relay: processed event", "event_id", rec.ID)
		}

		return nil, tx.Commit()
	})
	return err
}

// publish sends one outbox payload. Undecodable payloads are dropped so
// they are not retried forever; the caller still marks them processed.
func (r *Relay) publish(ctx context.Context, id string, payload []byte) error {
	ctx, span := tracer.Start(ctx, "outbox.publish")
	defer span.End()
	span.SetAttributes(attribute.String("outbox.event_id", id))

	evt, err := repository.DecodeEvent(payload)
	if err != nil {
		r.log.Warn("relay: invalid payload, skipping", "event_id", id, "error", err)
		return nil
	}
	span.SetAttributes(attribute.String("care.event_type", repository.EventType(evt)))

	if err := r.publisher.PublishCareEvent(ctx, evt); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func markDone(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	return err
}
