// Package journal persists store changes through the record repository so
// they survive restarts and reach the relay via the outbox.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/store"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/platform/logging"
)

const writeTimeout = 5 * time.Second

var tracer = otel.Tracer("care-portal/journal")

// Collections lists what is restored at start-up, in dependency order.
var Collections = []string{
	store.CollectionPatients,
	store.CollectionPayments,
	store.CollectionRequisitions,
	store.CollectionEvents,
	store.CollectionNotifications,
}

var errNoSnapshot = errors.New("change carries no record snapshot")

type Journal struct {
	repo     ports.RecordRepository
	store    *store.Store
	log      *logging.Logger
	failures prometheus.Counter
	now      func() time.Time

	mu      sync.Mutex
	cursors map[string]*cursor
}

// cursor orders the writes for one record. applied is the highest change
// sequence already handed to the repository; anything at or below it is
// stale. Cursors of deleted records are kept so a late update cannot
// recreate the row.
type cursor struct {
	mu      sync.Mutex
	applied uint64
}

func New(repo ports.RecordRepository, st *store.Store, log *logging.Logger, failures prometheus.Counter) *Journal {
	return &Journal{
		repo:     repo,
		store:    st,
		log:      log,
		failures: failures,
		now:      time.Now,
		cursors:  make(map[string]*cursor),
	}
}

// Attach subscribes the journal to its store.
func (j *Journal) Attach() (detach func()) {
	return j.store.Subscribe(j.Record)
}

// Record is the store listener. Writes for the same record are serialized
// and a change older than one already written is dropped. Failures are
// logged and counted; the in-memory change has already happened and is not
// rolled back.
func (j *Journal) Record(change store.Change) {
	cur := j.cursor(change)
	cur.mu.Lock()
	defer cur.mu.Unlock()
	if change.Seq != 0 && change.Seq <= cur.applied {
		j.log.Debug("journal: stale change dropped",
			"collection", change.Collection, "kind", string(change.Kind), "id", change.ID,
			"seq", change.Seq, "applied", cur.applied)
		return
	}
	if change.Seq > cur.applied {
		cur.applied = change.Seq
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "journal.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("care.collection", change.Collection),
		attribute.String("care.kind", string(change.Kind)),
		attribute.String("care.record_id", change.ID),
		attribute.Int64("care.seq", int64(change.Seq)),
	)

	evt, err := j.event(change)
	if err == nil {
		err = j.repo.ApplyChange(ctx, evt)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "journal write failed")
		j.fail(change, err)
		return
	}
	j.log.Debug("journal: change recorded", "collection", change.Collection, "kind", string(change.Kind), "id", change.ID)
}

func (j *Journal) fail(change store.Change, err error) {
	if j.failures != nil {
		j.failures.Inc()
	}
	j.log.Error("journal: failed to record change",
		"collection", change.Collection, "kind", string(change.Kind), "id", change.ID, "error", err)
}

func (j *Journal) cursor(change store.Change) *cursor {
	key := change.Collection + "/" + change.ID
	j.mu.Lock()
	defer j.mu.Unlock()
	cur, ok := j.cursors[key]
	if !ok {
		cur = &cursor{}
		j.cursors[key] = cur
	}
	return cur
}

func (j *Journal) event(change store.Change) (ports.CareEvent, error) {
	evt := ports.CareEvent{
		ID:         uuid.NewString(),
		Collection: change.Collection,
		Kind:       string(change.Kind),
		RecordID:   change.ID,
		OccurredAt: j.now().UTC(),
	}
	if !slices.Contains(Collections, change.Collection) {
		return evt, fmt.Errorf("journal: unknown collection %q", change.Collection)
	}
	if change.Kind == store.Deleted {
		return evt, nil
	}
	if change.Record == nil {
		return evt, errNoSnapshot
	}

	payload, err := json.Marshal(change.Record)
	if err != nil {
		return evt, err
	}
	evt.Payload = payload
	return evt, nil
}

// Restore loads every collection from the repository into the store.
func Restore(ctx context.Context, repo ports.RecordRepository, st *store.Store) error {
	for _, collection := range Collections {
		payloads, err := repo.LoadRecords(ctx, collection)
		if err != nil {
			return err
		}
		if err := st.Hydrate(collection, payloads); err != nil {
			return err
		}
	}
	return nil
}
