// Package store holds the session-scoped clinic data in memory and tells
// subscribers about every change.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/google/uuid"
)

// Record is implemented by every type kept in a Collection.
type Record[T any] interface {
	RecordID() string
	WithID(id string) T
}

// NotFoundError is returned by Update and Delete when the id is absent.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: record %q not found", e.Collection, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == domain.ErrNotFound
}

// Collection keeps records by id plus an insertion-order index for stable
// listing. Values are copied in and out; callers never hold a reference to
// stored state.
type Collection[T Record[T]] struct {
	name   string
	mu     sync.RWMutex
	items  map[string]T
	order  []string
	notify func(Change)
	newID  func() string
	seq    uint64
}

func NewCollection[T Record[T]](name string, notify func(Change)) *Collection[T] {
	if notify == nil {
		notify = func(Change) {}
	}
	return &Collection[T]{
		name:   name,
		items:  make(map[string]T),
		notify: notify,
		newID:  uuid.NewString,
	}
}

func (c *Collection[T]) Name() string { return c.name }

// Add stores record under a freshly generated id, appends it to the
// listing order and returns the stored copy.
func (c *Collection[T]) Add(record T) T {
	c.mu.Lock()
	id := c.newID()
	for c.has(id) {
		id = c.newID()
	}
	stored := record.WithID(id)
	c.items[id] = stored
	c.order = append(c.order, id)
	change := c.change(Added, id, stored)
	c.mu.Unlock()

	c.notify(change)
	return stored
}

func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.items[id]
	if !ok {
		var zero T
		return zero, &NotFoundError{Collection: c.name, ID: id}
	}
	return record, nil
}

// Update applies patch to a copy of the record and stores the result. The
// id is restored after patching, so a patch cannot rename a record.
func (c *Collection[T]) Update(id string, patch func(*T)) (T, error) {
	return c.Modify(id, func(record *T) error {
		patch(record)
		return nil
	})
}

// Modify is Update with a patch that can reject the change. When patch
// returns an error nothing is stored and no change is published.
func (c *Collection[T]) Modify(id string, patch func(*T) error) (T, error) {
	c.mu.Lock()
	current, ok := c.items[id]
	if !ok {
		c.mu.Unlock()
		var zero T
		return zero, &NotFoundError{Collection: c.name, ID: id}
	}
	if err := patch(&current); err != nil {
		c.mu.Unlock()
		var zero T
		return zero, err
	}
	current = current.WithID(id)
	c.items[id] = current
	change := c.change(Updated, id, current)
	c.mu.Unlock()

	c.notify(change)
	return current, nil
}

// UpdateWhere patches every record matching match, in listing order, and
// returns the ids it touched. A change is published per touched record.
func (c *Collection[T]) UpdateWhere(match func(T) bool, patch func(*T)) []string {
	c.mu.Lock()
	var (
		touched []string
		changes []Change
	)
	for _, id := range c.order {
		record := c.items[id]
		if !match(record) {
			continue
		}
		patch(&record)
		record = record.WithID(id)
		c.items[id] = record
		touched = append(touched, id)
		changes = append(changes, c.change(Updated, id, record))
	}
	c.mu.Unlock()

	for _, change := range changes {
		c.notify(change)
	}
	return touched
}

// Delete removes the record. Deleting an id that is not present, including
// one that was already deleted, returns a *NotFoundError.
func (c *Collection[T]) Delete(id string) error {
	c.mu.Lock()
	if _, ok := c.items[id]; !ok {
		c.mu.Unlock()
		return &NotFoundError{Collection: c.name, ID: id}
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	change := c.change(Deleted, id, nil)
	c.mu.Unlock()

	c.notify(change)
	return nil
}

// List returns a snapshot of the records in insertion order, keeping only
// those accepted by every filter.
func (c *Collection[T]) List(filters ...func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
next:
	for _, id := range c.order {
		record := c.items[id]
		for _, keep := range filters {
			if !keep(record) {
				continue next
			}
		}
		out = append(out, record)
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

var errDuplicateID = errors.New("duplicate record id")

// load inserts a record coming from the backend. The record keeps its id
// when it has one; no change is published since the record is already
// persisted.
func (c *Collection[T]) load(record T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := record.RecordID()
	if id == "" {
		id = c.newID()
	}
	if _, taken := c.items[id]; taken {
		return fmt.Errorf("%s: %w: %s", c.name, errDuplicateID, id)
	}
	c.items[id] = record.WithID(id)
	c.order = append(c.order, id)
	return nil
}

// change stamps the next sequence number. Callers hold c.mu.
func (c *Collection[T]) change(kind ChangeKind, id string, snapshot any) Change {
	c.seq++
	return Change{Collection: c.name, Kind: kind, ID: id, Seq: c.seq, Record: snapshot}
}

func (c *Collection[T]) has(id string) bool {
	_, ok := c.items[id]
	return ok
}
