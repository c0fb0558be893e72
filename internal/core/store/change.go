package store

type ChangeKind string

const (
	Added   ChangeKind = "added"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// Change describes one successful mutation. Seq grows with every change
// to the collection and Record is the stored value as of that change (nil
// for Deleted); both are captured under the collection lock, so listeners
// running concurrently can still tell which change is newer.
type Change struct {
	Collection string     `json:"collection"`
	Kind       ChangeKind `json:"kind"`
	ID         string     `json:"id"`
	Seq        uint64     `json:"seq"`
	Record     any        `json:"-"`
}

// Listener is called synchronously after each mutation, once the store
// state already reflects it.
type Listener func(Change)
