package audit

import "context"

// Appender writes entries. Stores seal the entry (ID, timestamp, hash chain)
// under a per-target serialization point so chains stay linear.
type Appender interface {
	Append(ctx context.Context, entry *Entry) error
}

// Store is the full audit log contract. List returns entries in append order.
type Store interface {
	Appender
	// AppendIfChanged appends unless the latest entry with the same target
	// and action carries an identical AfterState. It reports whether an
	// entry was written.
	AppendIfChanged(ctx context.Context, entry *Entry) (bool, error)
	List(ctx context.Context, q Query) ([]*Entry, error)
	// Latest returns the most recent entry for target and action, or
	// sentinel.ErrNotFound.
	Latest(ctx context.Context, targetType, targetID string, action ActionType) (*Entry, error)
}
