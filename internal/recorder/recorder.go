package recorder

import (
	"context"
	"time"
)

// Record is one completed simulation as returned to the caller.
type Record struct {
	ID        string
	Title     string
	CreatedAt time.Time
	// Payload is the JSON response body.
	Payload []byte
}

// Recorder persists completed simulations for later inspection.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	// Prune deletes records created before the cutoff and reports how many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}
