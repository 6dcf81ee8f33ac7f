package recorder

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("record not found")

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ context.Context, _ Record) error            { return nil }
func (n *NoopRecorder) Get(_ context.Context, _ string) (Record, error)     { return Record{}, ErrNotFound }
func (n *NoopRecorder) Prune(_ context.Context, _ time.Time) (int64, error) { return 0, nil }
func (n *NoopRecorder) Close() error                                        { return nil }
