package server

import (
	"context"

	"github.com/joeecarter/heart-readings-server/reading"
)

// ReadingStore encapsulates a storage backend for readings.
// The same reading may arrive more than once (uploads are retried, MQTT redelivers) so
// every ReadingStore must upsert by id and never hold duplicates.
type ReadingStore interface {
	Name() string
	List(ctx context.Context) ([]*reading.Reading, error)
	// Get returns reading.ErrNotFound when no reading has the id.
	Get(ctx context.Context, id string) (*reading.Reading, error)
	Store(ctx context.Context, readings []*reading.Reading) error
	Close() error
}
