package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joeecarter/heart-readings-server/reading"
)

// Optimizer is implemented by stores that compact duplicate rows after a write.
type Optimizer interface {
	OptimizeTables(ctx context.Context) error
}

const replicationTimeout = time.Minute

// ErrServiceClosed is returned by every operation started after Close.
var ErrServiceClosed = errors.New("reading service is closed")

// ReadingService fronts the configured stores. The first store is the primary: reads
// come from it and writes to it are synchronous. Every other store is a replica
// written in the background.
type ReadingService struct {
	stores []ReadingStore
	logger *zap.Logger
	newID  func() string

	// mu guards closed; every operation registers with wg while holding it so Close
	// never waits on a group that can still grow from zero.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewReadingService(stores []ReadingStore, logger *zap.Logger) (*ReadingService, error) {
	if len(stores) == 0 {
		return nil, errors.New("at least one reading store is required")
	}
	return &ReadingService{
		stores: stores,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
	}, nil
}

func (s *ReadingService) Primary() ReadingStore {
	return s.stores[0]
}

func (s *ReadingService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServiceClosed
	}
	s.wg.Add(1)
	return nil
}

func (s *ReadingService) List(ctx context.Context) ([]*reading.Reading, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.wg.Done()
	return s.Primary().List(ctx)
}

// Query loads every reading from the primary store and applies reading.Query.
func (s *ReadingService) Query(ctx context.Context, searchTerm string, spec reading.SortSpec) ([]*reading.Reading, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.wg.Done()

	readings, err := s.Primary().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings from %s: %w", s.Primary().Name(), err)
	}
	return reading.Query(readings, searchTerm, spec)
}

func (s *ReadingService) Get(ctx context.Context, id string) (*reading.Reading, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.wg.Done()
	return s.Primary().Get(ctx, id)
}

// Add stores manually entered readings. It only creates: every reading is validated and
// any supplied id must be unused before anything is written.
func (s *ReadingService) Add(ctx context.Context, readings ...*reading.Reading) error {
	for _, r := range readings {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.wg.Done()

	for _, r := range readings {
		if r.ID == "" {
			continue
		}
		_, err := s.Primary().Get(ctx, r.ID)
		if err == nil {
			return &reading.AlreadyExistsError{ID: r.ID}
		}
		if !errors.Is(err, reading.ErrNotFound) {
			return fmt.Errorf("failed to check reading %s: %w", r.ID, err)
		}
	}
	return s.write(ctx, readings)
}

// Import stores readings from uploads, devices and seed files. Device exports carry no
// blood pressure so only the date is checked. Readings upsert by id.
func (s *ReadingService) Import(ctx context.Context, readings []*reading.Reading) (int, error) {
	if err := s.begin(); err != nil {
		return 0, err
	}
	defer s.wg.Done()
	return s.importReadings(ctx, readings)
}

func (s *ReadingService) importReadings(ctx context.Context, readings []*reading.Reading) (int, error) {
	accepted := make([]*reading.Reading, 0, len(readings))
	for _, r := range readings {
		if r == nil || r.Date.IsZero() {
			s.logger.Warn("Skipping imported reading without a date")
			continue
		}
		accepted = append(accepted, r)
	}
	if len(accepted) == 0 {
		return 0, nil
	}
	if err := s.write(ctx, accepted); err != nil {
		return 0, err
	}
	return len(accepted), nil
}

// ImportAsync runs Import in the background; Wait and Close wait for it.
func (s *ReadingService) ImportAsync(readings []*reading.Reading) error {
	if err := s.begin(); err != nil {
		return err
	}
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), replicationTimeout)
		defer cancel()

		n, err := s.importReadings(ctx, readings)
		if err != nil {
			s.logger.Error("Failed to import readings", zap.Error(err))
			return
		}
		s.logger.Info("Imported readings", zap.Int("readings", n))
	}()
	return nil
}

// write must run inside begin/Done so the replication goroutine joins a live group.
func (s *ReadingService) write(ctx context.Context, readings []*reading.Reading) error {
	for _, r := range readings {
		if r.ID == "" {
			r.ID = s.newID()
		}
	}

	primary := s.Primary()
	if err := primary.Store(ctx, readings); err != nil {
		return fmt.Errorf("failed to store readings in %s: %w", primary.Name(), err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.replicate(readings)
	}()
	return nil
}

func (s *ReadingService) replicate(readings []*reading.Reading) {
	ctx, cancel := context.WithTimeout(context.Background(), replicationTimeout)
	defer cancel()

	for i, store := range s.stores {
		if i > 0 {
			s.logger.Debug("Starting upload to reading store", zap.String("store", store.Name()))
			if err := store.Store(ctx, readings); err != nil {
				s.logger.Error("Failed upload to reading store",
					zap.String("store", store.Name()),
					zap.Int("readings", len(readings)),
					zap.Error(err),
				)
				continue
			}
		}

		if optimizer, ok := store.(Optimizer); ok {
			if err := optimizer.OptimizeTables(ctx); err != nil {
				s.logger.Error("Failed to optimize tables", zap.String("store", store.Name()), zap.Error(err))
				continue
			}
		}

		s.logger.Debug("Finished upload to reading store", zap.String("store", store.Name()))
	}
}

// Wait blocks until background imports and replication have finished.
func (s *ReadingService) Wait() {
	s.wg.Wait()
}

// Close refuses new operations, waits for running ones and replication, then closes
// every store. Later calls return nil.
func (s *ReadingService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()

	var errs []error
	for _, store := range s.stores {
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", store.Name(), err))
		}
	}
	return errors.Join(errs...)
}
