package main

import (
	"context"

	"go.uber.org/zap"

	server "github.com/joeecarter/heart-readings-server"
	"github.com/joeecarter/heart-readings-server/reading"
	"github.com/joeecarter/heart-readings-server/seed"
	"github.com/joeecarter/heart-readings-server/storage/memory"
)

// seedFallback fills the fallback memory store from the seed file, or with the sample
// readings when no seed file is configured.
func seedFallback(store *memory.MemoryReadingStore, path string, logger *zap.Logger) error {
	if path == "" {
		store.Replace(seed.SampleReadings())
		logger.Info("Serving sample readings from memory")
		return nil
	}

	readings, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	dated := datedReadings(readings)
	store.Replace(dated)
	logger.Info("Loaded seed file into memory", zap.String("path", path), zap.Int("readings", len(dated)))
	return nil
}

// reloadSeed swaps the fallback memory store's contents in one step so queries never see
// it empty. Configured stores upsert through the service instead.
func reloadSeed(svc *server.ReadingService, fallback *memory.MemoryReadingStore, logger *zap.Logger) seed.ReloadFunc {
	return func(ctx context.Context, readings []*reading.Reading) error {
		if fallback == nil {
			_, err := svc.Import(ctx, readings)
			return err
		}
		dated := datedReadings(readings)
		fallback.Replace(dated)
		logger.Info("Reloaded seed file", zap.Int("readings", len(dated)))
		return nil
	}
}

// datedReadings drops entries the store cannot key or order.
func datedReadings(readings []*reading.Reading) []*reading.Reading {
	out := make([]*reading.Reading, 0, len(readings))
	for _, r := range readings {
		if r == nil || r.Date.IsZero() || r.ID == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
