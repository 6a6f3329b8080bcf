package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	server "github.com/joeecarter/heart-readings-server"
	"github.com/joeecarter/heart-readings-server/ingest/mqtt"
	"github.com/joeecarter/heart-readings-server/internal/config"
	"github.com/joeecarter/heart-readings-server/internal/logger"
	"github.com/joeecarter/heart-readings-server/profile"
	"github.com/joeecarter/heart-readings-server/seed"
	"github.com/joeecarter/heart-readings-server/storage/memory"
)

var Version = "0.0.0"

const serviceName = "heart-readings-server"

const shutdownTimeout = 10 * time.Second

var (
	cfg     config.Config
	log     *zap.Logger
	rootCmd = &cobra.Command{
		Use:               serviceName,
		Short:             "Stores, searches and serves heart readings",
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (the default command)",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "json or console")

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().String("addr", "", "The address to start the server on e.g. ':8080'")
		cmd.Flags().String("stores", "", "Path to the reading store config file")
		cmd.Flags().String("profile", "", "Path to the profile file")
		cmd.Flags().String("seed", "", "Export file loaded into the fallback memory store")
		cmd.Flags().Bool("watch", false, "Reload the seed file when it changes")
	}

	rootCmd.AddCommand(serveCmd, listCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
		"addr":       &cfg.Addr,
		"stores":     &cfg.StoresFile,
		"profile":    &cfg.ProfilePath,
		"seed":       &cfg.SeedFile,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Changed("watch") {
		cfg.WatchSeed, _ = flags.GetBool("watch")
	}

	log, err = logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := server.LoadReadingStores(ctx, cfg.StoresFile, log)
	if err != nil {
		log.Error("Failed to load reading stores", zap.Error(err))
		return err
	}

	var fallback *memory.MemoryReadingStore
	if len(stores) == 0 {
		printConfigurationExplanation()
		fallback = memory.NewMemoryReadingStore()
		stores = []server.ReadingStore{fallback}
	}

	svc, err := server.NewReadingService(stores, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	if fallback != nil {
		if err := seedFallback(fallback, cfg.SeedFile, log); err != nil {
			return err
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewHandler(svc, profile.NewFileStore(cfg.ProfilePath), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting server", zap.String("version", Version), zap.String("addr", cfg.Addr))
		log.Info("Point Auto Export to /upload")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.MQTT.Broker != "" {
		subscriber := mqtt.NewSubscriber(cfg.MQTT, svc, log)
		g.Go(func() error { return subscriber.Run(gctx) })
	}

	if cfg.WatchSeed && cfg.SeedFile != "" {
		watcher := seed.NewWatcher(cfg.SeedFile, reloadSeed(svc, fallback, log), log)
		g.Go(func() error { return watcher.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		log.Error("Server stopped", zap.Error(err))
		return err
	}
	log.Info("Server stopped")
	return nil
}

func printConfigurationExplanation() {
	fmt.Printf("You have no reading stores configured. Readings will be kept in memory.\n\n")

	fmt.Printf("Configure stores in %s or by setting environment variables:\n", cfg.StoresFile)
	fmt.Println("- SQLITE_PATH")
	fmt.Println("- POSTGRES_DSN")
	fmt.Println("- CLICKHOUSE_DSN, CLICKHOUSE_DATABASE, CLICKHOUSE_READINGS_TABLE")
	fmt.Println("- REDIS_ADDR")
	fmt.Println()
}
