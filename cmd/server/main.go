// File: cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/listing"
	"shareaplate_backend/internal/listing/esutil"
	platformElasticsearch "shareaplate_backend/internal/platform/elasticsearch"
)

var rootCmd = &cobra.Command{
	Use:           "shareaplate",
	Short:         "Share-a-Plate food sharing API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background jobs",
	RunE:  runServe,
}

var syncListingsCmd = &cobra.Command{
	Use:   "sync-listings",
	Short: "Reindex every food listing into Elasticsearch",
	RunE:  runSyncListings,
}

var expireOutcomesCmd = &cobra.Command{
	Use:   "expire-outcomes",
	Short: "Mark outcomes of expired, unclaimed listings once and exit",
	RunE:  runExpireOutcomes,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

var (
	syncBatchSize int
	syncRefresh   string
)

func init() {
	syncListingsCmd.Flags().IntVar(&syncBatchSize, "batch-size", 100, "Batch size for syncing listings")
	syncListingsCmd.Flags().StringVar(&syncRefresh, "es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")
	rootCmd.AddCommand(serveCmd, syncListingsCmd, expireOutcomesCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	server, cleanup, err := initializeServer(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	defer cleanup()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
		return err
	}
	log.Println("INFO: Server shutdown complete.")
	return nil
}

func runSyncListings(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration for sync: %w", err)
	}
	appLogger, cleanupLogger, err := provideLogger(cfg)
	if err != nil {
		return err
	}
	defer cleanupLogger()

	db, cleanupDB, err := provideDatabase(cfg, appLogger)
	if err != nil {
		return err
	}
	defer cleanupDB()

	esClient, err := platformElasticsearch.NewClient(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize Elasticsearch client: %w", err)
	}
	if esClient == nil {
		return fmt.Errorf("ELASTICSEARCH_URL must be set to sync listings")
	}
	if err := platformElasticsearch.CreateFoodListingsIndexIfNotExists(cmd.Context(), esClient, appLogger); err != nil {
		return fmt.Errorf("failed to create or verify the food listings index: %w", err)
	}

	result, err := esutil.SyncListings(cmd.Context(), listing.NewGORMRepository(db), esClient, appLogger, syncBatchSize, syncRefresh)
	if err != nil {
		return fmt.Errorf("listing synchronization failed: %w", err)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d listings failed to sync", result.Failed)
	}
	appLogger.Info("Listing synchronization completed successfully.", zap.Int("synced", result.Synced))
	return nil
}

func runExpireOutcomes(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	job, cleanup, err := initializeExpiryJob(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	marked, err := job.RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("outcome expiry run failed: %w", err)
	}
	log.Printf("INFO: Marked %d outcomes as expired.", marked)
	return nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.DBAutoMigrate = true
	appLogger, cleanupLogger, err := provideLogger(cfg)
	if err != nil {
		return err
	}
	defer cleanupLogger()

	_, cleanupDB, err := provideDatabase(cfg, appLogger)
	if err != nil {
		return err
	}
	cleanupDB()
	return nil
}
