package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minhopark/store-portal/internal/audit"
	auditPostgres "github.com/minhopark/store-portal/internal/audit/postgres"
	"github.com/minhopark/store-portal/internal/authz"
	"github.com/minhopark/store-portal/internal/core/events"
	"github.com/minhopark/store-portal/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers: audit log retention purge, event relay.`,
}

var purgeWorkerCmd = &cobra.Command{
	Use:   "audit-purge",
	Short: "Start the audit log purge worker",
	Long:  `Periodically deletes permission change logs older than the retention window.`,
	Run: func(cmd *cobra.Command, args []string) {
		startPurgeWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start the event relay worker",
	Long:  `Subscribes to the redis entity-changed channel and relays events to in-process handlers.`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

func startPurgeWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	registry := authz.DefaultRegistry()
	resolver := authz.NewResolver(registry, lg)

	auditRepo := auditPostgres.NewAuditRepository(db, lg)
	auditService := audit.NewService(auditRepo, resolver, config.Audit.RetentionWindow(), lg)
	purger := audit.NewPurger(auditService, config.Audit.PurgeInterval, config.Audit.PurgeBatch, lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := purger.Run(ctx); err != nil && err != context.Canceled {
		lg.Error("purge worker exited", "error", err)
		os.Exit(1)
	}
}

func startEventWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	redisClient := events.NewRedisClient(config.Events)
	bus := events.NewEventBus(lg)

	bus.Subscribe(events.EntityChangedType, func(ctx context.Context, event events.Event) error {
		lg.Info("entity changed",
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := events.Relay(ctx, redisClient, config.Events.Channel, bus, lg); err != nil && err != context.Canceled {
		lg.Error("event relay exited", "error", err)
		os.Exit(1)
	}
}

func init() {
	workerCmd.AddCommand(purgeWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
