package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/minhopark/store-portal/internal/core/events"
	"github.com/minhopark/store-portal/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: publish test entity-changed notifications for debugging`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [kind] [entity-id]",
	Short: "Publish a test entity-changed event",
	Long:  `Publish a test entity-changed notification on the redis channel so relay workers can be verified end to end.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0], args[1])
	},
}

func publishTestEvent(kind, rawID string) {
	lg := logger.LoggerWrapper()

	entityID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "entity-id must be an integer: %v\n", err)
		os.Exit(1)
	}

	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	redisClient := events.NewRedisClient(config.Events)
	notifier := events.NewRedisNotifier(redisClient, config.Events.Channel, lg)

	notifier.EntityChanged(context.Background(), kind, entityID)
	lg.Info("test event published", "kind", kind, "entity_id", entityID)
}

func init() {
	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
