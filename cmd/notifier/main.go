package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"renewal_notifier/internal/infra/config"
	"renewal_notifier/internal/infra/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cli is the state shared by every subcommand.
type cli struct {
	cfg      *config.AppConfig
	readOnly bool
}

func rootCommand() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "renewal-notifier",
		Short:         "Domain and hosting renewal reminders by email and WhatsApp",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load application configuration: %w", err)
			}
			logger.Init(cfg)
			c.cfg = cfg
			logger.Log.WithFields(logrus.Fields{
				"log_level":   cfg.LogLevel,
				"environment": cfg.Environment,
				"read_only":   c.readOnly,
			}).Debug("Configuration loaded")
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVar(&c.readOnly, "read-only", false, "keep every change in memory and never send reminders")

	rootCmd.AddCommand(
		serveCommand(c),
		migrateCommand(c),
		dispatchDueCommand(c),
		sendTestCommand(c),
		scheduleCommand(c),
		listCommand(c),
		deleteNotificationCommand(c),
		addDomainCommand(c),
		addHostingCommand(c),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
