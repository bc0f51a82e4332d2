package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"renewal_notifier/internal/infra/logger"
	"renewal_notifier/internal/infra/scheduler"
	"renewal_notifier/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daily dispatch job, the Telegram console and the metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return serve(ctx, rt)
			})
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	mainLogger := logger.WithComponent("main")
	cfg := rt.cfg

	dispatchScheduler := scheduler.NewDispatchScheduler(
		rt.admin.Notifications,
		logger.WithComponent("scheduler"),
		cfg.CronSpecDispatch,
		cfg.JobTimeout,
	).WithObserver(rt.metrics)

	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		var err error
		bot, err = newBot(cfg.TelegramToken, logger.WithComponent("telebot"))
		if err != nil {
			return fmt.Errorf("could not create Telegram bot: %w", err)
		}
		dispatchScheduler.WithReporter(telegram.NewChatReporter(bot, cfg.AdminTelegramID))

		console := telegram.NewConsole(
			cfg.AdminTelegramID,
			cfg.IsReadOnly,
			telegram.Services{Notifications: rt.admin.Notifications, Subjects: rt.admin.Subjects},
			telegram.Services{Notifications: rt.readOnly.Notifications, Subjects: rt.readOnly.Subjects},
		)
		handlerLogger := logger.WithComponent("telegram")
		telegram.RegisterConsoleCommands(ctx, bot, console, handlerLogger)
		telegram.RegisterNotificationHandlers(ctx, bot, console, handlerLogger)
		telegram.RegisterSubjectHandlers(ctx, bot, console, handlerLogger)
		mainLogger.Info("Telegram command handlers registered.")
	} else {
		mainLogger.Info("TELEGRAM_TOKEN is not set, Telegram console disabled.")
	}

	if rt.readOnlyMode {
		mainLogger.Info("Read-only mode, dispatch scheduler not started.")
	} else if err := dispatchScheduler.Start(); err != nil {
		return err
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		rt.metrics.RegisterHandlers(mux)
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			mainLogger.WithField("addr", cfg.MetricsAddr).Info("Metrics endpoint listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mainLogger.WithError(err).Error("Metrics endpoint stopped")
			}
		}()
	}

	if bot != nil {
		// Start blocks until Stop is called.
		go bot.Start()
	}

	mainLogger.Info("Application setup complete. Waiting for shutdown signal...")
	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	if bot != nil {
		bot.Stop()
	}
	if !rt.readOnlyMode {
		dispatchScheduler.Stop()
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("Metrics endpoint did not shut down cleanly")
		}
	}
	mainLogger.Info("Application shut down gracefully.")
	return nil
}

func newBot(token string, log *logrus.Entry) (*telebot.Bot, error) {
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"message":   c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler failed")
		},
	}
	return telebot.NewBot(pref)
}
