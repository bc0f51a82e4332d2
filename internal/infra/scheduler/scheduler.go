package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"renewal_notifier/internal/app"
	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/telegram"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DueDispatcher is the part of app.NotificationService the scheduler drives.
type DueDispatcher interface {
	DispatchDueNotifications(ctx context.Context, asOf time.Time) ([]app.DispatchResult, error)
}

// RunObserver is told about every completed run.
type RunObserver interface {
	ObserveDueRun(err error)
}

// DispatchScheduler runs the dispatch-due job on a cron schedule.
type DispatchScheduler struct {
	cronEngine *cron.Cron
	dispatcher DueDispatcher
	logger     *logrus.Entry
	cronSpec   string
	jobTimeout time.Duration
	reporter   telegram.Reporter
	observer   RunObserver
	now        func() time.Time
}

func NewDispatchScheduler(
	dispatcher DueDispatcher,
	logger *logrus.Entry,
	cronSpec string, // e.g., "0 9 * * *" (9 AM daily)
	jobTimeout time.Duration,
) *DispatchScheduler {
	return &DispatchScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		dispatcher: dispatcher,
		logger:     logger,
		cronSpec:   cronSpec,
		jobTimeout: jobTimeout,
		now:        time.Now,
	}
}

// WithReporter sends a summary to the operator whenever a run has failures.
func (s *DispatchScheduler) WithReporter(reporter telegram.Reporter) *DispatchScheduler {
	s.reporter = reporter
	return s
}

func (s *DispatchScheduler) WithObserver(observer RunObserver) *DispatchScheduler {
	s.observer = observer
	return s
}

// Start registers the job and starts the cron engine.
func (s *DispatchScheduler) Start() error {
	s.logger.Info("Starting dispatch scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for due notifications.")
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.WithError(err).Error("Dispatch-due run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add dispatch-due cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Dispatch scheduler started.")
	return nil
}

// RunOnce dispatches everything due today. The cron job calls it, and so does
// the dispatch-due command.
func (s *DispatchScheduler) RunOnce(ctx context.Context) ([]app.DispatchResult, error) {
	asOf := expiry.TodayAt(s.now())
	results, err := s.dispatcher.DispatchDueNotifications(ctx, asOf)
	if s.observer != nil {
		s.observer.ObserveDueRun(err)
	}

	sent, failed := tally(results)
	logCtx := s.logger.WithFields(logrus.Fields{
		"as_of":  expiry.Format(asOf),
		"sent":   sent,
		"failed": failed,
	})
	if err != nil {
		logCtx.WithError(err).Error("Dispatch-due run stopped early")
	} else {
		logCtx.Info("Dispatch-due run finished")
	}

	if failed > 0 || err != nil {
		s.report(asOf, results, err)
	}
	return results, err
}

func (s *DispatchScheduler) report(asOf time.Time, results []app.DispatchResult, runErr error) {
	if s.reporter == nil {
		return
	}
	if err := s.reporter.Report(Summary(asOf, results, runErr)); err != nil {
		s.logger.WithError(err).Warn("Failed to send dispatch report to admin")
	}
}

// Summary renders a plain text report of a dispatch run.
func Summary(asOf time.Time, results []app.DispatchResult, runErr error) string {
	sent, failed := tally(results)
	var b strings.Builder
	fmt.Fprintf(&b, "Dispatch run %s: %d sent, %d failed", expiry.Format(asOf), sent, failed)
	for _, r := range results {
		if r.State == notification.StateSent && r.Err == nil {
			continue
		}
		fmt.Fprintf(&b, "\n- %s (%s): %v", r.SubjectIdentifier, r.Method, r.Err)
	}
	if runErr != nil {
		fmt.Fprintf(&b, "\nRun error: %v", runErr)
	}
	return b.String()
}

func tally(results []app.DispatchResult) (sent, failed int) {
	for _, r := range results {
		if r.State == notification.StateSent && r.Err == nil {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed
}

func (s *DispatchScheduler) Stop() {
	s.logger.Info("Stopping dispatch scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Dispatch scheduler gracefully stopped.")
}
