// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"

	"github.com/sirupsen/logrus"
)

// Persistence is the record store the services work against. There are two
// implementations: the SQL store and the ephemeral in-memory store used for
// read-only sessions. Which one a service gets is decided once, at composition.
type Persistence interface {
	notification.Repository
	subject.Repository
}

// TransportLookup resolves the transport configured for a method. When a
// method has no usable transport it returns a *notification.ConfigurationError.
type TransportLookup interface {
	Lookup(method notification.Method) (notification.Transport, error)
}

// Recipients holds the default destination per method for scheduled reminders.
type Recipients struct {
	Email    string
	WhatsApp string
}

// For returns the destination for method, or "" when none is configured.
func (r Recipients) For(method notification.Method) string {
	switch method {
	case notification.MethodEmail:
		return r.Email
	case notification.MethodWhatsApp:
		return r.WhatsApp
	default:
		return ""
	}
}

// DispatchResult is the outcome for one notification in a due run.
type DispatchResult struct {
	NotificationID     string
	SubjectIdentifier  string
	Method             notification.Method
	State              notification.State
	TransportMessageID string
	Err                error
}

// NotificationService schedules reminders and dispatches them when they fall due.
type NotificationService struct {
	store      Persistence
	dispatcher *Dispatcher
	transports TransportLookup
	recipients Recipients
	logger     *logrus.Entry
}

func NewNotificationService(
	store Persistence,
	dispatcher *Dispatcher,
	transports TransportLookup,
	recipients Recipients,
	logger *logrus.Entry,
) *NotificationService {
	return &NotificationService{
		store:      store,
		dispatcher: dispatcher,
		transports: transports,
		recipients: recipients,
		logger:     logger,
	}
}

// ScheduleNotification creates a reminder for the day before the subject expires.
// subjectID may name either a domain or a hosting record.
func (s *NotificationService) ScheduleNotification(ctx context.Context, subjectID string, method notification.Method) (*notification.Notification, error) {
	logCtx := s.logger.WithFields(logrus.Fields{"subject_id": subjectID, "method": method})

	snap, err := s.lookupSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if !snap.Period.ValidFor(snap.Kind) {
		logCtx.WithFields(logrus.Fields{
			"kind":   snap.Kind,
			"period": snap.Period,
		}).Warn("Unrecognized billing period, falling back to the shortest period")
	}

	expiration := expiry.ComputeExpiration(snap.StartDate, snap.Period, snap.Kind)
	n, err := notification.New(snap.Kind, snap.Identifier, snap.Provider, expiry.ReminderDate(expiration), method)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateNotification(ctx, n); err != nil {
		logCtx.WithError(err).Error("Failed to persist scheduled notification")
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	logCtx.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"expiration":      expiry.Format(expiration),
		"scheduled_date":  expiry.Format(n.ScheduledDate),
	}).Info("Notification scheduled")
	return n, nil
}

// CreateNotification stores a reminder for an explicit date, without looking up a subject.
func (s *NotificationService) CreateNotification(ctx context.Context, kind subject.Kind, subjectIdentifier, provider string, scheduledDate time.Time, method notification.Method) (*notification.Notification, error) {
	n, err := notification.New(kind, subjectIdentifier, provider, scheduledDate, method)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	s.logger.WithField("notification_id", n.ID).Info("Notification created")
	return n, nil
}

// ListNotifications returns all notifications ordered by scheduled date.
func (s *NotificationService) ListNotifications(ctx context.Context) ([]*notification.Notification, error) {
	list, err := s.store.ListNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	sortBySchedule(list)
	return list, nil
}

// DeleteNotification removes a notification. Nothing else is affected.
func (s *NotificationService) DeleteNotification(ctx context.Context, id string) error {
	if err := s.store.DeleteNotification(ctx, id); err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	s.logger.WithField("notification_id", id).Info("Notification deleted")
	return nil
}

// DispatchDueNotifications sends every pending notification scheduled on or before asOf.
// Each notification is dispatched independently; one failure does not stop the run.
// The returned error is only set when the due list could not be loaded or ctx ended.
func (s *NotificationService) DispatchDueNotifications(ctx context.Context, asOf time.Time) ([]DispatchResult, error) {
	asOf = expiry.Truncate(asOf)
	logCtx := s.logger.WithField("as_of", expiry.Format(asOf))

	due, err := s.store.ListDueNotifications(ctx, asOf)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list due notifications")
		return nil, fmt.Errorf("failed to list due notifications: %w", err)
	}
	sortBySchedule(due)
	logCtx.WithField("due_count", len(due)).Info("Dispatching due notifications")

	results := make([]DispatchResult, 0, len(due))
	for _, n := range due {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, s.dispatchOne(ctx, n))
	}
	return results, nil
}

func (s *NotificationService) dispatchOne(ctx context.Context, n *notification.Notification) DispatchResult {
	result := DispatchResult{
		NotificationID:    n.ID,
		SubjectIdentifier: n.SubjectIdentifier,
		Method:            n.Method,
		State:             notification.StateFailed,
	}
	logCtx := s.logger.WithFields(logrus.Fields{"notification_id": n.ID, "method": n.Method})

	t, err := s.transports.Lookup(n.Method)
	if err != nil {
		logCtx.WithError(err).Warn("No usable transport for notification")
		s.dispatcher.Reject(n.Method)
		result.Err = err
		return result
	}

	res, err := s.dispatcher.Dispatch(ctx, n, t, s.recipients.For(n.Method))
	if err != nil {
		result.Err = err
		return result
	}
	result.State = notification.StateSent
	result.TransportMessageID = res.TransportMessageID

	if err := s.store.MarkNotificationSent(ctx, n.ID, n.SentAt.Time); err != nil {
		var serr *notification.InvalidStateError
		if errors.As(err, &serr) {
			logCtx.WithError(err).Error("Notification was recorded as sent by another run")
		} else {
			logCtx.WithError(err).Error("Notification delivered but sent flag could not be stored")
		}
		result.Err = fmt.Errorf("delivered but not recorded: %w", err)
	}
	return result
}

// SendTestNotification sends a synthetic reminder to destination to check the channel's credentials.
func (s *NotificationService) SendTestNotification(ctx context.Context, method notification.Method, destination string) (Result, error) {
	if !method.Valid() {
		return Result{}, &notification.ValidationError{Field: "method", Reason: "must be EMAIL or WHATSAPP, got \"" + string(method) + "\""}
	}
	t, err := s.transports.Lookup(method)
	if err != nil {
		s.logger.WithError(err).WithField("method", method).Warn("Test notification not sent")
		s.dispatcher.Reject(method)
		return Result{}, err
	}
	return s.dispatcher.SendTest(ctx, method, destination, t)
}

func (s *NotificationService) lookupSubject(ctx context.Context, subjectID string) (subject.Snapshot, error) {
	d, err := s.store.GetDomain(ctx, subjectID)
	if err == nil {
		return d.Snapshot(), nil
	}
	if !errors.Is(err, subject.ErrNotFound) {
		return subject.Snapshot{}, fmt.Errorf("failed to get domain %s: %w", subjectID, err)
	}

	h, err := s.store.GetHosting(ctx, subjectID)
	if err == nil {
		return h.Snapshot(), nil
	}
	if errors.Is(err, subject.ErrNotFound) {
		return subject.Snapshot{}, fmt.Errorf("subject %s: %w", subjectID, subject.ErrNotFound)
	}
	return subject.Snapshot{}, fmt.Errorf("failed to get hosting %s: %w", subjectID, err)
}

func sortBySchedule(list []*notification.Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].ScheduledDate.Equal(list[j].ScheduledDate) {
			return list[i].ScheduledDate.Before(list[j].ScheduledDate)
		}
		return list[i].ID < list[j].ID
	})
}
