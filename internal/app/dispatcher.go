package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"

	"github.com/sirupsen/logrus"
)

const (
	testPrefix          = "[TEST] "
	testSubject         = "example.com"
	testProvider        = "Example Provider"
	testExpirationAhead = 7 // days
)

// Dispatch outcomes reported to the Observer.
const (
	OutcomeSent     = "sent"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Observer receives one call per dispatch attempt.
type Observer interface {
	ObserveDispatch(method notification.Method, outcome string)
}

type noopObserver struct{}

func (noopObserver) ObserveDispatch(notification.Method, string) {}

// Result is what a successful dispatch returns.
type Result struct {
	NotificationID     string
	Method             notification.Method
	TransportMessageID string
}

// Dispatcher renders a notification and hands it to a transport.
// It holds no per-notification state, so one Dispatcher serves concurrent calls.
type Dispatcher struct {
	logger   *logrus.Entry
	observer Observer
	now      func() time.Time
}

func NewDispatcher(logger *logrus.Entry, observer Observer) *Dispatcher {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Dispatcher{
		logger:   logger,
		observer: observer,
		now:      time.Now,
	}
}

// Dispatch sends n through t to the given recipient and marks n sent on success.
// On any failure n is left untouched so the send can be attempted again later.
func (d *Dispatcher) Dispatch(ctx context.Context, n *notification.Notification, t notification.Transport, to string) (Result, error) {
	logCtx := d.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"method":          n.Method,
		"state":           notification.StateDispatching,
	})

	msg, err := d.prepare(logCtx, n, t, to)
	if err != nil {
		return Result{}, err
	}
	return d.deliver(ctx, logCtx, n, t, to, msg)
}

// SendTest dispatches a synthetic domain reminder that expires in seven days.
// The synthetic record is never persisted.
func (d *Dispatcher) SendTest(ctx context.Context, method notification.Method, destination string, t notification.Transport) (Result, error) {
	if strings.TrimSpace(destination) == "" {
		d.Reject(method)
		return Result{}, &notification.ValidationError{Field: "destination", Reason: "is required"}
	}

	expiration := expiry.TodayAt(d.now()).AddDate(0, 0, testExpirationAhead)
	n, err := notification.New(subject.KindDomain, testSubject, testProvider, expiry.ReminderDate(expiration), method)
	if err != nil {
		d.Reject(method)
		return Result{}, err
	}
	logCtx := d.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"method":          n.Method,
		"test":            true,
	})

	msg, err := d.prepare(logCtx, n, t, destination)
	if err != nil {
		return Result{}, err
	}
	if msg.Subject != "" {
		msg.Subject = testPrefix + msg.Subject
	}
	if msg.Body != "" {
		msg.Body = testPrefix + msg.Body
	}

	return d.deliver(ctx, logCtx, n, t, destination, msg)
}

// Reject counts a dispatch that was refused before any transport was involved,
// such as a channel that could not be resolved.
func (d *Dispatcher) Reject(method notification.Method) {
	d.observer.ObserveDispatch(method, OutcomeRejected)
}

// prepare runs the pre-flight checks and renders the message. Every refusal is
// counted as rejected and leaves n untouched.
func (d *Dispatcher) prepare(logCtx *logrus.Entry, n *notification.Notification, t notification.Transport, to string) (notification.Message, error) {
	err := preflight(n, t, to)
	if err != nil {
		logCtx.WithError(err).Warn("Notification rejected before delivery")
		d.Reject(n.Method)
		return notification.Message{}, err
	}

	// Render completely before touching the transport.
	msg, err := RenderMessage(n.Kind, n.SubjectIdentifier, n.ExpirationDate(), n.Provider, n.Method)
	if err != nil {
		logCtx.WithError(err).Warn("Notification could not be rendered")
		d.Reject(n.Method)
		return notification.Message{}, err
	}
	return msg, nil
}

func preflight(n *notification.Notification, t notification.Transport, to string) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.Sent {
		return &notification.InvalidStateError{ID: n.ID, Reason: "already sent"}
	}
	if t == nil {
		return &notification.ConfigurationError{Channel: n.Method, Reason: "no transport provided"}
	}
	if t.Method() != n.Method {
		return &notification.ConfigurationError{
			Channel: n.Method,
			Reason:  "transport handles " + string(t.Method()) + ", not " + string(n.Method),
		}
	}
	if strings.TrimSpace(to) == "" {
		return &notification.ConfigurationError{Channel: n.Method, Reason: "no recipient configured"}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, logCtx *logrus.Entry, n *notification.Notification, t notification.Transport, to string, msg notification.Message) (Result, error) {
	messageID, err := t.Deliver(ctx, to, msg)
	if err != nil {
		err = asDispatchError(n.Method, err)
		logCtx.WithField("state", notification.StateFailed).WithError(err).Error("Failed to deliver notification")
		d.observer.ObserveDispatch(n.Method, OutcomeFailed)
		return Result{}, err
	}

	if err := n.MarkSent(d.now()); err != nil {
		logCtx.WithError(err).Error("Delivered notification could not be marked as sent")
		d.observer.ObserveDispatch(n.Method, OutcomeRejected)
		return Result{}, err
	}

	logCtx.WithFields(logrus.Fields{
		"state":                notification.StateSent,
		"transport_message_id": messageID,
	}).Info("Notification delivered")
	d.observer.ObserveDispatch(n.Method, OutcomeSent)

	return Result{NotificationID: n.ID, Method: n.Method, TransportMessageID: messageID}, nil
}

// asDispatchError keeps typed errors from the transport and wraps anything else
// as a TransportError for the channel.
func asDispatchError(method notification.Method, err error) error {
	var (
		terr *notification.TransportError
		cerr *notification.ConfigurationError
		verr *notification.ValidationError
	)
	if errors.As(err, &terr) || errors.As(err, &cerr) || errors.As(err, &verr) {
		return err
	}
	return &notification.TransportError{Channel: method, Err: err}
}
