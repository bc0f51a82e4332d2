package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"
)

var fixedNow = time.Date(2024, time.January, 14, 9, 0, 0, 0, time.UTC)

func newTestDispatcher(obs Observer) *Dispatcher {
	d := NewDispatcher(testLogger(), obs)
	d.now = func() time.Time { return fixedNow }
	return d
}

func pendingNotification(t *testing.T, method notification.Method) *notification.Notification {
	t.Helper()
	n, err := notification.New(subject.KindDomain, "example.com", "Namecheap",
		time.Date(2024, time.January, 14, 0, 0, 0, 0, time.UTC), method)
	require.NoError(t, err)
	return n
}

func TestDispatch_Success(t *testing.T) {
	obs := &countingObserver{}
	d := newTestDispatcher(obs)
	tr := &fakeTransport{method: notification.MethodEmail}
	n := pendingNotification(t, notification.MethodEmail)

	res, err := d.Dispatch(context.Background(), n, tr, "ops@example.com")
	require.NoError(t, err)

	assert.Equal(t, "msg-EMAIL", res.TransportMessageID)
	assert.Equal(t, n.ID, res.NotificationID)
	assert.True(t, n.Sent)
	assert.Equal(t, fixedNow, n.SentAt.Time)

	require.Equal(t, 1, tr.calls())
	assert.Equal(t, "ops@example.com", tr.deliveries[0].To)
	assert.Contains(t, tr.deliveries[0].Msg.Subject, "example.com")
	assert.Contains(t, tr.deliveries[0].Msg.Subject, "January 15, 2024")
	assert.Equal(t, 1, obs.count(notification.MethodEmail, OutcomeSent))
}

func TestDispatch_MethodMismatchLeavesNotificationPending(t *testing.T) {
	obs := &countingObserver{}
	d := newTestDispatcher(obs)
	emailOnly := &fakeTransport{method: notification.MethodEmail}
	n := pendingNotification(t, notification.MethodWhatsApp)

	_, err := d.Dispatch(context.Background(), n, emailOnly, "+15550001111")

	var cerr *notification.ConfigurationError
	require.True(t, errors.As(err, &cerr), "expected ConfigurationError, got %v", err)
	assert.Equal(t, notification.MethodWhatsApp, cerr.Channel)
	assert.False(t, n.Sent)
	assert.Zero(t, emailOnly.calls())
	assert.Equal(t, 1, obs.count(notification.MethodWhatsApp, OutcomeRejected))
}

func TestDispatch_TransportFailure(t *testing.T) {
	obs := &countingObserver{}
	d := newTestDispatcher(obs)
	cause := errors.New("dial tcp: connection refused")
	tr := &fakeTransport{method: notification.MethodEmail, err: cause}
	n := pendingNotification(t, notification.MethodEmail)

	_, err := d.Dispatch(context.Background(), n, tr, "ops@example.com")

	var terr *notification.TransportError
	require.True(t, errors.As(err, &terr))
	assert.ErrorIs(t, err, cause)
	assert.False(t, n.Sent)
	assert.False(t, n.SentAt.Valid)
	assert.Equal(t, 1, obs.count(notification.MethodEmail, OutcomeFailed))
}

func TestDispatch_KeepsTypedTransportErrors(t *testing.T) {
	d := newTestDispatcher(nil)
	cfg := &notification.ConfigurationError{Channel: notification.MethodEmail, Reason: "bad sender"}
	tr := &fakeTransport{method: notification.MethodEmail, err: cfg}

	_, err := d.Dispatch(context.Background(), pendingNotification(t, notification.MethodEmail), tr, "ops@example.com")
	assert.Same(t, cfg, err)
}

func TestDispatch_AlreadySent(t *testing.T) {
	d := newTestDispatcher(nil)
	tr := &fakeTransport{method: notification.MethodEmail}
	n := pendingNotification(t, notification.MethodEmail)
	require.NoError(t, n.MarkSent(fixedNow.Add(-time.Hour)))

	_, err := d.Dispatch(context.Background(), n, tr, "ops@example.com")

	var serr *notification.InvalidStateError
	require.True(t, errors.As(err, &serr))
	assert.Zero(t, tr.calls())
}

func TestDispatch_InvalidRecordNeverReachesTransport(t *testing.T) {
	d := newTestDispatcher(nil)
	tr := &fakeTransport{method: notification.MethodEmail}
	n := pendingNotification(t, notification.MethodEmail)
	n.Provider = ""

	_, err := d.Dispatch(context.Background(), n, tr, "ops@example.com")

	var verr *notification.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "provider", verr.Field)
	assert.Zero(t, tr.calls())
}

func TestDispatch_MissingRecipientOrTransport(t *testing.T) {
	d := newTestDispatcher(nil)
	n := pendingNotification(t, notification.MethodEmail)

	var cerr *notification.ConfigurationError
	_, err := d.Dispatch(context.Background(), n, &fakeTransport{method: notification.MethodEmail}, " ")
	assert.True(t, errors.As(err, &cerr))

	_, err = d.Dispatch(context.Background(), n, nil, "ops@example.com")
	assert.True(t, errors.As(err, &cerr))
	assert.False(t, n.Sent)
}

func TestSendTest_Email(t *testing.T) {
	d := newTestDispatcher(nil)
	tr := &fakeTransport{method: notification.MethodEmail}

	res, err := d.SendTest(context.Background(), notification.MethodEmail, "user@example.com", tr)
	require.NoError(t, err)
	assert.Equal(t, "msg-EMAIL", res.TransportMessageID)

	require.Equal(t, 1, tr.calls())
	msg := tr.deliveries[0].Msg
	assert.True(t, strings.HasPrefix(msg.Subject, "[TEST] "))
	assert.Contains(t, msg.Subject, "example.com")
	// Seven days after the fixed clock.
	assert.Contains(t, msg.Text, "January 21, 2024")
}

func TestSendTest_WhatsApp(t *testing.T) {
	d := newTestDispatcher(nil)
	tr := &fakeTransport{method: notification.MethodWhatsApp}

	_, err := d.SendTest(context.Background(), notification.MethodWhatsApp, "+15550001111", tr)
	require.NoError(t, err)
	require.Equal(t, 1, tr.calls())
	assert.True(t, strings.HasPrefix(tr.deliveries[0].Msg.Body, "[TEST] "))
}

func TestSendTest_Rejections(t *testing.T) {
	d := newTestDispatcher(nil)
	tr := &fakeTransport{method: notification.MethodEmail}

	var verr *notification.ValidationError
	_, err := d.SendTest(context.Background(), notification.MethodEmail, "", tr)
	assert.True(t, errors.As(err, &verr))

	_, err = d.SendTest(context.Background(), notification.Method("SMS"), "user@example.com", tr)
	assert.True(t, errors.As(err, &verr))

	var cerr *notification.ConfigurationError
	_, err = d.SendTest(context.Background(), notification.MethodWhatsApp, "+15550001111", tr)
	assert.True(t, errors.As(err, &cerr))

	assert.Zero(t, tr.calls())
}

func TestSendTest_RejectionsAreObserved(t *testing.T) {
	obs := &countingObserver{}
	d := newTestDispatcher(obs)
	emailOnly := &fakeTransport{method: notification.MethodEmail}

	_, err := d.SendTest(context.Background(), notification.MethodWhatsApp, "+15550001111", emailOnly)
	require.Error(t, err)
	_, err = d.SendTest(context.Background(), notification.MethodEmail, "user@example.com", nil)
	require.Error(t, err)
	_, err = d.SendTest(context.Background(), notification.MethodEmail, " ", emailOnly)
	require.Error(t, err)

	assert.Equal(t, 1, obs.count(notification.MethodWhatsApp, OutcomeRejected))
	assert.Equal(t, 2, obs.count(notification.MethodEmail, OutcomeRejected))
	assert.Zero(t, obs.count(notification.MethodEmail, OutcomeSent))
	assert.Zero(t, emailOnly.calls())
}
