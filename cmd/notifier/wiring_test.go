package main

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewal_notifier/internal/app"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/infra/config"
)

func TestBuildRuntime_MissingCredentialsDisableChannels(t *testing.T) {
	ctx := context.Background()
	rt, err := buildRuntime(ctx, &config.AppConfig{SQLitePath: ":memory:"}, false)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	require.NotNil(t, rt.db)

	_, err = rt.admin.Notifications.SendTestNotification(ctx, notification.MethodEmail, "ops@example.com")
	var cerr *notification.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, notification.MethodEmail, cerr.Channel)
	assert.Contains(t, cerr.Error(), "EMAIL_USER")

	_, err = rt.admin.Notifications.SendTestNotification(ctx, notification.MethodWhatsApp, "+15550001111")
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Error(), "TWILIO_ACCOUNT_SID")

	assert.InDelta(t, 1, testutil.ToFloat64(rt.metrics.DispatchTotal.WithLabelValues("EMAIL", app.OutcomeRejected)), 0)

	// The database starts empty; only the read-only store is seeded.
	domains, err := rt.admin.Subjects.ListDomains(ctx)
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestBuildRuntime_ReadOnly(t *testing.T) {
	ctx := context.Background()
	rt, err := buildRuntime(ctx, &config.AppConfig{}, true)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	assert.Nil(t, rt.db)

	domains, err := rt.admin.Subjects.ListDomains(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, domains)

	n, err := rt.admin.Notifications.ScheduleNotification(ctx, domains[0].ID, notification.MethodEmail)
	require.NoError(t, err)
	assert.Equal(t, domains[0].Name, n.SubjectIdentifier)

	_, err = rt.admin.Notifications.SendTestNotification(ctx, notification.MethodEmail, "ops@example.com")
	var cerr *notification.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Error(), errReadOnlySession.Error())
}
