package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewal_notifier/internal/domain/subject"
)

var scheduled = time.Date(2024, time.January, 14, 0, 0, 0, 0, time.UTC)

func TestNew_Valid(t *testing.T) {
	n, err := New(subject.KindDomain, " example.com ", "Namecheap", scheduled, MethodEmail)
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "example.com", n.SubjectIdentifier)
	assert.Equal(t, scheduled, n.ScheduledDate)
	assert.False(t, n.Sent)
	assert.False(t, n.SentAt.Valid)
	assert.Equal(t, StatePending, n.State())
	assert.Equal(t, "2024-01-15", n.ExpirationDate().Format("2006-01-02"))
}

func TestNew_TruncatesScheduledDate(t *testing.T) {
	n, err := New(subject.KindHosting, "example.org", "Hostinger", time.Date(2024, time.January, 14, 18, 30, 0, 0, time.UTC), MethodWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, scheduled, n.ScheduledDate)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		kind      subject.Kind
		id        string
		provider  string
		date      time.Time
		method    Method
		wantField string
	}{
		{"missing kind", "", "example.com", "p", scheduled, MethodEmail, "kind"},
		{"unknown kind", subject.Kind("SERVER"), "example.com", "p", scheduled, MethodEmail, "kind"},
		{"missing identifier", subject.KindDomain, "  ", "p", scheduled, MethodEmail, "subjectIdentifier"},
		{"missing provider", subject.KindDomain, "example.com", "", scheduled, MethodEmail, "provider"},
		{"missing date", subject.KindDomain, "example.com", "p", time.Time{}, MethodEmail, "scheduledDate"},
		{"missing method", subject.KindDomain, "example.com", "p", scheduled, "", "method"},
		{"unknown method", subject.KindDomain, "example.com", "p", scheduled, Method("SMS"), "method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(tt.kind, tt.id, tt.provider, tt.date, tt.method)
			assert.Nil(t, n)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestMarkSent_SecondCallRejected(t *testing.T) {
	n, err := New(subject.KindDomain, "example.com", "Namecheap", scheduled, MethodEmail)
	require.NoError(t, err)

	first := time.Date(2024, time.January, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, n.MarkSent(first))
	assert.True(t, n.Sent)
	assert.Equal(t, StateSent, n.State())

	err = n.MarkSent(first.Add(time.Hour))
	var serr *InvalidStateError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, n.ID, serr.ID)
	assert.Equal(t, first, n.SentAt.Time)
}

func TestDueBy(t *testing.T) {
	n, err := New(subject.KindDomain, "example.com", "Namecheap", scheduled, MethodEmail)
	require.NoError(t, err)

	assert.False(t, n.DueBy(scheduled.AddDate(0, 0, -1)))
	assert.True(t, n.DueBy(scheduled))
	assert.True(t, n.DueBy(scheduled.Add(20*time.Hour)))

	require.NoError(t, n.MarkSent(scheduled))
	assert.False(t, n.DueBy(scheduled))
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" whatsapp ")
	require.NoError(t, err)
	assert.Equal(t, MethodWhatsApp, m)

	_, err = ParseMethod("telegram")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestErrorMessagesNameTheChannel(t *testing.T) {
	cause := errors.New("535 authentication failed")
	terr := &TransportError{Channel: MethodEmail, Err: cause}
	assert.Equal(t, "email delivery failed: 535 authentication failed", terr.Error())
	assert.ErrorIs(t, terr, cause)

	cerr := &ConfigurationError{Channel: MethodWhatsApp, Reason: "TWILIO_AUTH_TOKEN is not set"}
	assert.Equal(t, "whatsapp channel is not configured: TWILIO_AUTH_TOKEN is not set", cerr.Error())
}
