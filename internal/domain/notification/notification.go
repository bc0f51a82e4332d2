// internal/domain/notification/notification.go
package notification

import (
	"database/sql"
	"strings"
	"time"

	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/subject"

	"github.com/google/uuid"
)

// Notification is a reminder scheduled for the day before a subject expires.
// It keeps a copy of the subject fields it needs to render a message and holds
// no reference to the subject itself.
// Corresponds to the 'notifications' table.
type Notification struct {
	ID                string
	Kind              subject.Kind
	SubjectIdentifier string
	Provider          string
	ScheduledDate     time.Time // calendar date, see expiry.Truncate
	Method            Method
	Sent              bool
	SentAt            sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// New builds a pending notification. It never returns a partially valid record.
func New(kind subject.Kind, subjectIdentifier, provider string, scheduledDate time.Time, method Method) (*Notification, error) {
	n := &Notification{
		ID:                uuid.NewString(),
		Kind:              kind,
		SubjectIdentifier: strings.TrimSpace(subjectIdentifier),
		Provider:          strings.TrimSpace(provider),
		Method:            method,
	}
	if !scheduledDate.IsZero() {
		n.ScheduledDate = expiry.Truncate(scheduledDate)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks the fields New requires. Records loaded from a store go
// through the same check before they are dispatched.
func (n *Notification) Validate() error {
	switch {
	case n.Kind == "":
		return &ValidationError{Field: "kind", Reason: "is required"}
	case !n.Kind.Valid():
		return &ValidationError{Field: "kind", Reason: "must be DOMAIN or HOSTING, got " + quote(string(n.Kind))}
	case strings.TrimSpace(n.SubjectIdentifier) == "":
		return &ValidationError{Field: "subjectIdentifier", Reason: "is required"}
	case strings.TrimSpace(n.Provider) == "":
		return &ValidationError{Field: "provider", Reason: "is required"}
	case n.ScheduledDate.IsZero():
		return &ValidationError{Field: "scheduledDate", Reason: "is required"}
	case n.Method == "":
		return &ValidationError{Field: "method", Reason: "is required"}
	case !n.Method.Valid():
		return &ValidationError{Field: "method", Reason: "must be EMAIL or WHATSAPP, got " + quote(string(n.Method))}
	}
	return nil
}

// MarkSent records a successful delivery. A second call is rejected and leaves
// SentAt as set by the first one.
func (n *Notification) MarkSent(at time.Time) error {
	if n.Sent {
		return &InvalidStateError{ID: n.ID, Reason: "already sent at " + n.SentAt.Time.Format(time.RFC3339)}
	}
	n.Sent = true
	n.SentAt = sql.NullTime{Time: at, Valid: true}
	n.UpdatedAt = at
	return nil
}

// State returns PENDING or SENT.
func (n *Notification) State() State {
	if n.Sent {
		return StateSent
	}
	return StatePending
}

// ExpirationDate is the subject's expiration, one day after the reminder.
func (n *Notification) ExpirationDate() time.Time {
	return n.ScheduledDate.AddDate(0, 0, expiry.ReminderLead)
}

// DueBy reports whether a pending notification should fire on or before asOf.
func (n *Notification) DueBy(asOf time.Time) bool {
	return !n.Sent && !n.ScheduledDate.After(expiry.Truncate(asOf))
}
