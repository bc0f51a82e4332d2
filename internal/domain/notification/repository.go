// internal/domain/notification/repository.go
package notification

import (
	"context"
	"fmt"
	"time"
)

// ErrNotFound is returned when no notification matches the given ID.
var ErrNotFound = fmt.Errorf("notification not found")

// Repository defines persistence for notifications.
type Repository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetNotification(ctx context.Context, id string) (*Notification, error)
	// ListNotifications returns every notification in no particular order.
	ListNotifications(ctx context.Context) ([]*Notification, error)
	// ListDueNotifications returns pending notifications scheduled on or before asOf.
	ListDueNotifications(ctx context.Context, asOf time.Time) ([]*Notification, error)
	// MarkNotificationSent flips sent from false to true. It returns an
	// *InvalidStateError when the notification was already sent, so two
	// processes racing on the same ID cannot both record a send.
	MarkNotificationSent(ctx context.Context, id string, at time.Time) error
	DeleteNotification(ctx context.Context, id string) error
}
