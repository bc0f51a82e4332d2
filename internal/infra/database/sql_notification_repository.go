// internal/infra/database/sql_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
)

const notificationColumns = `id, kind, subject_identifier, provider, scheduled_date, method, sent, sent_at, created_at, updated_at`

type SQLNotificationRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLNotificationRepository(db *sql.DB, dialect Dialect) *SQLNotificationRepository {
	return &SQLNotificationRepository{db: db, dialect: dialect}
}

func (r *SQLNotificationRepository) CreateNotification(ctx context.Context, n *notification.Notification) error {
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	query := r.dialect.rebind(`INSERT INTO notifications (` + notificationColumns + `)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.Kind, n.SubjectIdentifier, n.Provider, expiry.Truncate(n.ScheduledDate), n.Method,
		n.Sent, utcNullTime(n.SentAt), n.CreatedAt.UTC(), n.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *SQLNotificationRepository) GetNotification(ctx context.Context, id string) (*notification.Notification, error) {
	query := r.dialect.rebind(`SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`)
	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notification.ErrNotFound
		}
		return nil, fmt.Errorf("error getting notification by ID: %w", err)
	}
	return n, nil
}

func (r *SQLNotificationRepository) ListNotifications(ctx context.Context) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications ORDER BY scheduled_date, id`
	return r.query(ctx, query)
}

func (r *SQLNotificationRepository) ListDueNotifications(ctx context.Context, asOf time.Time) ([]*notification.Notification, error) {
	query := r.dialect.rebind(`SELECT ` + notificationColumns + `
               FROM notifications
               WHERE sent = ? AND scheduled_date <= ?
               ORDER BY scheduled_date, id`)
	return r.query(ctx, query, false, expiry.Truncate(asOf))
}

// MarkNotificationSent only updates a row that is still pending, so of two
// concurrent callers exactly one succeeds.
func (r *SQLNotificationRepository) MarkNotificationSent(ctx context.Context, id string, at time.Time) error {
	at = at.UTC()
	query := r.dialect.rebind(`UPDATE notifications
               SET sent = ?, sent_at = ?, updated_at = ?
               WHERE id = ? AND sent = ?`)
	res, err := r.db.ExecContext(ctx, query, true, at, at, id, false)
	if err != nil {
		return fmt.Errorf("error marking notification as sent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected for notification %s: %w", id, err)
	}
	if affected == 1 {
		return nil
	}

	var sentAt sql.NullTime
	err = r.db.QueryRowContext(ctx, r.dialect.rebind(`SELECT sent_at FROM notifications WHERE id = ?`), id).Scan(&sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return notification.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error checking notification %s: %w", id, err)
	}
	reason := "already sent"
	if sentAt.Valid {
		reason += " at " + sentAt.Time.UTC().Format(time.RFC3339)
	}
	return &notification.InvalidStateError{ID: id, Reason: reason}
}

func (r *SQLNotificationRepository) DeleteNotification(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM notifications WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("error deleting notification: %w", err)
	}
	return expectOneRow(res, notification.ErrNotFound)
}

func (r *SQLNotificationRepository) query(ctx context.Context, query string, args ...any) ([]*notification.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications: %w", err)
	}
	defer rows.Close()

	var list []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*notification.Notification, error) {
	n := notification.Notification{}
	err := row.Scan(
		&n.ID, &n.Kind, &n.SubjectIdentifier, &n.Provider, &n.ScheduledDate, &n.Method,
		&n.Sent, &n.SentAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.ScheduledDate = expiry.Truncate(n.ScheduledDate)
	n.SentAt = utcNullTime(n.SentAt)
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return &n, nil
}

func utcNullTime(t sql.NullTime) sql.NullTime {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}

func expectOneRow(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
