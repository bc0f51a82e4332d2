// Package memstore keeps notifications and subjects in process memory.
// It backs read-only sessions: everything written here is gone when the
// process exits and nothing reaches the database.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"

	"github.com/patrickmn/go-cache"
)

const (
	notificationPrefix = "notification:"
	domainPrefix       = "domain:"
	hostingPrefix      = "hosting:"
)

// Store implements notification.Repository and subject.Repository on top of go-cache.
// Records are copied on the way in and out so callers never share memory with the store.
type Store struct {
	items *cache.Cache
	// mu serializes read-modify-write sequences; go-cache only locks single calls.
	mu sync.Mutex
}

// New returns a store whose entries live for ttl. A ttl of zero keeps entries
// until the process exits. cleanupInterval controls go-cache's janitor; zero
// disables it and expired entries are then dropped lazily on read.
func New(ttl, cleanupInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Store{items: cache.New(ttl, cleanupInterval)}
}

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	s.items.Set(notificationPrefix+n.ID, copyNotification(n), cache.DefaultExpiration)
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*notification.Notification, error) {
	v, ok := s.items.Get(notificationPrefix + id)
	if !ok {
		return nil, notification.ErrNotFound
	}
	return copyNotification(v.(*notification.Notification)), nil
}

func (s *Store) ListNotifications(ctx context.Context) ([]*notification.Notification, error) {
	var list []*notification.Notification
	for key, item := range s.items.Items() {
		if strings.HasPrefix(key, notificationPrefix) {
			list = append(list, copyNotification(item.Object.(*notification.Notification)))
		}
	}
	return list, nil
}

func (s *Store) ListDueNotifications(ctx context.Context, asOf time.Time) ([]*notification.Notification, error) {
	all, err := s.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}
	due := make([]*notification.Notification, 0, len(all))
	for _, n := range all {
		if n.DueBy(asOf) {
			due = append(due, n)
		}
	}
	return due, nil
}

func (s *Store) MarkNotificationSent(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items.Get(notificationPrefix + id)
	if !ok {
		return notification.ErrNotFound
	}
	n := copyNotification(v.(*notification.Notification))
	if err := n.MarkSent(at.UTC()); err != nil {
		return err
	}
	s.items.Set(notificationPrefix+id, n, cache.DefaultExpiration)
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	return s.delete(notificationPrefix+id, notification.ErrNotFound)
}

func (s *Store) CreateDomain(ctx context.Context, d *subject.Domain) error {
	c := *d
	s.items.Set(domainPrefix+d.ID, &c, cache.DefaultExpiration)
	return nil
}

func (s *Store) GetDomain(ctx context.Context, id string) (*subject.Domain, error) {
	v, ok := s.items.Get(domainPrefix + id)
	if !ok {
		return nil, subject.ErrNotFound
	}
	c := *v.(*subject.Domain)
	return &c, nil
}

func (s *Store) ListDomains(ctx context.Context) ([]*subject.Domain, error) {
	var list []*subject.Domain
	for key, item := range s.items.Items() {
		if strings.HasPrefix(key, domainPrefix) {
			c := *item.Object.(*subject.Domain)
			list = append(list, &c)
		}
	}
	return list, nil
}

func (s *Store) DeleteDomain(ctx context.Context, id string) error {
	return s.delete(domainPrefix+id, subject.ErrNotFound)
}

func (s *Store) CreateHosting(ctx context.Context, h *subject.Hosting) error {
	c := *h
	s.items.Set(hostingPrefix+h.ID, &c, cache.DefaultExpiration)
	return nil
}

func (s *Store) GetHosting(ctx context.Context, id string) (*subject.Hosting, error) {
	v, ok := s.items.Get(hostingPrefix + id)
	if !ok {
		return nil, subject.ErrNotFound
	}
	c := *v.(*subject.Hosting)
	return &c, nil
}

func (s *Store) ListHostings(ctx context.Context) ([]*subject.Hosting, error) {
	var list []*subject.Hosting
	for key, item := range s.items.Items() {
		if strings.HasPrefix(key, hostingPrefix) {
			c := *item.Object.(*subject.Hosting)
			list = append(list, &c)
		}
	}
	return list, nil
}

func (s *Store) DeleteHosting(ctx context.Context, id string) error {
	return s.delete(hostingPrefix+id, subject.ErrNotFound)
}

func (s *Store) delete(key string, notFound error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items.Get(key); !ok {
		return notFound
	}
	s.items.Delete(key)
	return nil
}

func copyNotification(n *notification.Notification) *notification.Notification {
	c := *n
	return &c
}
