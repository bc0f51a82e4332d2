package subject

import (
	"context"
)

// Repository defines the operations for persisting and retrieving domains and hosting.
// Lookups return ErrNotFound when the ID is unknown.
type Repository interface {
	CreateDomain(ctx context.Context, d *Domain) error
	GetDomain(ctx context.Context, id string) (*Domain, error)
	ListDomains(ctx context.Context) ([]*Domain, error)
	DeleteDomain(ctx context.Context, id string) error

	CreateHosting(ctx context.Context, h *Hosting) error
	GetHosting(ctx context.Context, id string) (*Hosting, error)
	ListHostings(ctx context.Context) ([]*Hosting, error)
	DeleteHosting(ctx context.Context, id string) error
}
