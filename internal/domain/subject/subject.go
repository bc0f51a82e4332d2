package subject

import (
	"fmt"
	"time"
)

// ErrNotFound is returned by repositories when no domain or hosting matches the given ID.
var ErrNotFound = fmt.Errorf("subject not found")

// HostingMaintenanceRate is the share of the base cost charged as maintenance on hosting.
const HostingMaintenanceRate = 0.20

// Domain is a registered domain name.
// Website holds the registrar the domain was bought from.
type Domain struct {
	ID             string
	Name           string
	Website        string
	CreationDate   time.Time
	PaymentPeriod  BillingPeriod
	ExpirationDate time.Time
	BaseCost       float64
	MaintenanceFee float64
	TotalCost      float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Hosting is a hosting subscription attached to a domain.
type Hosting struct {
	ID               string
	Domain           string
	Provider         string
	PaymentType      BillingPeriod
	IncludesHosting  bool
	RegistrationDate time.Time
	BaseCost         float64
	MaintenanceFee   float64
	TotalCost        float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Snapshot is the subset of a subject a reminder needs. Notifications copy it
// instead of referencing the subject, so renaming or deleting the subject later
// does not affect reminders that were already scheduled.
type Snapshot struct {
	Kind       Kind
	Identifier string
	Provider   string
	StartDate  time.Time
	Period     BillingPeriod
}

func (d *Domain) Snapshot() Snapshot {
	return Snapshot{
		Kind:       KindDomain,
		Identifier: d.Name,
		Provider:   d.Website,
		StartDate:  d.CreationDate,
		Period:     d.PaymentPeriod,
	}
}

func (h *Hosting) Snapshot() Snapshot {
	return Snapshot{
		Kind:       KindHosting,
		Identifier: h.Domain,
		Provider:   h.Provider,
		StartDate:  h.RegistrationDate,
		Period:     h.PaymentType,
	}
}
