package memstore

import (
	"context"
	"fmt"
	"time"

	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"
)

// demoDomain expires expiresIn days after today.
type demoDomain struct {
	id, name, website string
	period            subject.BillingPeriod
	expiresIn         int
	base, fee         float64
}

type demoHosting struct {
	id, domain, provider string
	period               subject.BillingPeriod
	includesHosting      bool
	registeredAgo        int
	base                 float64
}

var demoDomains = []demoDomain{
	{id: "demo-domain-1", name: "example.com", website: "Namecheap", period: subject.PeriodOneYear, expiresIn: 10, base: 15.99, fee: 2.99},
	{id: "demo-domain-2", name: "shop.example.net", website: "GoDaddy", period: subject.PeriodTwoYears, expiresIn: 45, base: 29.99, fee: 3.99},
	{id: "demo-domain-3", name: "blog.example.org", website: "Porkbun", period: subject.PeriodThreeYears, expiresIn: 200, base: 42.50, fee: 0},
}

var demoHostings = []demoHosting{
	{id: "demo-hosting-1", domain: "example.com", provider: "Hostinger", period: subject.PeriodMonthly, includesHosting: true, registeredAgo: 20, base: 10},
	{id: "demo-hosting-2", domain: "shop.example.net", provider: "DigitalOcean", period: subject.PeriodAnnual, includesHosting: false, registeredAgo: 300, base: 120},
}

// Seed fills s with a small set of domains, hosting subscriptions and pending
// reminders so read-only sessions have something to browse. Expirations are
// placed relative to now. Seeding twice overwrites the same records.
func Seed(ctx context.Context, s *Store, now time.Time) error {
	today := expiry.TodayAt(now)

	for _, dd := range demoDomains {
		expiration := today.AddDate(0, 0, dd.expiresIn)
		created := expiration.AddDate(-periodYears(dd.period), 0, 0)
		d := &subject.Domain{
			ID:             dd.id,
			Name:           dd.name,
			Website:        dd.website,
			CreationDate:   created,
			PaymentPeriod:  dd.period,
			ExpirationDate: expiry.ComputeExpiration(created, dd.period, subject.KindDomain),
			BaseCost:       dd.base,
			MaintenanceFee: dd.fee,
			TotalCost:      dd.base + dd.fee,
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		if err := s.CreateDomain(ctx, d); err != nil {
			return fmt.Errorf("seed domain %s: %w", dd.name, err)
		}
	}

	for _, dh := range demoHostings {
		registered := today.AddDate(0, 0, -dh.registeredAgo)
		fee := dh.base * subject.HostingMaintenanceRate
		h := &subject.Hosting{
			ID:               dh.id,
			Domain:           dh.domain,
			Provider:         dh.provider,
			PaymentType:      dh.period,
			IncludesHosting:  dh.includesHosting,
			RegistrationDate: registered,
			BaseCost:         dh.base,
			MaintenanceFee:   fee,
			TotalCost:        dh.base + fee,
			CreatedAt:        registered,
			UpdatedAt:        registered,
		}
		if err := s.CreateHosting(ctx, h); err != nil {
			return fmt.Errorf("seed hosting %s: %w", dh.domain, err)
		}
	}

	first := demoDomains[0]
	n, err := notification.New(subject.KindDomain, first.name, first.website,
		expiry.ReminderDate(today.AddDate(0, 0, first.expiresIn)), notification.MethodEmail)
	if err != nil {
		return fmt.Errorf("seed notification: %w", err)
	}
	n.ID = "demo-notification-1"
	if err := s.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("seed notification: %w", err)
	}
	return nil
}

func periodYears(p subject.BillingPeriod) int {
	switch p {
	case subject.PeriodTwoYears:
		return 2
	case subject.PeriodThreeYears:
		return 3
	default:
		return 1
	}
}
