package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AddDomainInput carries what an operator supplies for a new domain.
type AddDomainInput struct {
	Name           string
	Website        string
	CreationDate   time.Time
	PaymentPeriod  subject.BillingPeriod
	BaseCost       float64
	MaintenanceFee float64
}

// AddHostingInput carries what an operator supplies for a new hosting subscription.
// The maintenance fee is derived from BaseCost.
type AddHostingInput struct {
	Domain           string
	Provider         string
	PaymentType      subject.BillingPeriod
	IncludesHosting  bool
	RegistrationDate time.Time
	BaseCost         float64
}

// SubjectService manages the domains and hosting subscriptions reminders are scheduled for.
type SubjectService struct {
	store  subject.Repository
	logger *logrus.Entry
	now    func() time.Time
}

func NewSubjectService(store subject.Repository, logger *logrus.Entry) *SubjectService {
	return &SubjectService{store: store, logger: logger, now: time.Now}
}

func (s *SubjectService) AddDomain(ctx context.Context, in AddDomainInput) (*subject.Domain, error) {
	name := strings.TrimSpace(in.Name)
	website := strings.TrimSpace(in.Website)
	if name == "" {
		return nil, &notification.ValidationError{Field: "name", Reason: "is required"}
	}
	if website == "" {
		return nil, &notification.ValidationError{Field: "website", Reason: "is required"}
	}
	if !in.PaymentPeriod.ValidFor(subject.KindDomain) {
		return nil, &notification.ValidationError{Field: "paymentPeriod", Reason: "must be one of " + joinPeriods(subject.DomainPeriods)}
	}
	created, err := s.startDate("creationDate", in.CreationDate)
	if err != nil {
		return nil, err
	}
	if err := checkCost("baseCost", in.BaseCost); err != nil {
		return nil, err
	}
	if err := checkCost("maintenanceFee", in.MaintenanceFee); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	d := &subject.Domain{
		ID:             uuid.NewString(),
		Name:           name,
		Website:        website,
		CreationDate:   created,
		PaymentPeriod:  in.PaymentPeriod,
		ExpirationDate: expiry.ComputeExpiration(created, in.PaymentPeriod, subject.KindDomain),
		BaseCost:       roundCents(in.BaseCost),
		MaintenanceFee: roundCents(in.MaintenanceFee),
		TotalCost:      roundCents(in.BaseCost + in.MaintenanceFee),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateDomain(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"domain_id":  d.ID,
		"name":       d.Name,
		"expiration": expiry.Format(d.ExpirationDate),
	}).Info("Domain added")
	return d, nil
}

func (s *SubjectService) AddHosting(ctx context.Context, in AddHostingInput) (*subject.Hosting, error) {
	domain := strings.TrimSpace(in.Domain)
	provider := strings.TrimSpace(in.Provider)
	if domain == "" {
		return nil, &notification.ValidationError{Field: "domain", Reason: "is required"}
	}
	if provider == "" {
		return nil, &notification.ValidationError{Field: "provider", Reason: "is required"}
	}
	if !in.PaymentType.ValidFor(subject.KindHosting) {
		return nil, &notification.ValidationError{Field: "paymentType", Reason: "must be one of " + joinPeriods(subject.HostingPeriods)}
	}
	registered, err := s.startDate("registrationDate", in.RegistrationDate)
	if err != nil {
		return nil, err
	}
	if err := checkCost("baseCost", in.BaseCost); err != nil {
		return nil, err
	}

	fee := roundCents(in.BaseCost * subject.HostingMaintenanceRate)
	now := s.now().UTC()
	h := &subject.Hosting{
		ID:               uuid.NewString(),
		Domain:           domain,
		Provider:         provider,
		PaymentType:      in.PaymentType,
		IncludesHosting:  in.IncludesHosting,
		RegistrationDate: registered,
		BaseCost:         roundCents(in.BaseCost),
		MaintenanceFee:   fee,
		TotalCost:        roundCents(in.BaseCost + fee),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateHosting(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to create hosting: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"hosting_id": h.ID,
		"domain":     h.Domain,
		"provider":   h.Provider,
	}).Info("Hosting added")
	return h, nil
}

// ListDomains returns domains ordered by expiration date, soonest first.
func (s *SubjectService) ListDomains(ctx context.Context) ([]*subject.Domain, error) {
	list, err := s.store.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].ExpirationDate.Before(list[j].ExpirationDate)
	})
	return list, nil
}

// ListHostings returns hosting subscriptions ordered by their computed expiration date.
func (s *SubjectService) ListHostings(ctx context.Context) ([]*subject.Hosting, error) {
	list, err := s.store.ListHostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list hostings: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		a := expiry.ComputeExpiration(list[i].RegistrationDate, list[i].PaymentType, subject.KindHosting)
		b := expiry.ComputeExpiration(list[j].RegistrationDate, list[j].PaymentType, subject.KindHosting)
		return a.Before(b)
	})
	return list, nil
}

// DeleteDomain removes a domain. Notifications already scheduled for it are kept.
func (s *SubjectService) DeleteDomain(ctx context.Context, id string) error {
	if err := s.store.DeleteDomain(ctx, id); err != nil {
		if errors.Is(err, subject.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete domain %s: %w", id, err)
	}
	s.logger.WithField("domain_id", id).Info("Domain deleted")
	return nil
}

// DeleteHosting removes a hosting subscription. Notifications already scheduled for it are kept.
func (s *SubjectService) DeleteHosting(ctx context.Context, id string) error {
	if err := s.store.DeleteHosting(ctx, id); err != nil {
		if errors.Is(err, subject.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete hosting %s: %w", id, err)
	}
	s.logger.WithField("hosting_id", id).Info("Hosting deleted")
	return nil
}

func (s *SubjectService) startDate(field string, date time.Time) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, &notification.ValidationError{Field: field, Reason: "is required"}
	}
	date = expiry.Truncate(date)
	if expiry.IsFuture(date, expiry.TodayAt(s.now())) {
		return time.Time{}, &notification.ValidationError{Field: field, Reason: "cannot be in the future"}
	}
	return date, nil
}

func checkCost(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return &notification.ValidationError{Field: field, Reason: "must be a non-negative amount"}
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func joinPeriods(periods []subject.BillingPeriod) string {
	names := make([]string, len(periods))
	for i, p := range periods {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
