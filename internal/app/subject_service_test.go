package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"
	"renewal_notifier/internal/infra/memstore"
)

func newSubjectService() (*SubjectService, *memstore.Store) {
	store := memstore.New(0, 0)
	svc := NewSubjectService(store, testLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func TestAddDomain(t *testing.T) {
	svc, store := newSubjectService()

	d, err := svc.AddDomain(context.Background(), AddDomainInput{
		Name:           " example.com ",
		Website:        "Namecheap",
		CreationDate:   time.Date(2023, time.January, 15, 14, 0, 0, 0, time.UTC),
		PaymentPeriod:  subject.PeriodOneYear,
		BaseCost:       12.99,
		MaintenanceFee: 2.60,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "example.com", d.Name)
	assert.Equal(t, "2023-01-15", expiry.Format(d.CreationDate))
	assert.Equal(t, "2024-01-15", expiry.Format(d.ExpirationDate))
	assert.InDelta(t, 15.59, d.TotalCost, 0.001)

	stored, err := store.GetDomain(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, stored.Name)
}

func TestAddHosting_DerivesMaintenanceFee(t *testing.T) {
	svc, _ := newSubjectService()

	h, err := svc.AddHosting(context.Background(), AddHostingInput{
		Domain:           "example.org",
		Provider:         "Hostinger",
		PaymentType:      subject.PeriodAnnual,
		IncludesHosting:  true,
		RegistrationDate: time.Date(2023, time.June, 20, 0, 0, 0, 0, time.UTC),
		BaseCost:         120,
	})
	require.NoError(t, err)

	assert.InDelta(t, 24, h.MaintenanceFee, 0.001)
	assert.InDelta(t, 144, h.TotalCost, 0.001)
	assert.True(t, h.IncludesHosting)
}

func TestAddSubject_Validation(t *testing.T) {
	svc, _ := newSubjectService()
	ctx := context.Background()
	past := time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		run       func() error
		wantField string
	}{
		{"domain without name", func() error {
			_, err := svc.AddDomain(ctx, AddDomainInput{Website: "w", CreationDate: past, PaymentPeriod: subject.PeriodOneYear})
			return err
		}, "name"},
		{"domain with hosting period", func() error {
			_, err := svc.AddDomain(ctx, AddDomainInput{Name: "a.com", Website: "w", CreationDate: past, PaymentPeriod: subject.PeriodMonthly})
			return err
		}, "paymentPeriod"},
		{"domain created tomorrow", func() error {
			_, err := svc.AddDomain(ctx, AddDomainInput{Name: "a.com", Website: "w", CreationDate: fixedNow.AddDate(0, 0, 1), PaymentPeriod: subject.PeriodOneYear})
			return err
		}, "creationDate"},
		{"domain with negative cost", func() error {
			_, err := svc.AddDomain(ctx, AddDomainInput{Name: "a.com", Website: "w", CreationDate: past, PaymentPeriod: subject.PeriodOneYear, BaseCost: -1})
			return err
		}, "baseCost"},
		{"hosting with domain period", func() error {
			_, err := svc.AddHosting(ctx, AddHostingInput{Domain: "a.com", Provider: "p", RegistrationDate: past, PaymentType: subject.PeriodOneYear})
			return err
		}, "paymentType"},
		{"hosting without date", func() error {
			_, err := svc.AddHosting(ctx, AddHostingInput{Domain: "a.com", Provider: "p", PaymentType: subject.PeriodMonthly})
			return err
		}, "registrationDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *notification.ValidationError
			err := tt.run()
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestAddDomain_TodayIsAllowed(t *testing.T) {
	svc, _ := newSubjectService()
	_, err := svc.AddDomain(context.Background(), AddDomainInput{
		Name: "a.com", Website: "w", CreationDate: fixedNow, PaymentPeriod: subject.PeriodTwoYears,
	})
	assert.NoError(t, err)
}

func TestListAndDeleteSubjects(t *testing.T) {
	svc, _ := newSubjectService()
	ctx := context.Background()

	late, err := svc.AddDomain(ctx, AddDomainInput{
		Name: "late.com", Website: "w", CreationDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), PaymentPeriod: subject.PeriodThreeYears,
	})
	require.NoError(t, err)
	soon, err := svc.AddDomain(ctx, AddDomainInput{
		Name: "soon.com", Website: "w", CreationDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), PaymentPeriod: subject.PeriodOneYear,
	})
	require.NoError(t, err)

	domains, err := svc.ListDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, soon.ID, domains[0].ID)
	assert.Equal(t, late.ID, domains[1].ID)

	h, err := svc.AddHosting(ctx, AddHostingInput{
		Domain: "soon.com", Provider: "p", PaymentType: subject.PeriodMonthly, RegistrationDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	hostings, err := svc.ListHostings(ctx)
	require.NoError(t, err)
	assert.Len(t, hostings, 1)

	require.NoError(t, svc.DeleteDomain(ctx, soon.ID))
	assert.ErrorIs(t, svc.DeleteDomain(ctx, soon.ID), subject.ErrNotFound)
	require.NoError(t, svc.DeleteHosting(ctx, h.ID))
	assert.ErrorIs(t, svc.DeleteHosting(ctx, h.ID), subject.ErrNotFound)
}
