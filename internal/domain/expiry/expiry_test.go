package expiry

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewal_notifier/internal/domain/subject"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := ParseDate(value)
	require.NoError(t, err)
	return d
}

func TestComputeExpiration_Domain(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		period subject.BillingPeriod
		want   string
	}{
		{"one year", "2023-01-15", subject.PeriodOneYear, "2024-01-15"},
		{"two years", "2023-01-15", subject.PeriodTwoYears, "2025-01-15"},
		{"three years", "2023-01-15", subject.PeriodThreeYears, "2026-01-15"},
		{"leap day plus one year clamps", "2024-02-29", subject.PeriodOneYear, "2025-02-28"},
		{"leap day plus three years clamps", "2024-02-29", subject.PeriodThreeYears, "2027-02-28"},
		{"unknown period falls back to one year", "2023-05-10", subject.BillingPeriod("5 years"), "2024-05-10"},
		{"empty period falls back to one year", "2023-05-10", "", "2024-05-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeExpiration(date(t, tt.start), tt.period, subject.KindDomain)
			assert.Equal(t, tt.want, Format(got))
		})
	}
}

func TestComputeExpiration_Hosting(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		period subject.BillingPeriod
		want   string
	}{
		{"monthly", "2023-06-20", subject.PeriodMonthly, "2023-07-20"},
		{"annual", "2023-06-20", subject.PeriodAnnual, "2024-06-20"},
		{"biennial", "2023-06-20", subject.PeriodBiennial, "2025-06-20"},
		{"month end clamps", "2023-01-31", subject.PeriodMonthly, "2023-02-28"},
		{"month end clamps in leap year", "2024-01-31", subject.PeriodMonthly, "2024-02-29"},
		{"december rolls into next year", "2023-12-15", subject.PeriodMonthly, "2024-01-15"},
		{"unknown period falls back to monthly", "2023-06-20", subject.BillingPeriod("Weekly"), "2023-07-20"},
		{"domain period on hosting falls back to monthly", "2023-06-20", subject.PeriodOneYear, "2023-07-20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeExpiration(date(t, tt.start), tt.period, subject.KindHosting)
			assert.Equal(t, tt.want, Format(got))
		})
	}
}

func TestComputeExpiration_IgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	start := time.Date(2023, time.January, 15, 23, 45, 0, 0, loc)

	got := ComputeExpiration(start, subject.PeriodOneYear, subject.KindDomain)

	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestReminderDate(t *testing.T) {
	tests := []struct {
		expiration string
		want       string
	}{
		{"2024-01-15", "2024-01-14"},
		{"2024-03-01", "2024-02-29"},
		{"2023-03-01", "2023-02-28"},
		{"2024-01-01", "2023-12-31"},
		{"2023-07-20", "2023-07-19"},
	}

	for _, tt := range tests {
		t.Run(tt.expiration, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(ReminderDate(date(t, tt.expiration))))
		})
	}
}

func TestEndToEndScenarios(t *testing.T) {
	domainExpiry := ComputeExpiration(date(t, "2023-01-15"), subject.PeriodOneYear, subject.KindDomain)
	assert.Equal(t, "2024-01-15", Format(domainExpiry))
	assert.Equal(t, "2024-01-14", Format(ReminderDate(domainExpiry)))

	hostingExpiry := ComputeExpiration(date(t, "2023-06-20"), subject.PeriodMonthly, subject.KindHosting)
	assert.Equal(t, "2023-07-20", Format(hostingExpiry))
	assert.Equal(t, "2023-07-19", Format(ReminderDate(hostingExpiry)))
}

func TestToday(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), Today())

	now := time.Date(2025, time.March, 9, 17, 30, 12, 0, time.Local)
	today := TodayAt(now)
	assert.Equal(t, "2025-03-09", Format(today))
	assert.Zero(t, today.Hour())
	assert.Zero(t, today.Minute())
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("15/01/2023")
	assert.Error(t, err)
}

func TestIsFuture(t *testing.T) {
	today := date(t, "2025-03-09")
	assert.True(t, IsFuture(date(t, "2025-03-10"), today))
	assert.False(t, IsFuture(date(t, "2025-03-09"), today))
	assert.False(t, IsFuture(date(t, "2025-03-08"), today))
}
