// Package expiry computes expiration and reminder dates for domains and hosting.
//
// All values are calendar dates: Truncate drops the time of day and pins the
// result to UTC midnight so that dates compare and store without timezone drift.
package expiry

import (
	"fmt"
	"time"

	"renewal_notifier/internal/domain/subject"
)

// Layout is the YYYY-MM-DD form used for date input and output.
const Layout = "2006-01-02"

// ReminderLead is how long before expiration a reminder fires.
const ReminderLead = 1 // days

// Truncate returns the calendar date of t (as seen in t's own location) at UTC midnight.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeExpiration adds the billing period to start.
//
// Unrecognized periods fall back to the shortest period of the kind:
// one year for domains, one month for hosting.
func ComputeExpiration(start time.Time, period subject.BillingPeriod, kind subject.Kind) time.Time {
	start = Truncate(start)

	if kind == subject.KindHosting {
		switch period {
		case subject.PeriodMonthly:
			return AddMonths(start, 1)
		case subject.PeriodAnnual:
			return AddMonths(start, 12)
		case subject.PeriodBiennial:
			return AddMonths(start, 24)
		default:
			return AddMonths(start, 1)
		}
	}

	switch period {
	case subject.PeriodOneYear:
		return AddMonths(start, 12)
	case subject.PeriodTwoYears:
		return AddMonths(start, 24)
	case subject.PeriodThreeYears:
		return AddMonths(start, 36)
	default:
		return AddMonths(start, 12)
	}
}

// ReminderDate is the day a reminder for the given expiration should fire.
func ReminderDate(expiration time.Time) time.Time {
	return Truncate(expiration).AddDate(0, 0, -ReminderLead)
}

// AddMonths adds n calendar months to date. When the day does not exist in the
// target month it is clamped to that month's last day, so Feb 29 + 12 months is
// Feb 28 and Jan 31 + 1 month is the end of February.
func AddMonths(date time.Time, n int) time.Time {
	y, m, d := Truncate(date).Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// TodayAt returns the calendar date of now.
func TodayAt(now time.Time) time.Time {
	return Truncate(now)
}

// Today returns the local calendar date as YYYY-MM-DD.
func Today() string {
	return Format(TodayAt(time.Now()))
}

// Format renders date as YYYY-MM-DD.
func Format(date time.Time) string {
	return Truncate(date).Format(Layout)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}

// IsFuture reports whether date falls after today.
func IsFuture(date, today time.Time) bool {
	return Truncate(date).After(Truncate(today))
}
