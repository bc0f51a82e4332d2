package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"
)

// ErrorReply turns a service error into a message for the operator.
func ErrorReply(err error) string {
	var (
		verr *notification.ValidationError
		cerr *notification.ConfigurationError
		terr *notification.TransportError
		serr *notification.InvalidStateError
	)
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid input: %s %s.", verr.Field, verr.Reason)
	case errors.As(err, &cerr):
		return "Cannot send: " + cerr.Error() + "."
	case errors.As(err, &terr):
		return "Delivery failed, try again later: " + terr.Error()
	case errors.As(err, &serr):
		return "Not possible: " + serr.Reason + "."
	case errors.Is(err, notification.ErrNotFound), errors.Is(err, subject.ErrNotFound):
		return "Nothing found with that ID."
	case errors.Is(err, subject.ErrUnknownPeriod), errors.Is(err, subject.ErrUnknownKind):
		return "Invalid input: " + err.Error() + "."
	default:
		return "Something went wrong. Please try again later."
	}
}

// ParseDomainPeriodArg accepts a bare year count ("1", "2", "3") as well as
// the full period name.
func ParseDomainPeriodArg(arg string) (subject.BillingPeriod, error) {
	switch strings.TrimSpace(arg) {
	case "1":
		return subject.PeriodOneYear, nil
	case "2":
		return subject.PeriodTwoYears, nil
	case "3":
		return subject.PeriodThreeYears, nil
	}
	return subject.ParseDomainPeriod(arg)
}

// ParseAmount parses a non-negative cost. A comma decimal separator is accepted.
func ParseAmount(field, arg string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(arg), ",", ".", 1), 64)
	if err != nil || v < 0 {
		return 0, &notification.ValidationError{Field: field, Reason: "must be a non-negative number, got " + strconv.Quote(arg)}
	}
	return v, nil
}

// ParseFlag parses yes/no style answers.
func ParseFlag(field, arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	}
	return false, &notification.ValidationError{Field: field, Reason: "must be yes or no, got " + strconv.Quote(arg)}
}

// ParseDateArg parses a YYYY-MM-DD argument, or returns today when args is empty.
func ParseDateArg(args []string, now time.Time) (time.Time, error) {
	if len(args) == 0 {
		return expiry.TodayAt(now), nil
	}
	d, err := expiry.ParseDate(args[0])
	if err != nil {
		return time.Time{}, &notification.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD, got " + strconv.Quote(args[0])}
	}
	return d, nil
}

// NotificationsPerPage is how many reminders one /notifications message shows.
const NotificationsPerPage = 20

// PageOf returns the reminders on the given zero-based page. page is clamped
// to the available range and returned with the page count.
func PageOf(list []*notification.Notification, page int) ([]*notification.Notification, int, int) {
	pages := (len(list) + NotificationsPerPage - 1) / NotificationsPerPage
	if pages == 0 {
		return nil, 0, 0
	}
	page = min(max(page, 0), pages-1)
	start := page * NotificationsPerPage
	end := min(start+NotificationsPerPage, len(list))
	return list[start:end], page, pages
}

// FormatNotificationsPage renders one page of the list and always fits in a
// single Telegram message.
func FormatNotificationsPage(list []*notification.Notification, page int) string {
	items, page, pages := PageOf(list, page)
	if pages <= 1 {
		return truncate(FormatNotifications(items))
	}
	text := FormatNotifications(items) + fmt.Sprintf("\n\nPage %d of %d, %d reminders in total.", page+1, pages, len(list))
	return truncate(text)
}

// FormatNotifications renders the notification list, one line per record.
func FormatNotifications(list []*notification.Notification) string {
	if len(list) == 0 {
		return "No reminders scheduled."
	}
	var b strings.Builder
	b.WriteString("Scheduled reminders:\n")
	for _, n := range list {
		fmt.Fprintf(&b, "\n%s %s (%s) %s via %s, %s\nID: %s\n",
			expiry.Format(n.ScheduledDate),
			strings.ToLower(string(n.Kind)),
			n.Provider,
			n.SubjectIdentifier,
			n.Method,
			n.State(),
			n.ID,
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNotification renders a single notification with its expiration date.
func FormatNotification(n *notification.Notification) string {
	return fmt.Sprintf("Reminder for %s %s (%s) scheduled on %s via %s. It expires on %s.\nID: %s",
		strings.ToLower(string(n.Kind)),
		n.SubjectIdentifier,
		n.Provider,
		expiry.Format(n.ScheduledDate),
		n.Method,
		expiry.Format(n.ExpirationDate()),
		n.ID,
	)
}

func FormatDomains(list []*subject.Domain) string {
	if len(list) == 0 {
		return "No domains yet. Add one with /add_domain."
	}
	var b strings.Builder
	b.WriteString("Domains:\n")
	for _, d := range list {
		fmt.Fprintf(&b, "\n%s at %s, %s, expires %s, total %.2f\nID: %s\n",
			d.Name, d.Website, d.PaymentPeriod, expiry.Format(d.ExpirationDate), d.TotalCost, d.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatHostings(list []*subject.Hosting) string {
	if len(list) == 0 {
		return "No hosting subscriptions yet. Add one with /add_hosting."
	}
	var b strings.Builder
	b.WriteString("Hosting subscriptions:\n")
	for _, h := range list {
		exp := expiry.ComputeExpiration(h.RegistrationDate, h.PaymentType, subject.KindHosting)
		fmt.Fprintf(&b, "\n%s at %s, %s, expires %s, total %.2f\nID: %s\n",
			h.Domain, h.Provider, h.PaymentType, expiry.Format(exp), h.TotalCost, h.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}
