package telegram

import (
	"context"
	"fmt"
	"time"

	"renewal_notifier/internal/app"
	"renewal_notifier/internal/domain/access"
	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	usageAddDomain  = "Usage: /add_domain <name> <registrar> <YYYY-MM-DD> <1|2|3> <base cost> [maintenance fee]"
	usageAddHosting = "Usage: /add_hosting <domain> <provider> <YYYY-MM-DD> <monthly|annual|biennial> <base cost> [includes hosting yes|no]"
)

// RegisterSubjectHandlers registers the domain and hosting commands.
func RegisterSubjectHandlers(ctx context.Context, b *telebot.Bot, con *Console, baseLogger *logrus.Entry) {
	handlerLogger := baseLogger.WithField("handler_group", "subjects")

	b.Handle("/domains", con.guard("/domains", false, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			list, err := svc.Subjects.ListDomains(ctx)
			if err != nil {
				logCtx.WithError(err).Error("Failed to list domains")
				return c.Send(ErrorReply(err))
			}
			return c.Send(FormatDomains(list))
		}))

	b.Handle("/hostings", con.guard("/hostings", false, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			list, err := svc.Subjects.ListHostings(ctx)
			if err != nil {
				logCtx.WithError(err).Error("Failed to list hostings")
				return c.Send(ErrorReply(err))
			}
			return c.Send(FormatHostings(list))
		}))

	b.Handle("/add_domain", con.guard("/add_domain", false, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			in, err := ParseAddDomainArgs(c.Args())
			if err != nil {
				return c.Send(ErrorReply(err) + "\n" + usageAddDomain)
			}
			d, err := svc.Subjects.AddDomain(ctx, in)
			if err != nil {
				logCtx.WithError(err).Warn("Failed to add domain")
				return c.Send(ErrorReply(err))
			}
			logCtx.WithField("domain_id", d.ID).Info("Domain added")
			return c.Send(fmt.Sprintf("Domain %s added. It expires on %s, total cost %.2f.\nID: %s\nSchedule a reminder with /schedule %s email",
				d.Name, expiry.Format(d.ExpirationDate), d.TotalCost, d.ID, d.ID))
		}))

	b.Handle("/add_hosting", con.guard("/add_hosting", false, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			in, err := ParseAddHostingArgs(c.Args())
			if err != nil {
				return c.Send(ErrorReply(err) + "\n" + usageAddHosting)
			}
			h, err := svc.Subjects.AddHosting(ctx, in)
			if err != nil {
				logCtx.WithError(err).Warn("Failed to add hosting")
				return c.Send(ErrorReply(err))
			}
			logCtx.WithField("hosting_id", h.ID).Info("Hosting added")
			exp := expiry.ComputeExpiration(h.RegistrationDate, h.PaymentType, subject.KindHosting)
			return c.Send(fmt.Sprintf("Hosting for %s at %s added. It expires on %s, total cost %.2f.\nID: %s\nSchedule a reminder with /schedule %s email",
				h.Domain, h.Provider, expiry.Format(exp), h.TotalCost, h.ID, h.ID))
		}))

	b.Handle("/delete_domain", con.guard("/delete_domain", false, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			if len(c.Args()) != 1 {
				return c.Send("Usage: /delete_domain <id>")
			}
			if err := svc.Subjects.DeleteDomain(ctx, c.Args()[0]); err != nil {
				logCtx.WithError(err).Warn("Failed to delete domain")
				return c.Send(ErrorReply(err))
			}
			return c.Send("Domain deleted. Reminders already scheduled for it are kept.")
		}))

	b.Handle("/delete_hosting", con.guard("/delete_hosting", false, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			if len(c.Args()) != 1 {
				return c.Send("Usage: /delete_hosting <id>")
			}
			if err := svc.Subjects.DeleteHosting(ctx, c.Args()[0]); err != nil {
				logCtx.WithError(err).Warn("Failed to delete hosting")
				return c.Send(ErrorReply(err))
			}
			return c.Send("Hosting deleted. Reminders already scheduled for it are kept.")
		}))
}

// ParseAddDomainArgs maps /add_domain arguments onto an AddDomainInput.
func ParseAddDomainArgs(args []string) (app.AddDomainInput, error) {
	if len(args) != 5 && len(args) != 6 {
		return app.AddDomainInput{}, &notification.ValidationError{Field: "arguments", Reason: "expected 5 or 6 values"}
	}
	created, err := ParseDateArg(args[2:3], time.Time{})
	if err != nil {
		return app.AddDomainInput{}, err
	}
	period, err := ParseDomainPeriodArg(args[3])
	if err != nil {
		return app.AddDomainInput{}, err
	}
	base, err := ParseAmount("base cost", args[4])
	if err != nil {
		return app.AddDomainInput{}, err
	}
	var fee float64
	if len(args) == 6 {
		if fee, err = ParseAmount("maintenance fee", args[5]); err != nil {
			return app.AddDomainInput{}, err
		}
	}
	return app.AddDomainInput{
		Name:           args[0],
		Website:        args[1],
		CreationDate:   created,
		PaymentPeriod:  period,
		BaseCost:       base,
		MaintenanceFee: fee,
	}, nil
}

// ParseAddHostingArgs maps /add_hosting arguments onto an AddHostingInput.
// IncludesHosting defaults to true.
func ParseAddHostingArgs(args []string) (app.AddHostingInput, error) {
	if len(args) != 5 && len(args) != 6 {
		return app.AddHostingInput{}, &notification.ValidationError{Field: "arguments", Reason: "expected 5 or 6 values"}
	}
	registered, err := ParseDateArg(args[2:3], time.Time{})
	if err != nil {
		return app.AddHostingInput{}, err
	}
	period, err := subject.ParseHostingPeriod(args[3])
	if err != nil {
		return app.AddHostingInput{}, err
	}
	base, err := ParseAmount("base cost", args[4])
	if err != nil {
		return app.AddHostingInput{}, err
	}
	includes := true
	if len(args) == 6 {
		if includes, err = ParseFlag("includes hosting", args[5]); err != nil {
			return app.AddHostingInput{}, err
		}
	}
	return app.AddHostingInput{
		Domain:           args[0],
		Provider:         args[1],
		PaymentType:      period,
		IncludesHosting:  includes,
		RegistrationDate: registered,
		BaseCost:         base,
	}, nil
}
