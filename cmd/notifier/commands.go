package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"renewal_notifier/internal/app"
	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"
	"renewal_notifier/internal/infra/scheduler"
	"renewal_notifier/internal/infra/telegram"

	"github.com/spf13/cobra"
)

// withRuntime builds the runtime for one command and releases it afterwards.
func (c *cli) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	rt, err := buildRuntime(ctx, c.cfg, c.readOnly)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func migrateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.readOnly {
				return fmt.Errorf("migrate needs a database and cannot run with --read-only")
			}
			// buildRuntime applies pending migrations before returning.
			return c.withRuntime(cmd, func(_ context.Context, _ *runtime) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Database schema is up to date.")
				return nil
			})
		},
	}
}

func dispatchDueCommand(c *cli) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "dispatch-due",
		Short: "Send every pending reminder scheduled on or before a date",
		Long: `Send every pending reminder scheduled on or before --as-of (default today).
A failed reminder stays pending and is retried on the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseAsOf(asOf, time.Now())
			if err != nil {
				return err
			}

			return c.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				results, runErr := rt.admin.Notifications.DispatchDueNotifications(ctx, date)
				rt.metrics.ObserveDueRun(runErr)
				fmt.Fprintln(cmd.OutOrStdout(), scheduler.Summary(date, results, runErr))
				if runErr != nil {
					return runErr
				}
				if failed := countFailed(results); failed > 0 {
					return fmt.Errorf("%d of %d reminders failed", failed, len(results))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "dispatch date as YYYY-MM-DD")
	return cmd
}

// parseAsOf reads --as-of as a calendar date; empty means today.
func parseAsOf(value string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return expiry.TodayAt(now), nil
	}
	date, err := expiry.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &notification.ValidationError{Field: "as-of", Reason: "must be YYYY-MM-DD, got " + strconv.Quote(value)}
	}
	return date, nil
}

func countFailed(results []app.DispatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func sendTestCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "send-test <email|whatsapp> <destination>",
		Short: "Send a sample reminder to check a channel's credentials",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := notification.ParseMethod(args[0])
			if err != nil {
				return err
			}
			return c.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				res, err := rt.admin.Notifications.SendTestNotification(ctx, method, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Test reminder sent via %s. Message ID: %s\n", res.Method, res.TransportMessageID)
				return nil
			})
		},
	}
}

func scheduleCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <domain-or-hosting-id> <email|whatsapp>",
		Short: "Schedule a reminder for the day before a domain or hosting expires",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := notification.ParseMethod(args[1])
			if err != nil {
				return err
			}
			return c.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				n, err := rt.admin.Notifications.ScheduleNotification(ctx, args[0], method)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), telegram.FormatNotification(n))
				return nil
			})
		},
	}
}

func listCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "list [notifications|domains|hostings]",
		Short:     "List scheduled reminders, domains or hosting subscriptions",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"notifications", "domains", "hostings"},
		RunE: func(cmd *cobra.Command, args []string) error {
			what := "notifications"
			if len(args) == 1 {
				what = args[0]
			}
			return c.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				var text string
				switch what {
				case "domains":
					list, err := rt.admin.Subjects.ListDomains(ctx)
					if err != nil {
						return err
					}
					text = telegram.FormatDomains(list)
				case "hostings":
					list, err := rt.admin.Subjects.ListHostings(ctx)
					if err != nil {
						return err
					}
					text = telegram.FormatHostings(list)
				default:
					list, err := rt.admin.Notifications.ListNotifications(ctx)
					if err != nil {
						return err
					}
					text = telegram.FormatNotifications(list)
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}

func deleteNotificationCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-notification <id>",
		Short: "Delete a scheduled reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				if err := rt.admin.Notifications.DeleteNotification(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Reminder deleted.")
				return nil
			})
		},
	}
}

func addDomainCommand(c *cli) *cobra.Command {
	var (
		name, registrar, created, period string
		baseCost, fee                    float64
	)

	cmd := &cobra.Command{
		Use:   "add-domain",
		Short: "Register a domain whose renewal should be tracked",
		Example: `  renewal-notifier add-domain --name example.com --registrar Namecheap \
    --created 2023-01-15 --period 1 --base-cost 12.99 --fee 2.60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			createdOn, err := expiry.ParseDate(created)
			if err != nil {
				return err
			}
			p, err := telegram.ParseDomainPeriodArg(period)
			if err != nil {
				return err
			}
			return c.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				d, err := rt.admin.Subjects.AddDomain(ctx, app.AddDomainInput{
					Name:           name,
					Website:        registrar,
					CreationDate:   createdOn,
					PaymentPeriod:  p,
					BaseCost:       baseCost,
					MaintenanceFee: fee,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Domain %s added, expires %s, total %.2f.\nID: %s\n",
					d.Name, expiry.Format(d.ExpirationDate), d.TotalCost, d.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "domain name")
	cmd.Flags().StringVar(&registrar, "registrar", "", "where the domain was bought")
	cmd.Flags().StringVar(&created, "created", "", "creation date as YYYY-MM-DD")
	cmd.Flags().StringVar(&period, "period", "1", "payment period in years: 1, 2 or 3")
	cmd.Flags().Float64Var(&baseCost, "base-cost", 0, "base cost")
	cmd.Flags().Float64Var(&fee, "fee", 0, "maintenance fee")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("registrar")
	_ = cmd.MarkFlagRequired("created")
	return cmd
}

func addHostingCommand(c *cli) *cobra.Command {
	var (
		domain, provider, registered, paymentType string
		baseCost                                  float64
		includesHosting                           bool
	)

	cmd := &cobra.Command{
		Use:   "add-hosting",
		Short: "Register a hosting subscription whose renewal should be tracked",
		Example: `  renewal-notifier add-hosting --domain example.org --provider Hostinger \
    --registered 2023-06-20 --payment-type monthly --base-cost 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registeredOn, err := expiry.ParseDate(registered)
			if err != nil {
				return err
			}
			p, err := subject.ParseHostingPeriod(paymentType)
			if err != nil {
				return err
			}
			return c.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				h, err := rt.admin.Subjects.AddHosting(ctx, app.AddHostingInput{
					Domain:           domain,
					Provider:         provider,
					PaymentType:      p,
					IncludesHosting:  includesHosting,
					RegistrationDate: registeredOn,
					BaseCost:         baseCost,
				})
				if err != nil {
					return err
				}
				exp := expiry.ComputeExpiration(h.RegistrationDate, h.PaymentType, subject.KindHosting)
				fmt.Fprintf(cmd.OutOrStdout(), "Hosting for %s added, expires %s, total %.2f.\nID: %s\n",
					h.Domain, expiry.Format(exp), h.TotalCost, h.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "domain the hosting serves")
	cmd.Flags().StringVar(&provider, "provider", "", "hosting provider")
	cmd.Flags().StringVar(&registered, "registered", "", "registration date as YYYY-MM-DD")
	cmd.Flags().StringVar(&paymentType, "payment-type", "monthly", "monthly, annual or biennial")
	cmd.Flags().Float64Var(&baseCost, "base-cost", 0, "base cost")
	cmd.Flags().BoolVar(&includesHosting, "includes-hosting", true, "whether the plan includes hosting")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("registered")
	return cmd
}
