// internal/infra/telegram/notification_handlers.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"renewal_notifier/internal/domain/access"
	"renewal_notifier/internal/domain/expiry"
	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Inline button identifiers for the /notifications list.
const (
	deleteNotificationUnique = "ntf_del"
	notificationsPageUnique  = "ntf_page"
)

// RegisterNotificationHandlers registers the reminder commands.
func RegisterNotificationHandlers(ctx context.Context, b *telebot.Bot, con *Console, baseLogger *logrus.Entry) {
	handlerLogger := baseLogger.WithField("handler_group", "notifications")

	b.Handle("/notifications", con.guard("/notifications", false, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			list, err := svc.Notifications.ListNotifications(ctx)
			if err != nil {
				logCtx.WithError(err).Error("Failed to list notifications")
				return c.Send(ErrorReply(err))
			}
			if len(list) == 0 {
				return c.Send(FormatNotifications(list))
			}
			text, markup := notificationsView(list, 0)
			return c.Send(text, markup)
		}))

	b.Handle("/schedule", con.guard("/schedule", false, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			args := c.Args()
			if len(args) != 2 {
				return c.Send("Usage: /schedule <domain or hosting id> <email|whatsapp>")
			}
			method, err := notification.ParseMethod(args[1])
			if err != nil {
				return c.Send(ErrorReply(err))
			}

			n, err := svc.Notifications.ScheduleNotification(ctx, args[0], method)
			if err != nil {
				logCtx.WithError(err).WithField("subject_id", args[0]).Warn("Failed to schedule notification")
				return c.Send(ErrorReply(err))
			}
			logCtx.WithField("notification_id", n.ID).Info("Notification scheduled")
			return c.Send(FormatNotification(n))
		}))

	b.Handle("/delete_notification", con.guard("/delete_notification", false, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			args := c.Args()
			if len(args) != 1 {
				return c.Send("Usage: /delete_notification <id>")
			}
			if err := svc.Notifications.DeleteNotification(ctx, args[0]); err != nil {
				logCtx.WithError(err).WithField("notification_id", args[0]).Warn("Failed to delete notification")
				return c.Send(ErrorReply(err))
			}
			return c.Send("Reminder deleted.")
		}))

	b.Handle("/dispatch_due", con.guard("/dispatch_due", true, handlerLogger,
		func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
			asOf, err := ParseDateArg(c.Args(), time.Now())
			if err != nil {
				return c.Send(ErrorReply(err))
			}
			results, runErr := svc.Notifications.DispatchDueNotifications(ctx, asOf)
			if runErr != nil {
				logCtx.WithError(runErr).Error("Manual dispatch stopped early")
			}
			return c.Send(scheduler.Summary(asOf, results, runErr))
		}))

	b.Handle("/test_email", con.guard("/test_email", true, handlerLogger, sendTestHandler(ctx, notification.MethodEmail)))
	b.Handle("/test_whatsapp", con.guard("/test_whatsapp", true, handlerLogger, sendTestHandler(ctx, notification.MethodWhatsApp)))

	b.Handle(&telebot.Btn{Unique: deleteNotificationUnique}, deleteCallback(ctx, con, handlerLogger))
	b.Handle(&telebot.Btn{Unique: notificationsPageUnique}, pageCallback(ctx, con, handlerLogger))
}

func sendTestHandler(ctx context.Context, method notification.Method) roleHandler {
	return func(c telebot.Context, _ access.Role, svc Services, logCtx *logrus.Entry) error {
		args := c.Args()
		if len(args) != 1 {
			return c.Send(fmt.Sprintf("Usage: /test_%s <destination>", strings.ToLower(string(method))))
		}

		res, err := svc.Notifications.SendTestNotification(ctx, method, args[0])
		if err != nil {
			logCtx.WithError(err).WithField("method", method).Warn("Test notification failed")
			return c.Send(ErrorReply(err))
		}
		logCtx.WithFields(logrus.Fields{
			"method":               method,
			"transport_message_id": res.TransportMessageID,
		}).Info("Test notification sent")
		return c.Send(fmt.Sprintf("Test reminder sent via %s. Message ID: %s", method, res.TransportMessageID))
	}
}

// notificationsView renders one page of reminders with a Delete button per
// reminder on that page and Prev/Next buttons when there is more than one page.
func notificationsView(list []*notification.Notification, page int) (string, *telebot.ReplyMarkup) {
	markup := &telebot.ReplyMarkup{}
	items, page, pages := PageOf(list, page)
	pageArg := strconv.Itoa(page)

	rows := make([]telebot.Row, 0, len(items)+1)
	for _, n := range items {
		label := fmt.Sprintf("Delete %s %s", n.SubjectIdentifier, expiry.Format(n.ScheduledDate))
		rows = append(rows, markup.Row(markup.Data(label, deleteNotificationUnique, pageArg, n.ID)))
	}

	var nav []telebot.Btn
	if page > 0 {
		nav = append(nav, markup.Data("« Prev", notificationsPageUnique, strconv.Itoa(page-1)))
	}
	if page < pages-1 {
		nav = append(nav, markup.Data("Next »", notificationsPageUnique, strconv.Itoa(page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, markup.Row(nav...))
	}

	markup.Inline(rows...)
	return FormatNotificationsPage(list, page), markup
}

// parseDeleteData splits "page|id". Buttons sent before paging carry the bare id.
func parseDeleteData(data string) (int, string) {
	pageArg, id, ok := strings.Cut(strings.TrimSpace(data), "|")
	if !ok {
		return 0, pageArg
	}
	page, err := strconv.Atoi(pageArg)
	if err != nil {
		page = 0
	}
	return page, strings.TrimSpace(id)
}

// pageCallback handles the Prev/Next buttons under /notifications.
func pageCallback(ctx context.Context, con *Console, baseLogger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		callback := c.Callback()
		if callback == nil {
			baseLogger.Warn("Received a non-callback update in callback handler, ignoring.")
			return nil
		}
		logCtx := baseLogger.WithFields(logrus.Fields{
			"handler":   "notifications_page_callback",
			"sender_id": c.Sender().ID,
			"page":      callback.Data,
		})

		role, ok := con.RoleFor(c.Sender().ID)
		if !ok {
			logCtx.Warn("Unauthorized callback")
			return c.Respond(&telebot.CallbackResponse{Text: msgUnauthorized})
		}
		page, err := strconv.Atoi(strings.TrimSpace(callback.Data))
		if err != nil {
			logCtx.WithError(err).Warn("Malformed page in callback")
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown page."})
		}

		list, err := con.services[role].Notifications.ListNotifications(ctx)
		if err != nil {
			logCtx.WithError(err).Error("Failed to list notifications")
			return c.Respond(&telebot.CallbackResponse{Text: ErrorReply(err)})
		}
		if err := c.Respond(); err != nil {
			logCtx.WithError(err).Error("Failed to send callback response")
		}
		text, markup := notificationsView(list, page)
		return c.Edit(text, markup)
	}
}

// deleteCallback handles the inline "Delete" buttons attached to /notifications.
func deleteCallback(ctx context.Context, con *Console, baseLogger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		callback := c.Callback()
		if callback == nil {
			baseLogger.Warn("Received a non-callback update in callback handler, ignoring.")
			return nil
		}

		page, id := parseDeleteData(callback.Data)
		logCtx := baseLogger.WithFields(logrus.Fields{
			"handler":         "delete_notification_callback",
			"sender_id":       c.Sender().ID,
			"notification_id": id,
		})
		logCtx.Info("Callback received")

		role, ok := con.RoleFor(c.Sender().ID)
		if !ok {
			logCtx.Warn("Unauthorized callback")
			return c.Respond(&telebot.CallbackResponse{Text: msgUnauthorized})
		}

		svc := con.services[role].Notifications
		if err := svc.DeleteNotification(ctx, id); err != nil {
			logCtx.WithError(err).Warn("Failed to delete notification from callback")
			return c.Respond(&telebot.CallbackResponse{Text: ErrorReply(err)})
		}

		logCtx.Info("Notification deleted from callback")
		if err := c.Respond(&telebot.CallbackResponse{Text: "Reminder deleted."}); err != nil {
			logCtx.WithError(err).Error("Failed to send callback response")
		}
		if callback.Message == nil {
			return nil
		}

		// Refresh the page the button belonged to.
		list, err := svc.ListNotifications(ctx)
		if err != nil {
			logCtx.WithError(err).Error("Failed to refresh notification list")
			return nil
		}
		text, markup := notificationsView(list, page)
		return c.Edit(text, markup)
	}
}
