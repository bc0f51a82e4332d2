// internal/infra/telegram/console.go
package telegram

import (
	"context"
	"fmt"
	"strings"

	"renewal_notifier/internal/app"
	"renewal_notifier/internal/domain/access"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	msgUnauthorized = "You are not allowed to use this bot. Ask the administrator for access."
	msgAdminOnly    = "Only the administrator can run this command."
)

// Services is what one role's commands operate on.
type Services struct {
	Notifications *app.NotificationService
	Subjects      *app.SubjectService
}

// Console resolves a Telegram sender to a role and the services bound to it.
// The admin works against the database; read-only users get an ephemeral store
// so their experiments never reach it.
type Console struct {
	adminID    int64
	isReadOnly func(senderID int64) bool
	services   map[access.Role]Services
}

func NewConsole(adminID int64, isReadOnly func(senderID int64) bool, admin, readOnly Services) *Console {
	return &Console{
		adminID:    adminID,
		isReadOnly: isReadOnly,
		services: map[access.Role]Services{
			access.RoleAdmin:    admin,
			access.RoleReadOnly: readOnly,
		},
	}
}

// RoleFor returns the role of senderID, or false for unknown users.
func (con *Console) RoleFor(senderID int64) (access.Role, bool) {
	switch {
	case senderID == con.adminID:
		return access.RoleAdmin, true
	case con.isReadOnly != nil && con.isReadOnly(senderID):
		return access.RoleReadOnly, true
	default:
		return "", false
	}
}

type roleHandler func(c telebot.Context, role access.Role, svc Services, logCtx *logrus.Entry) error

// guard resolves the sender before calling h. Unknown senders are refused, and
// adminOnly commands are refused for read-only users.
func (con *Console) guard(name string, adminOnly bool, baseLogger *logrus.Entry, h roleHandler) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		logCtx := baseLogger.WithFields(logrus.Fields{
			"handler":   name,
			"sender_id": c.Sender().ID,
		})
		logCtx.Info("Command received")

		role, ok := con.RoleFor(c.Sender().ID)
		if !ok {
			logCtx.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}
		if adminOnly && role != access.RoleAdmin {
			logCtx.WithField("role", role).Warn("Admin command attempted by read-only user")
			return c.Send(msgAdminOnly)
		}
		return h(c, role, con.services[role], logCtx.WithField("role", role))
	}
}

// RegisterConsoleCommands registers /start and /help.
func RegisterConsoleCommands(ctx context.Context, b *telebot.Bot, con *Console, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		role, ok := con.RoleFor(senderID)
		if !ok {
			logCtx.Info("User is unknown")
			return c.Send(msgUnauthorized)
		}
		logCtx.WithField("role", role).Info("User identified")
		if role.CanPersist() {
			return c.Send(fmt.Sprintf("Hi %s! I track domain and hosting renewals. Use /help for the list of commands.", c.Sender().FirstName))
		}
		return c.Send(fmt.Sprintf("Hi %s! You have read-only access: you can try every command, but nothing you change is saved. Use /help for the list of commands.", c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		role, ok := con.RoleFor(senderID)
		if !ok {
			return c.Send(msgUnauthorized)
		}
		return c.Send(HelpText(role))
	})
}

// HelpText lists the commands available to role.
func HelpText(role access.Role) string {
	var b strings.Builder
	b.WriteString("Available commands:\n\n")
	b.WriteString("/domains - list domains\n")
	b.WriteString("/hostings - list hosting subscriptions\n")
	b.WriteString("/add_domain <name> <registrar> <YYYY-MM-DD> <1|2|3> <base cost> [maintenance fee]\n")
	b.WriteString("/add_hosting <domain> <provider> <YYYY-MM-DD> <monthly|annual|biennial> <base cost> [includes hosting yes|no]\n")
	b.WriteString("/delete_domain <id>\n")
	b.WriteString("/delete_hosting <id>\n")
	b.WriteString("/notifications - list scheduled reminders\n")
	b.WriteString("/schedule <domain or hosting id> <email|whatsapp> - remind one day before expiration\n")
	b.WriteString("/delete_notification <id>\n")
	if role.CanPersist() {
		b.WriteString("/dispatch_due [YYYY-MM-DD] - send every reminder due by that date (default today)\n")
		b.WriteString("/test_email <address> - send a test reminder by email\n")
		b.WriteString("/test_whatsapp <phone> - send a test reminder by WhatsApp\n")
	} else {
		b.WriteString("\nRead-only access: changes are kept in memory only and reminders are never sent.\n")
	}
	b.WriteString("/help - show this message")
	return b.String()
}
