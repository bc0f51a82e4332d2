package transport

import (
	"context"
	"fmt"
	"strings"

	"renewal_notifier/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

const (
	defaultSMTPHost     = "smtp.gmail.com"
	defaultSMTPPort     = 587
	defaultFromName     = "TrackingDude"
	messageIDDomainHint = "renewal-notifier.local"
)

// EmailConfig holds SMTP settings. User doubles as the From address.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	FromName string
}

// EmailTransport sends reminders over SMTP with a plain text body and an HTML alternative.
type EmailTransport struct {
	from     string
	fromName string
	idDomain string
	send     func(m *gomail.Message) error
	logger   *logrus.Entry
}

// NewEmailTransport validates cfg and builds the transport. Missing credentials
// are reported here, before anything is sent.
func NewEmailTransport(cfg EmailConfig, logger *logrus.Entry) (*EmailTransport, error) {
	if strings.TrimSpace(cfg.User) == "" {
		return nil, &notification.ConfigurationError{Channel: notification.MethodEmail, Reason: "EMAIL_USER is not set"}
	}
	if cfg.Password == "" {
		return nil, &notification.ConfigurationError{Channel: notification.MethodEmail, Reason: "EMAIL_PASSWORD is not set"}
	}
	if cfg.Host == "" {
		cfg.Host = defaultSMTPHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultSMTPPort
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &EmailTransport{
		from:     cfg.User,
		fromName: cfg.FromName,
		idDomain: messageIDDomain(cfg.User),
		send: func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		},
		logger: logger.WithField("transport", "email"),
	}, nil
}

func (t *EmailTransport) Method() notification.Method {
	return notification.MethodEmail
}

// Deliver sends msg to the given address and returns the Message-ID it was sent with.
func (t *EmailTransport) Deliver(ctx context.Context, to string, msg notification.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &notification.TransportError{Channel: notification.MethodEmail, Err: err}
	}
	if msg.Subject == "" || (msg.Text == "" && msg.HTML == "") {
		return "", &notification.ValidationError{Field: "message", Reason: "email needs a subject and a body"}
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.idDomain)
	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.from, t.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}

	if err := t.send(m); err != nil {
		return "", &notification.TransportError{Channel: notification.MethodEmail, Err: err}
	}

	t.logger.WithFields(logrus.Fields{"to": to, "message_id": messageID}).Debug("Email sent")
	return messageID, nil
}

func messageIDDomain(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return messageIDDomainHint
}
