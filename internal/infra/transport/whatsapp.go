package transport

import (
	"context"
	"strings"

	"renewal_notifier/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const whatsAppPrefix = "whatsapp:"

// WhatsAppConfig holds Twilio credentials and the sending number in E.164 form.
type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// messageCreator is the part of the Twilio API client the transport uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// WhatsAppTransport sends reminders through Twilio's WhatsApp channel.
type WhatsAppTransport struct {
	from   string
	api    messageCreator
	logger *logrus.Entry
}

func NewWhatsAppTransport(cfg WhatsAppConfig, logger *logrus.Entry) (*WhatsAppTransport, error) {
	switch {
	case cfg.AccountSID == "":
		return nil, &notification.ConfigurationError{Channel: notification.MethodWhatsApp, Reason: "TWILIO_ACCOUNT_SID is not set"}
	case cfg.AuthToken == "":
		return nil, &notification.ConfigurationError{Channel: notification.MethodWhatsApp, Reason: "TWILIO_AUTH_TOKEN is not set"}
	case strings.TrimSpace(cfg.From) == "":
		return nil, &notification.ConfigurationError{Channel: notification.MethodWhatsApp, Reason: "TWILIO_WHATSAPP_FROM is not set"}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &WhatsAppTransport{
		from:   withWhatsAppPrefix(cfg.From),
		api:    client.Api,
		logger: logger.WithField("transport", "whatsapp"),
	}, nil
}

func (t *WhatsAppTransport) Method() notification.Method {
	return notification.MethodWhatsApp
}

// Deliver sends msg.Body to the given phone number and returns the Twilio message SID.
func (t *WhatsAppTransport) Deliver(ctx context.Context, to string, msg notification.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &notification.TransportError{Channel: notification.MethodWhatsApp, Err: err}
	}
	if msg.Body == "" {
		return "", &notification.ValidationError{Field: "message", Reason: "whatsapp needs a body"}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(withWhatsAppPrefix(to))
	params.SetBody(msg.Body)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return "", &notification.TransportError{Channel: notification.MethodWhatsApp, Err: err}
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	t.logger.WithFields(logrus.Fields{"to": to, "sid": sid}).Debug("WhatsApp message sent")
	return sid, nil
}

func withWhatsAppPrefix(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}
