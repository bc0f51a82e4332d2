package app

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
	"time"

	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"
)

const (
	brandName = "TrackingDude"
	// messageDateLayout is how expiration dates appear in rendered messages.
	messageDateLayout = "January 2, 2006"
)

type messageData struct {
	Service    string // "domain" or "hosting"
	Title      string // "Domain" or "Hosting"
	Emoji      string
	Identifier string
	Provider   string
	Expiration string
	Brand      string
}

var emailSubjectTmpl = template.Must(template.New("subject").Parse(
	`⚠️ {{.Title}} {{.Identifier}} expires on {{.Expiration}}`))

var emailTextTmpl = template.Must(template.New("text").Parse(`{{.Brand}} - Expiration Notification

Your {{.Service}} {{.Identifier}} is about to expire.

Details:
- {{.Title}}: {{.Identifier}}
- Provider: {{.Provider}}
- Expiration Date: {{.Expiration}}

Renew now: contact {{.Provider}} to renew the {{.Service}} before {{.Expiration}} to avoid service interruptions.
`))

var emailHTMLTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #f8f9fa; padding: 20px; text-align: center; border-radius: 8px; }
.alert { background: #fff3cd; border: 1px solid #ffeaa7; padding: 15px; border-radius: 5px; margin: 20px 0; }
.footer { text-align: center; color: #666; margin-top: 30px; font-size: 14px; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>{{.Emoji}} {{.Brand}}</h1>
<h2>{{.Title}} Expiration Notification</h2>
</div>
<div class="alert">
<h3>⚠️ Your {{.Service}} is about to expire</h3>
<p><strong>{{.Title}}:</strong> {{.Identifier}}</p>
<p><strong>Provider:</strong> {{.Provider}}</p>
<p><strong>Expiration Date:</strong> {{.Expiration}}</p>
</div>
<p>Your {{.Service}} <strong>{{.Identifier}}</strong> will expire on <strong>{{.Expiration}}</strong>.</p>
<p><strong>Renew now:</strong> contact {{.Provider}} to renew it before the expiration date to avoid service interruptions.</p>
<div class="footer">
<p>This message was sent automatically by {{.Brand}}</p>
<p>Domain and hosting management system</p>
</div>
</div>
</body>
</html>
`))

var whatsAppTmpl = template.Must(template.New("whatsapp").Parse(`{{.Emoji}} *{{.Brand}} - Expiration Alert*

⚠️ Your {{.Service}} *{{.Identifier}}* is about to expire.

📅 *Expiration Date:* {{.Expiration}}
🏢 *Provider:* {{.Provider}}

Please renew your {{.Service}} before the expiration date to avoid service interruptions.

_Automated message from {{.Brand}}_`))

// RenderMessage builds the channel-specific reminder text. It reads no clock or
// environment, so identical inputs always produce identical output.
func RenderMessage(kind subject.Kind, subjectIdentifier string, expiration time.Time, provider string, method notification.Method) (notification.Message, error) {
	if !kind.Valid() {
		return notification.Message{}, &notification.ValidationError{Field: "kind", Reason: "must be DOMAIN or HOSTING"}
	}

	data := messageData{
		Service:    "domain",
		Title:      "Domain",
		Emoji:      "🌐",
		Identifier: subjectIdentifier,
		Provider:   provider,
		Expiration: expiration.Format(messageDateLayout),
		Brand:      brandName,
	}
	if kind == subject.KindHosting {
		data.Service = "hosting"
		data.Title = "Hosting"
		data.Emoji = "🖥️"
	}

	switch method {
	case notification.MethodEmail:
		subjectLine, err := execute(emailSubjectTmpl, data)
		if err != nil {
			return notification.Message{}, err
		}
		text, err := execute(emailTextTmpl, data)
		if err != nil {
			return notification.Message{}, err
		}
		var html bytes.Buffer
		if err := emailHTMLTmpl.Execute(&html, data); err != nil {
			return notification.Message{}, err
		}
		return notification.Message{Subject: subjectLine, HTML: html.String(), Text: text}, nil
	case notification.MethodWhatsApp:
		body, err := execute(whatsAppTmpl, data)
		if err != nil {
			return notification.Message{}, err
		}
		return notification.Message{Body: body}, nil
	default:
		return notification.Message{}, &notification.ValidationError{Field: "method", Reason: "must be EMAIL or WHATSAPP"}
	}
}

func execute(tmpl *template.Template, data messageData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
