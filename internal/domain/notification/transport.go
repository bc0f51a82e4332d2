package notification

import "context"

// Message is a fully rendered reminder. Email uses Subject, HTML and Text;
// WhatsApp uses Body.
type Message struct {
	Subject string
	HTML    string
	Text    string
	Body    string
}

// Transport delivers rendered messages for exactly one method.
// Deliver returns the transport's message identifier.
type Transport interface {
	Method() Method
	Deliver(ctx context.Context, to string, msg Message) (string, error)
}
