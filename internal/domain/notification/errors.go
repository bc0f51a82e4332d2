package notification

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input to record construction.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// ConfigurationError reports a channel that cannot be used as configured,
// for example missing credentials or a transport for the wrong method.
type ConfigurationError struct {
	Channel Method
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s channel is not configured: %s", channelName(e.Channel), e.Reason)
}

// TransportError reports a network or authentication failure at the transport boundary.
type TransportError struct {
	Channel Method
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", channelName(e.Channel), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InvalidStateError reports a transition the record does not allow,
// such as marking an already sent notification as sent again.
type InvalidStateError struct {
	ID     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("notification %s: %s", e.ID, e.Reason)
}

func channelName(m Method) string {
	switch m {
	case MethodEmail:
		return "email"
	case MethodWhatsApp:
		return "whatsapp"
	case "":
		return "unknown"
	default:
		return strings.ToLower(string(m))
	}
}
