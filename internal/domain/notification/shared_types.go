// internal/domain/notification/shared_types.go
package notification

import "strings"

// Method is the channel a reminder is delivered through.
type Method string

const (
	MethodEmail    Method = "EMAIL"
	MethodWhatsApp Method = "WHATSAPP"
)

// Valid reports whether m is one of the supported channels.
func (m Method) Valid() bool {
	return m == MethodEmail || m == MethodWhatsApp
}

// ParseMethod accepts a method name in any case and rejects anything outside the known set.
func ParseMethod(value string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(value)))
	if !m.Valid() {
		return "", &ValidationError{Field: "method", Reason: "must be EMAIL or WHATSAPP, got " + quote(value)}
	}
	return m, nil
}

// State is where a notification is in its dispatch lifecycle.
// Only PENDING and SENT are ever stored; DISPATCHING and FAILED exist for the
// duration of a single dispatch call.
type State string

const (
	StatePending     State = "PENDING"
	StateDispatching State = "DISPATCHING"
	StateSent        State = "SENT"
	StateFailed      State = "FAILED"
)

func quote(value string) string {
	return `"` + value + `"`
}
