package telegram

// Reporter delivers plain text reports to the operator's Telegram chat.
// The scheduler uses it for dispatch runs that had failures.
type Reporter interface {
	Report(text string) error
}
