// internal/infra/logger/logger.go
package logger

import (
	"os"
	"strings"

	"renewal_notifier/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the global logger instance
var Log = logrus.New()

const redacted = "[REDACTED]"

// Init configures the global logger from the application config: level, format
// by environment, and masking of the configured credentials.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		Log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.LogLevel, err)
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
	Log.SetFormatter(formatterFor(cfg.Environment))

	Log.ReplaceHooks(make(logrus.LevelHooks))
	if hook := newRedactHook(cfg.Email.Password, cfg.Twilio.AuthToken, cfg.TelegramToken); hook != nil {
		Log.AddHook(hook)
	}

	Log.Debugf("Log level set to: %s", Log.GetLevel().String())
	Log.Debugf("Log format set for environment: %s", cfg.Environment)
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// formatterFor returns JSON for production and staging, text otherwise.
func formatterFor(env string) logrus.Formatter {
	switch strings.ToLower(env) {
	case "production", "staging":
		return &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		}
	default:
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		}
	}
}

// redactHook replaces secret values in messages, string fields and error fields.
type redactHook struct {
	replacer *strings.Replacer
}

// newRedactHook returns nil when there is nothing to mask.
func newRedactHook(secrets ...string) *redactHook {
	var pairs []string
	for _, s := range secrets {
		if s = strings.TrimSpace(s); s != "" {
			pairs = append(pairs, s, redacted)
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	return &redactHook{replacer: strings.NewReplacer(pairs...)}
}

func (h *redactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *redactHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.replacer.Replace(entry.Message)
	for k, v := range entry.Data {
		switch val := v.(type) {
		case string:
			entry.Data[k] = h.replacer.Replace(val)
		case error:
			if masked := h.replacer.Replace(val.Error()); masked != val.Error() {
				entry.Data[k] = masked
			}
		}
	}
	return nil
}
