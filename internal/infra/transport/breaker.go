package transport

import (
	"context"
	"errors"
	"time"

	"renewal_notifier/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings controls when a transport's circuit opens and how long it stays open.
type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	// OnStateChange is called with the method and new state name, e.g. "open".
	OnStateChange func(method notification.Method, state string)
}

// Breaker stops calling a transport after repeated delivery failures.
// Validation and configuration errors do not count as failures.
type Breaker struct {
	next notification.Transport
	cb   *gobreaker.CircuitBreaker[string]
}

func WithBreaker(next notification.Transport, settings BreakerSettings, logger *logrus.Entry) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = time.Minute
	}
	method := next.Method()

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        string(method),
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			var terr *notification.TransportError
			return err == nil || !errors.As(err, &terr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"method": name,
				"from":   from.String(),
				"to":     to.String(),
			}).Warn("Transport circuit breaker state changed")
			if settings.OnStateChange != nil {
				settings.OnStateChange(method, to.String())
			}
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Method() notification.Method {
	return b.next.Method()
}

func (b *Breaker) Deliver(ctx context.Context, to string, msg notification.Message) (string, error) {
	id, err := b.cb.Execute(func() (string, error) {
		return b.next.Deliver(ctx, to, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &notification.TransportError{Channel: b.next.Method(), Err: err}
	}
	return id, err
}

// State reports the breaker state name: "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}
