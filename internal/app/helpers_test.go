package app

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"renewal_notifier/internal/domain/notification"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type delivery struct {
	To  string
	Msg notification.Message
}

// fakeTransport records every delivery and returns err when set.
type fakeTransport struct {
	method notification.Method
	err    error

	mu         sync.Mutex
	deliveries []delivery
}

func (f *fakeTransport) Method() notification.Method { return f.method }

func (f *fakeTransport) Deliver(_ context.Context, to string, msg notification.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{To: to, Msg: msg})
	if f.err != nil {
		return "", f.err
	}
	return "msg-" + string(f.method), nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deliveries)
}

// fakeLookup maps methods to transports; a missing entry yields a ConfigurationError.
type fakeLookup map[notification.Method]notification.Transport

func (l fakeLookup) Lookup(method notification.Method) (notification.Transport, error) {
	t, ok := l[method]
	if !ok {
		return nil, &notification.ConfigurationError{Channel: method, Reason: "credentials are not set"}
	}
	return t, nil
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObserveDispatch(method notification.Method, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[string(method)+"/"+outcome]++
}

func (o *countingObserver) count(method notification.Method, outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[string(method)+"/"+outcome]
}
