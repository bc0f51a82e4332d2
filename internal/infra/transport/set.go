// Package transport holds the delivery channels: SMTP email and Twilio WhatsApp.
package transport

import (
	"errors"
	"sort"
	"sync"

	"renewal_notifier/internal/domain/notification"
)

// Set maps each method to the transport that delivers it.
type Set struct {
	mu         sync.RWMutex
	transports map[notification.Method]notification.Transport
	disabled   map[notification.Method]error
}

func NewSet() *Set {
	return &Set{
		transports: make(map[notification.Method]notification.Transport),
		disabled:   make(map[notification.Method]error),
	}
}

// Register makes t the transport for its method, replacing any earlier one.
func (s *Set) Register(t notification.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transports[t.Method()] = t
	delete(s.disabled, t.Method())
}

// Disable records why a method has no transport. Lookup returns that reason.
func (s *Set) Disable(method notification.Method, reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transports, method)
	s.disabled[method] = reason
}

// Lookup returns the transport for method or a *notification.ConfigurationError.
func (s *Set) Lookup(method notification.Method) (notification.Transport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.transports[method]; ok {
		return t, nil
	}
	if reason, ok := s.disabled[method]; ok {
		var cerr *notification.ConfigurationError
		if errors.As(reason, &cerr) {
			return nil, reason
		}
		return nil, &notification.ConfigurationError{Channel: method, Reason: reason.Error()}
	}
	return nil, &notification.ConfigurationError{Channel: method, Reason: "no transport registered"}
}

// Methods lists the methods with a registered transport.
func (s *Set) Methods() []notification.Method {
	s.mu.RLock()
	defer s.mu.RUnlock()

	methods := make([]notification.Method, 0, len(s.transports))
	for m := range s.transports {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}
