// Package signal provides a minimal synchronous publish/subscribe primitive.
// Each Signal is an independent named channel with its own receiver list,
// sender filtering, and two delivery modes: Send (fail-fast) and SendRobust
// (fault-tolerant).
//
// Delivery is synchronous and in-process: receivers run on the caller's
// goroutine, so a slow or blocking receiver stalls the send. Callers that
// need deferred delivery should wrap receivers in their own queueing.
package signal

import (
	"fmt"
	"reflect"
	"sync"
)

// Receiver is a function invoked when a signal is sent. It receives the
// sender that triggered the signal and the signal's payload, and may return
// a response value.
type Receiver func(sender any, payload any) (any, error)

// Response is the per-receiver outcome of a send. For SendRobust exactly one
// of Value or Err is meaningful per receiver; for Send the Err of the last
// entry is always nil (a failing receiver aborts the send instead).
type Response struct {
	// Key identifies the receiver (dispatch UID or derived identity).
	Key string

	// Value is the receiver's return value.
	Value any

	// Err is the receiver's failure, captured only by SendRobust.
	Err error
}

// lookupKey uniquely identifies a (receiver, sender) registration.
// Identity follows the dispatch UID when one is given, otherwise the
// receiver's function identity. Senders must be comparable values;
// pointers and strings are typical.
type lookupKey struct {
	receiver string
	sender   any
}

type registration struct {
	key      lookupKey
	receiver Receiver
}

// Signal is a single named publish/subscribe channel. The zero value is not
// usable; construct with New.
type Signal struct {
	name string

	mu        sync.Mutex
	receivers []registration
}

// New creates a named Signal with an empty receiver list.
func New(name string) *Signal {
	return &Signal{name: name}
}

// Name returns the signal's name.
func (s *Signal) Name() string {
	return s.name
}

// ConnectOption configures a Connect or Disconnect call.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	sender      any
	dispatchUID string
}

// WithSender restricts the receiver to signals sent by the given sender.
// Without it the receiver fires for every sender. The sender must be a
// comparable value.
func WithSender(sender any) ConnectOption {
	return func(o *connectOptions) { o.sender = sender }
}

// WithDispatchUID overrides the derived receiver identity with an explicit
// key, so the same function can be connected under distinct identities or
// reliably disconnected without holding the original function value.
func WithDispatchUID(uid string) ConnectOption {
	return func(o *connectOptions) { o.dispatchUID = uid }
}

// Connect registers a receiver. Connecting the same identity twice is a
// no-op, so registration is idempotent.
func (s *Signal) Connect(receiver Receiver, opts ...ConnectOption) {
	key := buildKey(receiver, opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, reg := range s.receivers {
		if reg.key == key {
			return
		}
	}
	s.receivers = append(s.receivers, registration{key: key, receiver: receiver})
}

// Disconnect removes the registration matching the same identity rule as
// Connect. Removing a non-existent registration is a silent no-op.
func (s *Signal) Disconnect(receiver Receiver, opts ...ConnectOption) {
	key := buildKey(receiver, opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, reg := range s.receivers {
		if reg.key == key {
			s.receivers = append(s.receivers[:i], s.receivers[i+1:]...)
			return
		}
	}
}

// HasReceivers reports whether any receiver would fire for the given sender.
func (s *Signal) HasReceivers(sender any) bool {
	return len(s.receiversFor(sender)) > 0
}

// Send delivers the payload to every receiver registered for the sender or
// for any sender, in registration order. If a receiver returns an error,
// delivery stops and the error propagates to the caller; later receivers are
// skipped. This is intentional fail-fast behavior, not a defect.
func (s *Signal) Send(sender any, payload any) ([]Response, error) {
	var responses []Response
	for _, reg := range s.receiversFor(sender) {
		value, err := reg.receiver(sender, payload)
		if err != nil {
			return responses, err
		}
		responses = append(responses, Response{Key: reg.key.receiver, Value: value})
	}
	return responses, nil
}

// SendRobust delivers the payload with per-receiver failure isolation: every
// matching receiver runs exactly once regardless of sibling failures, and
// each Response carries either the receiver's return value or its captured
// error. Receiver panics are recovered and recorded as errors.
func (s *Signal) SendRobust(sender any, payload any) []Response {
	regs := s.receiversFor(sender)
	responses := make([]Response, 0, len(regs))
	for _, reg := range regs {
		value, err := callRecovered(reg.receiver, sender, payload)
		responses = append(responses, Response{Key: reg.key.receiver, Value: value, Err: err})
	}
	return responses
}

// receiversFor snapshots the filtered receiver list under the lock.
// Receivers are invoked outside the lock so a receiver may connect or
// disconnect reentrantly without deadlocking.
func (s *Signal) receiversFor(sender any) []registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]registration, 0, len(s.receivers))
	for _, reg := range s.receivers {
		if reg.key.sender == nil || reg.key.sender == sender {
			matched = append(matched, reg)
		}
	}
	return matched
}

func callRecovered(r Receiver, sender, payload any) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("receiver panic: %v", rec)
		}
	}()
	return r(sender, payload)
}

func buildKey(receiver Receiver, opts []ConnectOption) lookupKey {
	var o connectOptions
	for _, opt := range opts {
		opt(&o)
	}

	id := o.dispatchUID
	if id == "" {
		id = receiverID(receiver)
	}
	return lookupKey{receiver: id, sender: o.sender}
}

// receiverID derives a stable identity from the receiver's code pointer.
// Distinct closures over the same function body share a pointer, so callers
// registering multiple instances of one closure must use WithDispatchUID.
func receiverID(receiver Receiver) string {
	return fmt.Sprintf("0x%x", reflect.ValueOf(receiver).Pointer())
}
