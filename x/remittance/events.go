package remittance

import (
	"context"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/allbabel/remittance"
	"github.com/tendermint/tendermint/libs/common"
)

// Event kinds emitted by the engine.
const (
	EventDepositCreated = "deposit_created"
	EventTransferred    = "transferred"
	EventRefunded       = "refunded"
	EventFeesSwept      = "fees_swept"
)

// Event is published after a state change was written. Attributes are
// tendermint tags so they can be attached to a transaction result as they
// are.
type Event struct {
	Kind       string
	Attributes []common.KVPair
}

// Attr returns the value of the attribute with given key, or an empty
// string.
func (e Event) Attr(key string) string {
	for _, kv := range e.Attributes {
		if string(kv.Key) == key {
			return string(kv.Value)
		}
	}
	return ""
}

func newEvent(kind string, keyvals ...string) Event {
	e := Event{Kind: kind}
	for i := 0; i+1 < len(keyvals); i += 2 {
		e.Attributes = append(e.Attributes, common.KVPair{
			Key:   []byte(keyvals[i]),
			Value: []byte(keyvals[i+1]),
		})
	}
	return e
}

// depositCreated carries the deposited amount together with its split into
// the fee and the escrowed net amount.
func depositCreated(commitment []byte, depositor remittance.Address, amount, fee uint64) Event {
	return newEvent(EventDepositCreated,
		"commitment", hex.EncodeToString(commitment),
		"depositor", depositor.String(),
		"amount", strconv.FormatUint(amount, 10),
		"fee", strconv.FormatUint(fee, 10),
		"net_amount", strconv.FormatUint(amount-fee, 10))
}

func transferred(commitment []byte, to remittance.Address, amount uint64) Event {
	return newEvent(EventTransferred,
		"commitment", hex.EncodeToString(commitment),
		"to", to.String(),
		"amount", strconv.FormatUint(amount, 10))
}

func refunded(commitment []byte, to remittance.Address, amount uint64) Event {
	return newEvent(EventRefunded,
		"commitment", hex.EncodeToString(commitment),
		"to", to.String(),
		"amount", strconv.FormatUint(amount, 10))
}

func feesSwept(owner remittance.Address, amount uint64) Event {
	return newEvent(EventFeesSwept,
		"owner", owner.String(),
		"amount", strconv.FormatUint(amount, 10))
}

// EventSink receives events of successful operations.
type EventSink interface {
	Emit(Event)
}

// EventLog is an EventSink that keeps all events in memory. It is safe for
// concurrent use.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

var _ EventSink = (*EventLog)(nil)

// Emit appends the event.
func (l *EventLog) Emit(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

// Events returns a copy of all collected events.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Reset drops all collected events.
func (l *EventLog) Reset() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

type discardEvents struct{}

func (discardEvents) Emit(Event) {}

// collector buffers events of a single operation, so that nothing is
// published unless the operation succeeds.
type collector struct {
	events []Event
}

func (c *collector) Emit(e Event) {
	c.events = append(c.events, e)
}

func (c *collector) flush(sinks ...EventSink) {
	for _, e := range c.events {
		for _, s := range sinks {
			s.Emit(e)
		}
	}
	c.events = nil
}

type eventsKey struct{}

// WithEvents returns a context that additionally receives the events of
// operations executed with it.
func WithEvents(ctx context.Context, sink EventSink) context.Context {
	return context.WithValue(ctx, eventsKey{}, sink)
}

func sinks(ctx context.Context, def EventSink) []EventSink {
	if s, ok := ctx.Value(eventsKey{}).(EventSink); ok {
		return []EventSink{def, s}
	}
	return []EventSink{def}
}
