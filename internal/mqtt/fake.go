package mqtt

import (
	"context"
	"sync"
)

// FakeBus records published messages and delivers scripted commands.
// It is safe for concurrent use.
type FakeBus struct {
	mu        sync.Mutex
	published []Message

	inbox chan Message
	done  chan struct{}
	once  sync.Once

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeBus creates a FakeBus that holds up to 64 undelivered commands.
func NewFakeBus() *FakeBus {
	return &FakeBus{
		inbox: make(chan Message, 64),
		done:  make(chan struct{}),
	}
}

// Send queues an inbound command for NextCommand.
func (f *FakeBus) Send(topic, payload string) {
	f.inbox <- Message{Topic: topic, Payload: []byte(payload)}
}

// Publish records the message.
func (f *FakeBus) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}
	f.published = append(f.published, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	return nil
}

// NextCommand returns the next queued command.
func (f *FakeBus) NextCommand(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-f.done:
		return Message{}, ErrClosed
	case m := <-f.inbox:
		return m, nil
	}
}

// Pending returns how many sent commands have not been delivered yet.
func (f *FakeBus) Pending() int {
	return len(f.inbox)
}

// Published returns a copy of every published message.
func (f *FakeBus) Published() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.published...)
}

// PublishedTo returns the payloads published to topic, in order.
func (f *FakeBus) PublishedTo(topic string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, m := range f.published {
		if m.Topic == topic {
			out = append(out, string(m.Payload))
		}
	}
	return out
}

// IsConnected reports whether the fake bus is "connected".
func (f *FakeBus) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the bus as closed and unblocks NextCommand.
func (f *FakeBus) Close() error {
	f.once.Do(func() { close(f.done) })
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset clears recorded messages.
func (f *FakeBus) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = nil
	f.PublishError = nil
}
