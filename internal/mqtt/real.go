package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/elzekool/mqtt-fireplace-control/internal/logger"
)

// Options configures the broker connection.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Retain   bool
	Topics   Topics

	// InboxSize bounds inbound commands waiting for the router.
	InboxSize int
	// BufferSize bounds the topics held while disconnected.
	BufferSize int
}

const (
	defaultInboxSize  = 32
	defaultBufferSize = 64
	publishTimeout    = 5 * time.Second
)

// RealBus is connected to an actual MQTT broker.
type RealBus struct {
	client paho.Client
	opts   Options
	log    *logger.Logger

	inbox chan Message
	done  chan struct{}
	once  sync.Once

	mu     sync.Mutex
	buffer *outbox
}

// NewRealBus connects to the broker, subscribes to the command topics on
// every (re)connect and registers "offline" as last will.
func NewRealBus(opts Options, log *logger.Logger) (*RealBus, error) {
	if opts.InboxSize <= 0 {
		opts.InboxSize = defaultInboxSize
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}

	b := &RealBus{
		opts:   opts,
		log:    log,
		inbox:  make(chan Message, opts.InboxSize),
		done:   make(chan struct{}),
		buffer: newOutbox(opts.BufferSize),
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetCleanSession(true).
		SetKeepAlive(5 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(opts.Topics.Availability(), AvailabilityOffline, 1, true).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			b.log.Warnw("connection lost", "err", err)
		})

	b.client = paho.NewClient(clientOpts)
	token := b.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return b, nil
}

func (b *RealBus) onConnect(c paho.Client) {
	filters := make(map[string]byte, len(b.opts.Topics.Commands()))
	for _, topic := range b.opts.Topics.Commands() {
		filters[topic] = b.opts.QoS
	}
	token := c.SubscribeMultiple(filters, b.handleMessage)
	if !token.WaitTimeout(publishTimeout) {
		b.log.Errorw("subscribe timeout", "topics", b.opts.Topics.Commands())
	} else if err := token.Error(); err != nil {
		b.log.Errorw("subscribe failed", "err", err)
	} else {
		b.log.Infow("subscribed", "topics", b.opts.Topics.Commands())
	}

	if err := b.publish(b.opts.Topics.Availability(), 1, true, []byte(AvailabilityOnline)); err != nil {
		b.log.Warnw("publish availability failed", "err", err)
	}

	b.mu.Lock()
	pending := b.buffer.drainAll()
	b.mu.Unlock()
	if len(pending) > 0 {
		b.log.Infow("replaying buffered messages", "count", len(pending))
	}
	for _, m := range pending {
		if err := b.publish(m.topic, m.qos, m.retained, m.payload); err != nil {
			b.log.Warnw("replay failed", "topic", m.topic, "err", err)
		}
	}
}

// handleMessage runs on the paho router goroutine and must not block it,
// so a command that arrives while the inbox is full is dropped.
func (b *RealBus) handleMessage(_ paho.Client, msg paho.Message) {
	m := Message{
		Topic:    msg.Topic(),
		Payload:  append([]byte(nil), msg.Payload()...),
		Retained: msg.Retained(),
	}
	select {
	case b.inbox <- m:
	default:
		b.log.Warnw("inbox full, dropping command", "topic", m.Topic, "capacity", cap(b.inbox))
	}
}

// Publish sends payload to topic, buffering it while disconnected.
func (b *RealBus) Publish(topic string, payload []byte) error {
	if !b.client.IsConnectionOpen() {
		b.mu.Lock()
		dropped := b.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: b.opts.QoS, retained: b.opts.Retain})
		b.mu.Unlock()
		if dropped {
			b.log.Warnw("outbox full, dropping oldest topic", "capacity", b.opts.BufferSize)
		}
		return nil
	}
	return b.publish(topic, b.opts.QoS, b.opts.Retain, payload)
}

func (b *RealBus) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := b.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// NextCommand returns the next inbound command.
func (b *RealBus) NextCommand(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-b.done:
		return Message{}, ErrClosed
	case m := <-b.inbox:
		return m, nil
	}
}

// IsConnected reports whether the broker connection is open.
func (b *RealBus) IsConnected() bool {
	return b.client.IsConnectionOpen()
}

// Close publishes "offline" and disconnects from the broker.
func (b *RealBus) Close() error {
	b.once.Do(func() {
		close(b.done)
		if b.client.IsConnectionOpen() {
			if err := b.publish(b.opts.Topics.Availability(), 1, true, []byte(AvailabilityOffline)); err != nil {
				b.log.Warnw("publish availability failed", "err", err)
			}
		}
		b.client.Disconnect(1000) // 1 second timeout
	})
	return nil
}
