package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCloseTimeout = 5 * time.Second

// Broker fans post change events out to interested parties. The service
// publishes a change whenever a post mutates; each server instance
// subscribes and forwards changes to its connected SSE clients.
type Broker interface {
	Publish(ctx context.Context, change ChangeEvent) error
	Subscribe(ctx context.Context, callback func(change ChangeEvent)) error
	Close() error
}

// RedisBroker implements Broker using Redis Pub/Sub so change events
// reach every server instance, not just the one that handled the write.
type RedisBroker struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	channel    string
	logger     *zap.Logger
	cancelFn   context.CancelFunc
	doneCh     chan struct{}
	doneOnce   sync.Once
	mu         sync.Mutex
	isRunning  bool
}

// RedisBrokerOption is a functional option for configuring the broker
type RedisBrokerOption func(*RedisBroker)

// WithBrokerChannel sets the Pub/Sub channel name
func WithBrokerChannel(channel string) RedisBrokerOption {
	return func(b *RedisBroker) {
		b.channel = channel
	}
}

// WithBrokerLogger sets the logger for the broker
func WithBrokerLogger(logger *zap.Logger) RedisBrokerOption {
	return func(b *RedisBroker) {
		b.logger = logger
	}
}

// NewRedisBroker creates a broker with its own Redis client
func NewRedisBroker(addr, password string, db int, opts ...RedisBrokerOption) (*RedisBroker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	broker := &RedisBroker{
		client:     client,
		ownsClient: true,
		channel:    "posts:changes",
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(broker)
	}

	return broker, nil
}

// NewRedisBrokerWithClient creates a broker with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisBrokerWithClient(client *redis.Client, opts ...RedisBrokerOption) *RedisBroker {
	broker := &RedisBroker{
		client:     client,
		ownsClient: false,
		channel:    "posts:changes",
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(broker)
	}

	return broker
}

// Publish sends a change event to all subscribers
func (b *RedisBroker) Publish(ctx context.Context, change ChangeEvent) error {
	if change.Timestamp == 0 {
		change.Timestamp = time.Now().UnixNano()
	}

	data, err := json.Marshal(change)
	if err != nil {
		b.logger.Error("Failed to marshal change event",
			zap.String("type", string(change.Type)),
			zap.Error(err))
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish change event",
			zap.String("channel", b.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	b.logger.Debug("Published change event",
		zap.String("type", string(change.Type)),
		zap.String("post_id", change.PostID.String()),
		zap.String("channel", b.channel))

	return nil
}

// Subscribe starts listening for change events. The callback is invoked
// for each received event. This method blocks and should be called in a
// goroutine.
func (b *RedisBroker) Subscribe(ctx context.Context, callback func(change ChangeEvent)) error {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	b.isRunning = true
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancelFn = cancel
	b.mu.Unlock()

	pubsub := b.client.Subscribe(subCtx, b.channel)
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(subCtx); err != nil {
		b.mu.Lock()
		b.isRunning = false
		b.mu.Unlock()
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Info("Subscribed to change stream channel",
		zap.String("channel", b.channel))

	ch := pubsub.Channel()

	for {
		select {
		case <-subCtx.Done():
			b.logger.Info("Change stream subscription stopped")
			b.mu.Lock()
			b.isRunning = false
			b.mu.Unlock()
			b.markDone()
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warn("Change stream channel closed")
				b.mu.Lock()
				b.isRunning = false
				b.mu.Unlock()
				b.markDone()
				return nil
			}

			var change ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				b.logger.Error("Failed to unmarshal change event",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}

			// Invoke the callback in a separate goroutine to prevent a slow
			// consumer from blocking the subscription loop
			go func(c ChangeEvent) {
				defer func() {
					if r := recover(); r != nil {
						b.logger.Error("Panic in change stream callback",
							zap.Any("panic", r))
					}
				}()
				callback(c)
			}(change)
		}
	}
}

// markDone safely marks the broker subscription as finished
func (b *RedisBroker) markDone() {
	b.doneOnce.Do(func() {
		close(b.doneCh)
	})
}

// Close releases any resources held by the broker
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	cancelFn := b.cancelFn
	b.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-b.doneCh:
		case <-time.After(defaultCloseTimeout):
			b.logger.Warn("Timeout waiting for subscription to stop")
		}
	}

	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}

// Ensure RedisBroker implements Broker
var _ Broker = (*RedisBroker)(nil)
