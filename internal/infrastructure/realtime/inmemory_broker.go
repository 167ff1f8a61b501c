package realtime

import (
	"context"
	"sync"
)

// InMemoryBroker is a single-process Broker for tests and development.
type InMemoryBroker struct {
	mu        sync.RWMutex
	callbacks []func(change ChangeEvent)
	closed    bool
}

// NewInMemoryBroker creates a new in-memory broker
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{}
}

// Publish delivers the change to all subscribers synchronously
func (b *InMemoryBroker) Publish(_ context.Context, change ChangeEvent) error {
	b.mu.RLock()
	callbacks := append(([]func(change ChangeEvent))(nil), b.callbacks...)
	b.mu.RUnlock()

	for _, cb := range callbacks {
		cb(change)
	}
	return nil
}

// Subscribe registers a callback and blocks until the context is done,
// mirroring the Redis broker's blocking contract.
func (b *InMemoryBroker) Subscribe(ctx context.Context, callback func(change ChangeEvent)) error {
	b.mu.Lock()
	b.callbacks = append(b.callbacks, callback)
	b.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

// AddCallback registers a callback without blocking. Useful in tests and
// single-process wiring where the blocking Subscribe contract is not needed.
func (b *InMemoryBroker) AddCallback(callback func(change ChangeEvent)) {
	b.mu.Lock()
	b.callbacks = append(b.callbacks, callback)
	b.mu.Unlock()
}

// Close marks the broker closed
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.callbacks = nil
	return nil
}

// Ensure InMemoryBroker implements Broker
var _ Broker = (*InMemoryBroker)(nil)
