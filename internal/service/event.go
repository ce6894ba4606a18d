package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-inventory-ledger/internal/model"

	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// EventPublisher delivers committed stock events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event model.StockEvent) error
}

// Publishers fans an event out to every publisher and joins their errors.
type Publishers []EventPublisher

func (p Publishers) Publish(ctx context.Context, event model.StockEvent) error {
	var errs []error
	for _, pub := range p {
		if pub == nil {
			continue
		}
		if err := pub.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OrderedPublisher hands events to pub in the order they were enqueued
// without making the caller wait for delivery. A failed delivery is logged
// and never reaches the operation that produced the event.
type OrderedPublisher struct {
	pub    EventPublisher
	logger *zap.Logger

	mu   sync.Mutex
	last chan struct{} // closed once the previous delivery finished
}

func NewOrderedPublisher(pub EventPublisher, logger *zap.Logger) *OrderedPublisher {
	return &OrderedPublisher{pub: pub, logger: logger}
}

// Publish enqueues event and returns immediately.
func (p *OrderedPublisher) Publish(_ context.Context, event model.StockEvent) error {
	p.enqueue(event)
	return nil
}

// Flush blocks until every event enqueued so far has been delivered or ctx ends.
func (p *OrderedPublisher) Flush(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if last == nil {
		return nil
	}
	select {
	case <-last:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OrderedPublisher) enqueue(event model.StockEvent) {
	if p == nil || p.pub == nil {
		return
	}

	p.mu.Lock()
	prev := p.last
	done := make(chan struct{})
	p.last = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.pub.Publish(ctx, event); err != nil {
			p.logger.Warn("failed to publish stock event",
				zap.String("action", event.Action),
				zap.Stringer("product_id", event.ProductID),
				zap.Error(err),
			)
		}
	}()
}

// ordered reuses pub when it already preserves order so services sharing one
// OrderedPublisher also share one delivery sequence.
func ordered(pub EventPublisher, logger *zap.Logger) *OrderedPublisher {
	if pub == nil {
		return nil
	}
	if op, ok := pub.(*OrderedPublisher); ok {
		return op
	}
	return NewOrderedPublisher(pub, logger)
}
