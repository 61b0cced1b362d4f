package memory

import (
	"context"
	"sync"
)

// EventPublisher buffers published events. The production deployment wires
// the host platform's bus instead.
type EventPublisher struct {
	mu     sync.Mutex
	events []any
}

func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

func (p *EventPublisher) Publish(ctx context.Context, event any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *EventPublisher) Events() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.events...)
}
