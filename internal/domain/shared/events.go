// Package shared holds building blocks used by every domain package
package shared

import "time"

// DomainEvent represents an event that has occurred in the domain
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// AggregateRoot buffers events raised while an aggregate is being built,
// until the caller has persisted it and can publish them
type AggregateRoot struct {
	events []DomainEvent
}

// AddEvent records a domain event
func (a *AggregateRoot) AddEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// Events returns and clears pending domain events
func (a *AggregateRoot) Events() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}

// HasEvents reports whether events are pending
func (a *AggregateRoot) HasEvents() bool {
	return len(a.events) > 0
}
