package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() string
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderCreated is raised when an order enters the workflow.
type OrderCreated struct {
	BaseEvent
	OrderID string
	Status  Status
}

func (e OrderCreated) EventName() string   { return "orders.order.created" }
func (e OrderCreated) AggregateID() string { return e.OrderID }

// StatusChanged is raised when a transition moves the order to another stage.
type StatusChanged struct {
	BaseEvent
	OrderID    string
	FromStatus Status
	ToStatus   Status
	ActorID    string
	ActorRole  Role
}

func (e StatusChanged) EventName() string   { return "orders.order.status_changed" }
func (e StatusChanged) AggregateID() string { return e.OrderID }

// NoteAdded is raised when a note is appended to the thread.
type NoteAdded struct {
	BaseEvent
	OrderID    string
	NoteID     string
	AuthorRole Role
	TargetRole Role
}

func (e NoteAdded) EventName() string   { return "orders.note.added" }
func (e NoteAdded) AggregateID() string { return e.OrderID }

// AttachmentRemoved is raised when an attachment is deleted from an order.
type AttachmentRemoved struct {
	BaseEvent
	OrderID      string
	AttachmentID string
	URL          string
	RemovedBy    Role
}

func (e AttachmentRemoved) EventName() string   { return "orders.attachment.removed" }
func (e AttachmentRemoved) AggregateID() string { return e.OrderID }

// AggregateWithEvents is implemented by aggregates that track domain events.
type AggregateWithEvents interface {
	Events() []Event
	ClearEvents()
}
