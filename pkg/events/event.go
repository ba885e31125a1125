package events

import "time"

// Event is the contract for everything emitted on the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "TODO_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation the task domain uses.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Task lifecycle event codes.
const (
	TypeTodoCreated     = "TODO_CREATED"
	TypeTodoClosed      = "TODO_CLOSED"
	TypeTodoDue         = "TODO_DUE"
	TypeScheduleCreated = "SCHEDULE_CREATED"
	TypeScheduleClosed  = "SCHEDULE_CLOSED"
)

func NewTodoCreated(publicId, title, dueAt, actionType string) BaseEvent {
	return BaseEvent{
		Type: TypeTodoCreated,
		Data: map[string]interface{}{
			"todo_id":     publicId,
			"title":       title,
			"due_at":      dueAt,
			"action_type": actionType,
		},
		OccurredAt: time.Now(),
	}
}

func NewTodoClosed(publicId, title string) BaseEvent {
	return BaseEvent{
		Type: TypeTodoClosed,
		Data: map[string]interface{}{
			"todo_id": publicId,
			"title":   title,
		},
		OccurredAt: time.Now(),
	}
}

func NewTodoDue(publicId, title, actionType string) BaseEvent {
	return BaseEvent{
		Type: TypeTodoDue,
		Data: map[string]interface{}{
			"todo_id":     publicId,
			"title":       title,
			"action_type": actionType,
		},
		OccurredAt: time.Now(),
	}
}

func NewScheduleCreated(publicId, title, label string) BaseEvent {
	return BaseEvent{
		Type: TypeScheduleCreated,
		Data: map[string]interface{}{
			"schedule_id": publicId,
			"title":       title,
			"cadence":     label,
		},
		OccurredAt: time.Now(),
	}
}

func NewScheduleClosed(publicId, title string) BaseEvent {
	return BaseEvent{
		Type: TypeScheduleClosed,
		Data: map[string]interface{}{
			"schedule_id": publicId,
			"title":       title,
		},
		OccurredAt: time.Now(),
	}
}
