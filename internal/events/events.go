package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated          = "booking_created"
	EventBookingLecturerApproved = "booking_lecturer_approved"
	EventBookingApproved         = "booking_approved"
	EventBookingRejected         = "booking_rejected"
	EventBookingCancelled        = "booking_cancelled"
	EventChangeRequested         = "campus_change_requested"
	EventChangeReviewed          = "campus_change_reviewed"
	EventIssueReported           = "issue_reported"
	EventIssueHandled            = "issue_handled"
	EventIssueResolved           = "issue_resolved"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID    int64     `json:"booking_id"`
	Code         string    `json:"code"`
	FacilityID   int64     `json:"facility_id"`
	FacilityName string    `json:"facility_name"`
	UserID       int64     `json:"user_id"`
	UserName     string    `json:"user_name"`
	Status       string    `json:"status"`
	Date         time.Time `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	ActorRole    string    `json:"actor_role,omitempty"`
	ActorID      int64     `json:"actor_id,omitempty"`
}

// RequestEventPayload covers campus-change and issue workflow events.
type RequestEventPayload struct {
	RequestID int64  `json:"request_id"`
	UserID    int64  `json:"user_id"`
	Status    string `json:"status"`
	ActorID   int64  `json:"actor_id,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
