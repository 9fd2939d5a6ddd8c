// Package queue defines message payloads exchanged over the message broker.
package queue

// EventType discriminates the messages published to the reservation events
// queue.
type EventType string

const (
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationCancelled EventType = "reservation.cancelled"
)

// ReservationEvent is published after a successful reserve or cancel.  It
// contains enough information for downstream consumers to log or notify
// families without reading the document store.
type ReservationEvent struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	ItemID        int64     `json:"item_id"`
	ItemTitle     string    `json:"item_title"`
	Category      string    `json:"category"`
	GuardianName  string    `json:"guardian_name"`
	StudentName   string    `json:"student_name"`
	Grade         string    `json:"grade"`
	ClassName     string    `json:"class_name"`
	OccurredAt    string    `json:"occurred_at"`
}
