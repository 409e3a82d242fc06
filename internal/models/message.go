package models

import "time"

// Message is a persisted marketplace message between a client and a
// vendor. The trust core reads messages back out as scan subjects.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}
