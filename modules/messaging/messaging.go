// Package messaging is the outbound patient messaging outbox. Messages are
// rendered from a template gallery and stored with status queued; delivery is
// a separate concern picked up from the outbox by whatever provider the
// deployment wires in.
package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Status of an outbox message.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Message is one rendered outbound message in the outbox.
type Message struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Template  string    `json:"template"`
	Language  string    `json:"language"`
	Body      string    `json:"body"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnqueueParams selects a template and supplies its placeholder values.
type EnqueueParams struct {
	PatientID uuid.UUID         `json:"patient_id"`
	Template  string            `json:"template"`
	Language  string            `json:"language"`
	Params    map[string]string `json:"params"`
}
