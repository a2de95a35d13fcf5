package order

import (
	"time"

	"github.com/google/uuid"
)

// Order is the aggregate the transition engine operates on. The engine owns
// the Status and UpdatedAt fields; IsPaid is written by the payment
// collaborator and AssignedWriter by the assignment handler.
type Order struct {
	ID             uuid.UUID  `json:"id"`
	ClientID       uuid.UUID  `json:"client_id"`
	Topic          string     `json:"topic"`
	Pages          int        `json:"pages"`
	Status         Status     `json:"status"`
	IsPaid         bool       `json:"is_paid"`
	AssignedWriter *uuid.UUID `json:"assigned_writer,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HasWriter returns true if a writer is assigned to the order.
func (o *Order) HasWriter() bool {
	return o.AssignedWriter != nil
}
