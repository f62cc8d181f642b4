package entity

import "time"

// Registrant is written once after a successful claim and never updated.
// Email is omitted from storage when empty so the unique index ignores phone-only registrations.
type Registrant struct {
	Id           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty"`
	Phone        string    `json:"phone" bson:"phone"`
	TicketNumber int       `json:"ticket_number" bson:"ticket_number"`
	TicketCode   string    `json:"ticket_code" bson:"ticket_code"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
