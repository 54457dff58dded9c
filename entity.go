package invoiceflow

import "time"

// Entity holds the timestamps common to all persisted invoiceflow entities.
// Embed it in entity structs; stores refresh UpdatedAt on write.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity returns an Entity stamped with the current UTC time.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{CreatedAt: now, UpdatedAt: now}
}
