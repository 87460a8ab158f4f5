package models

import "time"

// Location is a named place or resource that events can be assigned to
// The name acts as a natural key: event creation looks locations up by their exact name
// and creates missing ones on the fly
type Location struct {
	// Internal ID
	ID uint `db:"id" json:"id"`
	// Name of the location
	Name string `db:"name" json:"name"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}
