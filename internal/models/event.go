package models

import "time"

// Event describes a scheduled calendar entry
// An event always belongs to exactly one user and may optionally be assigned to a location
type Event struct {
	// Internal ID
	ID uint `db:"id" json:"id"`
	// Name of the event
	Name string `db:"name" json:"name"`
	// A little description of the event
	Description string `db:"description" json:"description,omitempty"`
	// When does/did the event start?
	StartsAt time.Time `db:"startsAt" json:"startsAt"`
	// When does/did the event end?
	EndsAt time.Time `db:"endsAt" json:"endsAt"`
	// The ID of the location this event is assigned to - NULL means "no location"
	LocationID *uint `db:"locationId" json:"locationId,omitempty"`
	// The ID of the owning user inside the identity store
	UserID string `db:"userId" json:"userId"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
	// The resolved location - filled by the repository, not a table column
	Location *Location `db:"-" json:"location,omitempty"`
	// The resolved owner - filled by the event service from the identity store
	User *User `db:"-" json:"user,omitempty"`
}
