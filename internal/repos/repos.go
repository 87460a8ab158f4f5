// Package repos contains the repository interfaces needed in Evercal
// It exists to prevent circular dependencies between evercal and the repo implementations
package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/evercal/evercal/internal/models"
)

var (
	// ErrEntityNotExisting is fired by a repository when an entity that is queried, updated or deleted does not exist
	ErrEntityNotExisting = fmt.Errorf("cannot update: Entity does not exist")
	// ErrEntityAlreadyExisting is fired by a repository when a write collides with a unique constraint
	ErrEntityAlreadyExisting = fmt.Errorf("cannot write: An entity with the same unique key already exists")
)

// EventRepo defines a repository that handles storing and querying calendar events
type EventRepo interface {
	// Create creates a new event - the given location name is resolved (or created) inside the same transaction
	// as the event's own insert; an empty name means "no location"
	Create(ev *models.Event, locationName string) error
	// Update updates the given event, resolving the location name the same way Create does
	Update(ev *models.Event, locationName string) error
	// Delete removes the given event
	Delete(id uint) error
	// GetByID returns the event with the given ID, hydrated with its location
	GetByID(id uint) (*models.Event, error)
	// List returns all events ordered by start time, most recent first
	List() ([]models.Event, error)
	// ListByOwner returns the events owned by the given user - a blank user ID yields an empty result
	ListByOwner(userID string) ([]models.Event, error)
}

// LocationRepo defines a repository that handles storing and querying event locations
type LocationRepo interface {
	// Create creates a new location
	Create(loc *models.Location) error
	// Update overwrites an existing location's name
	Update(loc *models.Location) error
	// Delete removes the given location and detaches all events referencing it
	Delete(id uint) error
	// GetByID returns the location with the given ID
	GetByID(id uint) (*models.Location, error)
	// List returns all locations ordered by name
	List() ([]models.Location, error)
}

// UserRepo defines the identity store collaborator the calendar core reads its users from
type UserRepo interface {
	// Create registers a new user - used only for seeding the store on startup
	Create(u *models.User) error
	// GetByID returns the user with the given ID or nil if no such user exists
	GetByID(id string) (*models.User, error)
	// GetByCredentials returns the user which has the given username and password - this is used for login
	GetByCredentials(username string, password string) (*models.User, error)
}

// SessionRepo stores information about active API sessions
type SessionRepo interface {
	// CreateFor creates a new session for the given user ID
	CreateFor(userID string) (*models.Session, error)
	// GetByID returns the session associated with the given session ID and extends it's expiry if requested
	GetByID(sessionID string, extend bool) (*models.Session, error)
	// Delete removes a session from the session storage
	Delete(sessionID string) error
}

// -- Helpers for SQLX repos -------------------------------------------------------------------------------------------

// DoRollback rolls back a transaction and catches any error resulting from it while appending the original error
func DoRollback(tx *sqlx.Tx, originalError error) error {
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("doRollback: Transaction rollback failed: %v; Recent error: %v", err, originalError)
	}
	return originalError
}
