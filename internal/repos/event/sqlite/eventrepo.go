// Package sqlite provides an event repository that stores its data inside a SQLite database
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/evercal/evercal/internal/log"
	"github.com/evercal/evercal/internal/models"
	"github.com/evercal/evercal/internal/repos"
	"github.com/jmoiron/sqlx"
)

const (
	eventFields    = `name, description, startsAt, endsAt, locationId, userId, createdAt, updatedAt`
	locationFields = `id, name, createdAt, updatedAt`
)

// EventRepo is an event repository that stores its data inside a SQLite database
type EventRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new event repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *EventRepo {
	return &EventRepo{
		db:     db,
		logger: logger,
	}
}

// resolveLocation turns a raw location name into the ID of the matching Location row inside the given transaction.
// An empty name resolves to nil ("no location"). A name without a matching row creates one; the insert goes through
// the unique name index, so a concurrent create of the same name still ends up with a single row.
func resolveLocation(tx *sqlx.Tx, rawName string) (*uint, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return nil, nil
	}
	var loc models.Location
	query := fmt.Sprintf("SELECT %s FROM Locations WHERE name = ?", locationFields)
	err := tx.Get(&loc, query, name)
	if err == nil {
		return &loc.ID, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	insert := `INSERT INTO Locations(name, createdAt, updatedAt) VALUES(?, datetime('now'), datetime('now'))
        ON CONFLICT(name) DO NOTHING`
	if _, err := tx.Exec(insert, name); err != nil {
		return nil, err
	}
	if err := tx.Get(&loc, query, name); err != nil {
		return nil, err
	}
	return &loc.ID, nil
}

// Create creates a new event. Location resolution and the event insert share one transaction, so a failing
// insert cannot leave an orphaned location behind
func (r *EventRepo) Create(ev *models.Event, locationName string) error {
	r.logger.WithField("name", ev.Name).Debug("Adding new event")
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "Create: Failed to start transaction")
	}
	locID, err := resolveLocation(tx, locationName)
	if err != nil {
		return repos.DoRollback(tx, err)
	}
	ev.LocationID = locID
	query := fmt.Sprintf("INSERT INTO Events(%s) VALUES(?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))", eventFields)
	res, err := tx.Exec(query, ev.Name, ev.Description, ev.StartsAt, ev.EndsAt, ev.LocationID, ev.UserID)
	if err != nil {
		return repos.DoRollback(tx, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		ev.ID = uint(id)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "Create: Failed to commit transaction")
	}
	// Setting the dates like this should be enough for now
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = time.Now()
	return r.attachLocation(ev)
}

// Update updates the given event, resolving the location name the same way Create does
func (r *EventRepo) Update(ev *models.Event, locationName string) error {
	r.logger.WithField(log.FldID, ev.ID).Debug("Updating event")
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "Update: Failed to start transaction")
	}
	locID, err := resolveLocation(tx, locationName)
	if err != nil {
		return repos.DoRollback(tx, err)
	}
	ev.LocationID = locID
	query := `UPDATE Events SET name = ?, description = ?, startsAt = ?, endsAt = ?, locationId = ?, userId = ?,
        updatedAt = datetime('now') WHERE id = ?`
	res, err := tx.Exec(query, ev.Name, ev.Description, ev.StartsAt, ev.EndsAt, ev.LocationID, ev.UserID, ev.ID)
	if err != nil {
		return repos.DoRollback(tx, err)
	}
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.DoRollback(tx, repos.ErrEntityNotExisting)
		}
	}
	if err != nil {
		return repos.DoRollback(tx, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "Update: Failed to commit transaction")
	}
	ev.UpdatedAt = time.Now()
	return r.attachLocation(ev)
}

// Delete removes the given event
func (r *EventRepo) Delete(id uint) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting event")
	query := "DELETE FROM Events WHERE id = ?"
	res, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// GetByID returns the event with the given ID, hydrated with its location
func (r *EventRepo) GetByID(id uint) (*models.Event, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading event")
	query := fmt.Sprintf("SELECT id, %s FROM Events WHERE id = ?", eventFields)
	var ev models.Event
	err := r.db.Get(&ev, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	if err := r.attachLocation(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// List returns all events ordered by start time, most recent first
func (r *EventRepo) List() ([]models.Event, error) {
	query := fmt.Sprintf("SELECT id, %s FROM Events ORDER BY startsAt DESC", eventFields)
	var ret []models.Event
	if err := r.db.Select(&ret, query); err != nil {
		return nil, err
	}
	if err := r.attachLocations(ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// ListByOwner returns the events owned by the given user, most recent first.
// A blank user ID yields an empty result instead of an error
func (r *EventRepo) ListByOwner(userID string) ([]models.Event, error) {
	if strings.TrimSpace(userID) == "" {
		return []models.Event{}, nil
	}
	r.logger.WithField(log.FldOwner, userID).Debug("Loading events by owner")
	query := fmt.Sprintf("SELECT id, %s FROM Events WHERE userId = ? ORDER BY startsAt DESC", eventFields)
	ret := []models.Event{}
	if err := r.db.Select(&ret, query, userID); err != nil {
		return nil, err
	}
	if err := r.attachLocations(ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// attachLocation loads the location referenced by the event's foreign key, if any
func (r *EventRepo) attachLocation(ev *models.Event) error {
	ev.Location = nil
	if ev.LocationID == nil {
		return nil
	}
	var loc models.Location
	query := fmt.Sprintf("SELECT %s FROM Locations WHERE id = ?", locationFields)
	err := r.db.Get(&loc, query, *ev.LocationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	ev.Location = &loc
	return nil
}

// attachLocations hydrates a whole result set with its locations using a single additional query
func (r *EventRepo) attachLocations(events []models.Event) error {
	needed := false
	for i := range events {
		if events[i].LocationID != nil {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}
	var all []models.Location
	query := fmt.Sprintf("SELECT %s FROM Locations", locationFields)
	if err := r.db.Select(&all, query); err != nil {
		return err
	}
	idx := make(map[uint]models.Location, len(all))
	for _, loc := range all {
		idx[loc.ID] = loc
	}
	for i := range events {
		if events[i].LocationID == nil {
			continue
		}
		if loc, ok := idx[*events[i].LocationID]; ok {
			attached := loc
			events[i].Location = &attached
		}
	}
	return nil
}
