// Package sqlite provides a location repository that stores its data inside a SQLite database
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/evercal/evercal/internal/log"
	"github.com/evercal/evercal/internal/models"
	"github.com/evercal/evercal/internal/repos"
	"github.com/jmoiron/sqlx"
)

const (
	locationFields = `name, createdAt, updatedAt`
)

// LocationRepo is a location repository that stores its data inside a SQLite database
type LocationRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new location repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *LocationRepo {
	return &LocationRepo{
		db:     db,
		logger: logger,
	}
}

// isUniqueViolation reports whether the error is the unique name index rejecting a write
func isUniqueViolation(err error) bool {
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// Create creates a new location - the name is stored as-is
func (r *LocationRepo) Create(loc *models.Location) error {
	r.logger.WithField("name", loc.Name).Debug("Adding new location")
	query := fmt.Sprintf("INSERT INTO Locations(%s) VALUES(?, datetime('now'), datetime('now'))", locationFields)
	res, err := r.db.Exec(query, loc.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return repos.ErrEntityAlreadyExisting
		}
		return err
	}
	// Setting the dates like this should be enough for now
	loc.CreatedAt = time.Now()
	loc.UpdatedAt = time.Now()
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		loc.ID = uint(id)
	}
	return err
}

// Update overwrites an existing location's name - all other fields stay untouched
func (r *LocationRepo) Update(loc *models.Location) error {
	r.logger.WithField(log.FldID, loc.ID).Debug("Updating location")
	query := "UPDATE Locations SET name = ?, updatedAt = datetime('now') WHERE id = ?"
	res, err := r.db.Exec(query, loc.Name, loc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repos.ErrEntityAlreadyExisting
		}
		return err
	}
	loc.UpdatedAt = time.Now()
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// Delete removes the given location. Every event referencing it is detached (its foreign key set to NULL)
// inside the same transaction, so no event is ever left pointing at a deleted location. Event rows themselves
// are never deleted here
func (r *LocationRepo) Delete(id uint) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting location")
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "Delete: Failed to start transaction")
	}
	if _, err := tx.Exec("UPDATE Events SET locationId = NULL, updatedAt = datetime('now') WHERE locationId = ?", id); err != nil {
		return repos.DoRollback(tx, err)
	}
	res, err := tx.Exec("DELETE FROM Locations WHERE id = ?", id)
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
	return tx.Commit()
}

// GetByID returns the location with the given ID
func (r *LocationRepo) GetByID(id uint) (*models.Location, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading location")
	query := fmt.Sprintf("SELECT id, %s FROM Locations WHERE id = ?", locationFields)
	var loc models.Location
	err := r.db.Get(&loc, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &loc, nil
}

// List returns all locations ordered by name
func (r *LocationRepo) List() ([]models.Location, error) {
	query := fmt.Sprintf("SELECT id, %s FROM Locations ORDER BY name ASC", locationFields)
	ret := []models.Location{}
	if err := r.db.Select(&ret, query); err != nil {
		return nil, err
	}
	return ret, nil
}
