package internal

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/evercal/evercal/internal/models"
	"github.com/evercal/evercal/internal/repos"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// LocationService provides service functions for working with event locations
type LocationService interface {
	List(ctx context.Context) ([]models.Location, error)
	Get(ctx context.Context, id uint) (*models.Location, error)
	Create(ctx context.Context, loc *models.Location) (*models.Location, error)
	Update(ctx context.Context, loc *models.Location) error
	Delete(ctx context.Context, id uint) error
}

// -- LocationService implementation -----------------------------------------------------------------------------------

type locationService struct {
	repo   repos.LocationRepo
	logger *logrus.Entry
	// coll orders location names for human eyes - SQLite's BINARY collation would sort "berlin" after "Z"
	coll *collate.Collator
}

// NewLocationService creates a new location service instance
func NewLocationService(repo repos.LocationRepo, logger *logrus.Entry) LocationService {
	return &locationService{
		repo:   repo,
		logger: logger,
		coll:   collate.New(language.Und, collate.Loose),
	}
}

// List returns all locations ordered by name
func (s *locationService) List(ctx context.Context) ([]models.Location, error) {
	locations, err := s.repo.List()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list locations")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while listing locations",
		)
	}
	sort.SliceStable(locations, func(i, j int) bool {
		return s.coll.CompareString(locations[i].Name, locations[j].Name) < 0
	})
	return locations, nil
}

// Get returns the location with the given ID
func (s *locationService) Get(ctx context.Context, id uint) (*models.Location, error) {
	loc, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeLocationNotFound,
				fmt.Sprintf("Location #%d does not exist", id),
			)
		}
		s.logger.WithError(err).Error("Failed to load location")
		return nil, MakeError(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving location #%d", id),
		)
	}
	return loc, nil
}

// Create creates a new location
func (s *locationService) Create(ctx context.Context, loc *models.Location) (*models.Location, error) {
	loc.Name = strings.TrimSpace(loc.Name)
	if loc.Name == "" {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeRequiredFieldMissing,
			"Location name missing",
			map[string]string{
				"field": "name",
			},
		)
	}
	if err := s.repo.Create(loc); err != nil {
		if err == repos.ErrEntityAlreadyExisting {
			return nil, MakeError(
				http.StatusConflict,
				ErrCodeLocationExists,
				fmt.Sprintf("A location named '%s' already exists", loc.Name),
			)
		}
		s.logger.WithError(err).Error("Failed to create location")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while creating the location",
		)
	}
	return loc, nil
}

// Update renames an existing location. Updating a location that does not exist is a no-op
func (s *locationService) Update(ctx context.Context, loc *models.Location) error {
	loc.Name = strings.TrimSpace(loc.Name)
	if loc.Name == "" {
		return MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeRequiredFieldMissing,
			"Location name missing",
			map[string]string{
				"field": "name",
			},
		)
	}
	err := s.repo.Update(loc)
	if err != nil && err != repos.ErrEntityNotExisting {
		if err == repos.ErrEntityAlreadyExisting {
			return MakeError(
				http.StatusConflict,
				ErrCodeLocationExists,
				fmt.Sprintf("A location named '%s' already exists", loc.Name),
			)
		}
		s.logger.WithError(err).Error("Failed to update location")
		return MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while updating location #%d", loc.ID),
		)
	}
	return nil
}

// Delete removes the location with the given ID. Events referencing it lose the reference but stay
// intact. Deleting a location that is already gone is not an error
func (s *locationService) Delete(ctx context.Context, id uint) error {
	err := s.repo.Delete(id)
	if err != nil && err != repos.ErrEntityNotExisting {
		s.logger.WithError(err).Error("Failed to delete location")
		return MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while deleting location #%d", id),
		)
	}
	return nil
}
