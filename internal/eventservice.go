package internal

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/evercal/evercal/internal/log"
	"github.com/evercal/evercal/internal/models"
	"github.com/evercal/evercal/internal/repos"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// Time layouts accepted for the start and end fields of an event form. HTML datetime-local inputs
// send the short form, API clients usually the long one
const (
	formTimeLayout      = "2006-01-02T15:04:05"
	formTimeShortLayout = "2006-01-02T15:04"
)

// EventForm carries the raw field values of a submitted event form. Times and the location arrive
// as plain strings and are resolved by the service
type EventForm struct {
	Name        string
	Description string
	StartTime   string
	EndTime     string
	Location    string
	UserID      string
}

// EventService provides service functions for working with events
type EventService interface {
	List(ctx context.Context) ([]models.Event, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Event, error)
	Get(ctx context.Context, id uint) (*models.Event, error)
	Create(ctx context.Context, form *EventForm) (*models.Event, error)
	Update(ctx context.Context, id uint, form *EventForm) (*models.Event, error)
	Delete(ctx context.Context, id uint) error
}

// -- EventService implementation --------------------------------------------------------------------------------------

// EventService implementation
type eventService struct {
	repo   repos.EventRepo
	users  repos.UserRepo
	logger *logrus.Entry
}

// NewEventService creates a new event service instance
func NewEventService(repo repos.EventRepo, users repos.UserRepo, logger *logrus.Entry) EventService {
	return &eventService{
		repo:   repo,
		users:  users,
		logger: logger,
	}
}

// parseFormTime parses one of the form's time strings, trying the long layout first
func parseFormTime(field string, value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	t, err := time.Parse(formTimeLayout, raw)
	if err != nil {
		t, err = time.Parse(formTimeShortLayout, raw)
	}
	if err != nil {
		return time.Time{}, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeInvalidDate,
			fmt.Sprintf("'%s' is not a valid date value", raw),
			map[string]string{
				"field": field,
			},
		)
	}
	return t, nil
}

// eventFromForm validates the given form and builds an event from it. The location stays a raw
// name here - it is resolved by the repository when the event is written
func (s *eventService) eventFromForm(form *EventForm) (*models.Event, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeRequiredFieldMissing,
			"Event name missing",
			map[string]string{
				"field": "name",
			},
		)
	}
	start, err := parseFormTime("startTime", form.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseFormTime("endTime", form.EndTime)
	if err != nil {
		return nil, err
	}
	// An end before the start is stored as submitted - the calendar UI simply renders such
	// events without a duration
	ev := models.Event{
		Name:        name,
		Description: form.Description,
		StartsAt:    start,
		EndsAt:      end,
		UserID:      strings.TrimSpace(form.UserID),
	}
	// Every event needs an owner - a blank ID cannot resolve to anyone
	if ev.UserID == "" {
		return nil, MakeError(
			http.StatusNotFound,
			ErrCodeUserNotFound,
			"User not found",
		)
	}
	u, err := s.users.GetByID(ev.UserID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load user data for event owner")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while checking the event owner",
		)
	}
	if u == nil {
		return nil, MakeError(
			http.StatusNotFound,
			ErrCodeUserNotFound,
			"User not found",
		)
	}
	return &ev, nil
}

// hydrateOwner attaches the owning user to the given event - events without an owner stay untouched
func (s *eventService) hydrateOwner(ev *models.Event) {
	ev.User = nil
	if ev.UserID == "" {
		return
	}
	u, err := s.users.GetByID(ev.UserID)
	if err != nil {
		// Hydration is best-effort - the event itself is still valid without its owner attached
		s.logger.WithError(err).WithField(log.FldOwner, ev.UserID).Warn("Failed to hydrate event owner")
		return
	}
	ev.User = u
}

// List returns all events, most recent first
func (s *eventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.repo.List()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list events")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while listing events",
		)
	}
	for i := range events {
		s.hydrateOwner(&events[i])
	}
	return events, nil
}

// ListByOwner returns the events owned by the given user, most recent first
func (s *eventService) ListByOwner(ctx context.Context, userID string) ([]models.Event, error) {
	events, err := s.repo.ListByOwner(userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list events by owner")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while listing events",
		)
	}
	for i := range events {
		s.hydrateOwner(&events[i])
	}
	return events, nil
}

// Get returns the event with the given ID
func (s *eventService) Get(ctx context.Context, id uint) (*models.Event, error) {
	ev, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				fmt.Sprintf("Event #%d does not exist", id),
			)
		}
		s.logger.WithError(err).Error("Failed to load event")
		return nil, MakeError(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving event #%d", id),
		)
	}
	s.hydrateOwner(ev)
	return ev, nil
}

// Create validates the given form and creates a new event from it
func (s *eventService) Create(ctx context.Context, form *EventForm) (*models.Event, error) {
	ev, err := s.eventFromForm(form)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ev, form.Location); err != nil {
		s.logger.WithError(err).Error("Failed to create event")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while creating the event",
		)
	}
	s.hydrateOwner(ev)
	return ev, nil
}

// Update overwrites the event with the given ID with the validated form data
func (s *eventService) Update(ctx context.Context, id uint, form *EventForm) (*models.Event, error) {
	ev, err := s.eventFromForm(form)
	if err != nil {
		return nil, err
	}
	ev.ID = id
	if err := s.repo.Update(ev, form.Location); err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(
				http.StatusNotFound,
				ErrCodeEventNotFound,
				fmt.Sprintf("Event #%d does not exist", id),
			)
		}
		s.logger.WithError(err).Error("Failed to update event")
		return nil, MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while updating event #%d", id),
		)
	}
	s.hydrateOwner(ev)
	return ev, nil
}

// Delete removes an existing event from the repository. Deleting an event that is already gone
// is not an error
func (s *eventService) Delete(ctx context.Context, id uint) error {
	err := s.repo.Delete(id)
	if err != nil && err != repos.ErrEntityNotExisting {
		s.logger.WithError(err).Error("Failed to delete event")
		return MakeError(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while deleting event #%d", id),
		)
	}
	return nil
}
