package internal

import (
	"time"

	"github.com/evercal/evercal/internal/models"
)

// Time layout for the calendar widget - ISO-8601 without a zone, the way FullCalendar expects it
const calendarTimeLayout = "2006-01-02T15:04:05"

// CalendarEvent is the shape the calendar widget expects for a single event
type CalendarEvent struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	ResourceID  *uint  `json:"resourceId,omitempty"`
	Description string `json:"description"`
}

// CalendarResource is the shape the calendar widget expects for a schedulable resource (a location)
type CalendarResource struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// CalendarData bundles events and resources into one payload for the calendar widget
type CalendarData struct {
	Events    []CalendarEvent    `json:"events"`
	Resources []CalendarResource `json:"resources"`
}

func formatCalendarTime(t time.Time) string {
	return t.Format(calendarTimeLayout)
}

// RepackEvents converts a list of events into the calendar widget's event format.
// Events without a location simply have no resource attached
func RepackEvents(events []models.Event) []CalendarEvent {
	ret := make([]CalendarEvent, 0, len(events))
	for _, ev := range events {
		ret = append(ret, CalendarEvent{
			ID:          ev.ID,
			Title:       ev.Name,
			Start:       formatCalendarTime(ev.StartsAt),
			End:         formatCalendarTime(ev.EndsAt),
			ResourceID:  ev.LocationID,
			Description: ev.Description,
		})
	}
	return ret
}

// RepackLocations converts a list of locations into the calendar widget's resource format
func RepackLocations(locations []models.Location) []CalendarResource {
	ret := make([]CalendarResource, 0, len(locations))
	for _, loc := range locations {
		ret = append(ret, CalendarResource{
			ID:    loc.ID,
			Title: loc.Name,
		})
	}
	return ret
}
