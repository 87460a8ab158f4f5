package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evercal/evercal/internal/models"
)

func TestRepackEvents(t *testing.T) {
	locID := uint(7)
	events := []models.Event{
		{
			ID:          1,
			Name:        "With location",
			Description: "first",
			StartsAt:    time.Date(2019, 6, 1, 10, 0, 0, 0, time.UTC),
			EndsAt:      time.Date(2019, 6, 1, 12, 30, 0, 0, time.UTC),
			LocationID:  &locID,
		},
		{
			ID:          2,
			Name:        "Without location",
			Description: "second",
			StartsAt:    time.Date(2019, 6, 2, 9, 0, 0, 0, time.UTC),
			EndsAt:      time.Date(2019, 6, 2, 10, 0, 0, 0, time.UTC),
		},
	}

	repacked := RepackEvents(events)
	require.Len(t, repacked, 2)

	assert.Equal(t, uint(1), repacked[0].ID)
	assert.Equal(t, "With location", repacked[0].Title)
	assert.Equal(t, "2019-06-01T10:00:00", repacked[0].Start)
	assert.Equal(t, "2019-06-01T12:30:00", repacked[0].End)
	require.NotNil(t, repacked[0].ResourceID)
	assert.Equal(t, uint(7), *repacked[0].ResourceID)
	assert.Equal(t, "first", repacked[0].Description)

	// No location means no resource
	assert.Nil(t, repacked[1].ResourceID)
}

func TestRepackEventsEmpty(t *testing.T) {
	assert.Empty(t, RepackEvents(nil))
	assert.NotNil(t, RepackEvents(nil))
}

func TestRepackLocations(t *testing.T) {
	locations := []models.Location{
		{ID: 1, Name: "Main Hall"},
		{ID: 2, Name: "Annex"},
	}
	repacked := RepackLocations(locations)
	require.Len(t, repacked, 2)
	assert.Equal(t, uint(1), repacked[0].ID)
	assert.Equal(t, "Main Hall", repacked[0].Title)
	assert.Equal(t, "Annex", repacked[1].Title)
}
