package sqlite

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evercal/evercal/internal/migrate"
	"github.com/evercal/evercal/internal/models"
	"github.com/evercal/evercal/internal/repos"
)

func testRepo(t *testing.T) (*EventRepo, *sqlx.DB) {
	t.Helper()
	l := logrus.New()
	l.Out = ioutil.Discard
	logger := logrus.NewEntry(l)
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pool connection would get its own empty in-memory database
	db.SetMaxOpenConns(1)
	require.NoError(t, migrate.ExecuteMigrationsOnDb(db, logger))
	return New(db, logger), db
}

func testEvent(name string, userID string) *models.Event {
	return &models.Event{
		Name:        name,
		Description: "a description",
		StartsAt:    time.Date(2019, 6, 1, 10, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC),
		UserID:      userID,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	ev := testEvent("Team meeting", "user-1")
	require.NoError(t, repo.Create(ev, "Room A"))
	assert.NotZero(t, ev.ID)
	require.NotNil(t, ev.LocationID)
	require.NotNil(t, ev.Location)
	assert.Equal(t, "Room A", ev.Location.Name)

	loaded, err := repo.GetByID(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Team meeting", loaded.Name)
	assert.Equal(t, "a description", loaded.Description)
	assert.Equal(t, "user-1", loaded.UserID)
	assert.WithinDuration(t, ev.StartsAt, loaded.StartsAt, time.Second)
	assert.WithinDuration(t, ev.EndsAt, loaded.EndsAt, time.Second)
	require.NotNil(t, loaded.Location)
	assert.Equal(t, "Room A", loaded.Location.Name)
}

func TestCreateWithoutLocation(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	ev := testEvent("Standalone", "user-1")
	require.NoError(t, repo.Create(ev, ""))
	assert.Nil(t, ev.LocationID)
	assert.Nil(t, ev.Location)

	loaded, err := repo.GetByID(ev.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.LocationID)
	assert.Nil(t, loaded.Location)
}

func TestLocationResolution(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	// The same name (with whitespace noise) must resolve to a single location row
	first := testEvent("First", "user-1")
	require.NoError(t, repo.Create(first, "Main Hall"))
	second := testEvent("Second", "user-2")
	require.NoError(t, repo.Create(second, "  Main Hall  "))

	require.NotNil(t, first.LocationID)
	require.NotNil(t, second.LocationID)
	assert.Equal(t, *first.LocationID, *second.LocationID)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM Locations"))
	assert.Equal(t, 1, count)
}

func TestGetMissing(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	_, err := repo.GetByID(4711)
	assert.Equal(t, repos.ErrEntityNotExisting, err)
}

func TestUpdate(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	ev := testEvent("Before", "user-1")
	require.NoError(t, repo.Create(ev, "Old Place"))

	ev.Name = "After"
	ev.Description = "changed"
	require.NoError(t, repo.Update(ev, "New Place"))
	require.NotNil(t, ev.Location)
	assert.Equal(t, "New Place", ev.Location.Name)

	loaded, err := repo.GetByID(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", loaded.Name)
	assert.Equal(t, "changed", loaded.Description)
	require.NotNil(t, loaded.Location)
	assert.Equal(t, "New Place", loaded.Location.Name)
}

func TestUpdateMissing(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	ev := testEvent("Ghost", "user-1")
	ev.ID = 4711
	assert.Equal(t, repos.ErrEntityNotExisting, repo.Update(ev, ""))
}

func TestDelete(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	ev := testEvent("Short-lived", "user-1")
	require.NoError(t, repo.Create(ev, ""))
	require.NoError(t, repo.Delete(ev.ID))

	_, err := repo.GetByID(ev.ID)
	assert.Equal(t, repos.ErrEntityNotExisting, err)
	assert.Equal(t, repos.ErrEntityNotExisting, repo.Delete(ev.ID))
}

func TestListOrdering(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	early := testEvent("Early", "user-1")
	early.StartsAt = time.Date(2019, 6, 1, 8, 0, 0, 0, time.UTC)
	late := testEvent("Late", "user-1")
	late.StartsAt = time.Date(2019, 6, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(early, ""))
	require.NoError(t, repo.Create(late, ""))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Late", list[0].Name)
	assert.Equal(t, "Early", list[1].Name)
}

func TestListByOwner(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	require.NoError(t, repo.Create(testEvent("Mine", "user-1"), "Somewhere"))
	require.NoError(t, repo.Create(testEvent("Theirs", "user-2"), ""))

	list, err := repo.ListByOwner("user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine", list[0].Name)
	require.NotNil(t, list[0].Location)
	assert.Equal(t, "Somewhere", list[0].Location.Name)

	// A blank owner never matches anything
	list, err = repo.ListByOwner("  ")
	require.NoError(t, err)
	assert.Empty(t, list)
}
