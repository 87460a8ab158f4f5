package internal

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"github.com/evercal/evercal/internal/migrate"
	"github.com/evercal/evercal/internal/models"
	eventrepo "github.com/evercal/evercal/internal/repos/event/sqlite"
	userrepo "github.com/evercal/evercal/internal/repos/user/inmem"
)

func silentLogger() *logrus.Entry {
	l := logrus.New()
	l.Out = ioutil.Discard
	return logrus.NewEntry(l)
}

func testEventService(t *testing.T) (EventService, *userrepo.UserRepo, *sqlx.DB) {
	t.Helper()
	logger := silentLogger()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pool connection would get its own empty in-memory database
	db.SetMaxOpenConns(1)
	require.NoError(t, migrate.ExecuteMigrationsOnDb(db, logger))
	users := userrepo.New()
	return NewEventService(eventrepo.New(db, logger), users, logger), users, db
}

func testUser(t *testing.T, users *userrepo.UserRepo, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, FullName: name}
	require.NoError(t, u.SetPassword("secret"))
	require.NoError(t, users.Create(u))
	return u
}

func errorCodeOf(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	httpErr, ok := err.(*HTTPError)
	require.True(t, ok, "expected an HTTPError, got %T", err)
	return httpErr.ErrorCode()
}

func TestEventServiceCreate(t *testing.T) {
	svc, users, db := testEventService(t)
	defer db.Close()
	u := testUser(t, users, "alice")

	ev, err := svc.Create(context.Background(), &EventForm{
		Name:        "Planning session",
		Description: "Quarterly planning",
		StartTime:   "2019-06-01T10:00:00",
		EndTime:     "2019-06-01T12:00",
		Location:    "Room 5",
		UserID:      u.ID,
	})
	require.NoError(t, err)
	assert.NotZero(t, ev.ID)
	assert.Equal(t, "Planning session", ev.Name)
	assert.Equal(t, time.Date(2019, 6, 1, 10, 0, 0, 0, time.UTC), ev.StartsAt)
	assert.Equal(t, time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC), ev.EndsAt)
	require.NotNil(t, ev.Location)
	assert.Equal(t, "Room 5", ev.Location.Name)
	require.NotNil(t, ev.User)
	assert.Equal(t, "alice", ev.User.Name)
}

func TestEventServiceCreateInvalidDate(t *testing.T) {
	svc, _, db := testEventService(t)
	defer db.Close()

	_, err := svc.Create(context.Background(), &EventForm{
		Name:      "Broken",
		StartTime: "yesterday",
		EndTime:   "2019-06-01T12:00",
	})
	assert.Equal(t, ErrCodeInvalidDate, errorCodeOf(t, err))

	// A rejected form must not leave a row behind
	list, listErr := svc.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

func TestEventServiceCreateMissingName(t *testing.T) {
	svc, _, db := testEventService(t)
	defer db.Close()

	_, err := svc.Create(context.Background(), &EventForm{
		Name:      "   ",
		StartTime: "2019-06-01T10:00",
		EndTime:   "2019-06-01T12:00",
	})
	assert.Equal(t, ErrCodeRequiredFieldMissing, errorCodeOf(t, err))
}

func TestEventServiceCreateUnknownUser(t *testing.T) {
	svc, _, db := testEventService(t)
	defer db.Close()

	_, err := svc.Create(context.Background(), &EventForm{
		Name:      "Orphan",
		StartTime: "2019-06-01T10:00",
		EndTime:   "2019-06-01T12:00",
		UserID:    "no-such-user",
	})
	assert.Equal(t, ErrCodeUserNotFound, errorCodeOf(t, err))
}

func TestEventServiceCreateWithoutOwner(t *testing.T) {
	svc, _, db := testEventService(t)
	defer db.Close()

	// A blank owner is rejected the same way an unknown one is - and nothing is persisted
	_, err := svc.Create(context.Background(), &EventForm{
		Name:      "Ownerless",
		StartTime: "2019-06-01T10:00",
		EndTime:   "2019-06-01T12:00",
		UserID:    "   ",
	})
	assert.Equal(t, ErrCodeUserNotFound, errorCodeOf(t, err))

	list, listErr := svc.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

func TestEventServiceCreateEndBeforeStart(t *testing.T) {
	svc, users, db := testEventService(t)
	defer db.Close()
	u := testUser(t, users, "alice")

	// Reversed times are stored as submitted
	ev, err := svc.Create(context.Background(), &EventForm{
		Name:      "Backwards",
		StartTime: "2019-06-01T12:00",
		EndTime:   "2019-06-01T10:00",
		UserID:    u.ID,
	})
	require.NoError(t, err)
	assert.True(t, ev.EndsAt.Before(ev.StartsAt))
}

func TestEventServiceUpdate(t *testing.T) {
	svc, users, db := testEventService(t)
	defer db.Close()
	u := testUser(t, users, "alice")

	ev, err := svc.Create(context.Background(), &EventForm{
		Name:      "Before",
		StartTime: "2019-06-01T10:00",
		EndTime:   "2019-06-01T12:00",
		Location:  "Old Place",
		UserID:    u.ID,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), ev.ID, &EventForm{
		Name:      "After",
		StartTime: "2019-06-02T10:00",
		EndTime:   "2019-06-02T12:00",
		Location:  "New Place",
		UserID:    u.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, ev.ID, updated.ID)
	assert.Equal(t, "After", updated.Name)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "New Place", updated.Location.Name)
}

func TestEventServiceUpdateMissing(t *testing.T) {
	svc, users, db := testEventService(t)
	defer db.Close()
	u := testUser(t, users, "alice")

	_, err := svc.Update(context.Background(), 4711, &EventForm{
		Name:      "Ghost",
		StartTime: "2019-06-01T10:00",
		EndTime:   "2019-06-01T12:00",
		UserID:    u.ID,
	})
	assert.Equal(t, ErrCodeEventNotFound, errorCodeOf(t, err))
}

func TestEventServiceGetMissing(t *testing.T) {
	svc, _, db := testEventService(t)
	defer db.Close()

	_, err := svc.Get(context.Background(), 4711)
	assert.Equal(t, ErrCodeEventNotFound, errorCodeOf(t, err))
}

func TestEventServiceDeleteMissing(t *testing.T) {
	svc, _, db := testEventService(t)
	defer db.Close()

	// Deleting something that is already gone is fine
	assert.NoError(t, svc.Delete(context.Background(), 4711))
}

func TestEventServiceListByOwner(t *testing.T) {
	svc, users, db := testEventService(t)
	defer db.Close()
	alice := testUser(t, users, "alice")
	bob := testUser(t, users, "bob")

	_, err := svc.Create(context.Background(), &EventForm{
		Name:      "Alice's event",
		StartTime: "2019-06-01T10:00",
		EndTime:   "2019-06-01T12:00",
		UserID:    alice.ID,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &EventForm{
		Name:      "Bob's event",
		StartTime: "2019-06-01T10:00",
		EndTime:   "2019-06-01T12:00",
		UserID:    bob.ID,
	})
	require.NoError(t, err)

	list, err := svc.ListByOwner(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice's event", list[0].Name)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "alice", list[0].User.Name)
}
