package internal

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"github.com/evercal/evercal/internal/ctxhelper"
	"github.com/evercal/evercal/internal/migrate"
	"github.com/evercal/evercal/internal/models"
	"github.com/evercal/evercal/internal/repos"
	eventrepo "github.com/evercal/evercal/internal/repos/event/sqlite"
	userrepo "github.com/evercal/evercal/internal/repos/user/inmem"
	"github.com/go-kit/kit/endpoint"
)

// passThrough records whether the guarded endpoint was reached
func passThrough(called *bool) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		*called = true
		return basicResponse{true, nil}, nil
	}
}

func ctxWithUser(u *models.User) context.Context {
	ctx := context.WithValue(context.Background(), ctxhelper.KeyLogger, silentLogger())
	if u != nil {
		ctx = context.WithValue(ctx, ctxhelper.KeyUser, *u)
	}
	return ctx
}

func ownerTestSetup(t *testing.T) (endpoint.Middleware, repos.EventRepo, *userrepo.UserRepo, *sqlx.DB) {
	t.Helper()
	logger := silentLogger()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pool connection would get its own empty in-memory database
	db.SetMaxOpenConns(1)
	require.NoError(t, migrate.ExecuteMigrationsOnDb(db, logger))
	events := eventrepo.New(db, logger)
	users := userrepo.New()
	return MakeEnsureEventOwner(events, users), events, users, db
}

func ownedEvent(t *testing.T, events repos.EventRepo, userID string) *models.Event {
	t.Helper()
	ev := &models.Event{Name: "Guarded", UserID: userID}
	require.NoError(t, events.Create(ev, ""))
	return ev
}

func TestEnsureUserLoggedIn(t *testing.T) {
	called := false
	ep := EnsureUserLoggedIn(passThrough(&called))

	_, err := ep(ctxWithUser(nil), nil)
	assert.Equal(t, ErrCodeNotLoggedIn, errorCodeOf(t, err))
	assert.False(t, called)

	_, err = ep(ctxWithUser(&models.User{ID: "u1", Name: "alice"}), nil)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestEnsureEventOwnerAllowsOwner(t *testing.T) {
	guard, events, users, db := ownerTestSetup(t)
	defer db.Close()
	alice := testUser(t, users, "alice")
	ev := ownedEvent(t, events, alice.ID)

	called := false
	_, err := guard(passThrough(&called))(ctxWithUser(alice), eventUpdateRequest{ID: ev.ID})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestEnsureEventOwnerDeniesOthers(t *testing.T) {
	guard, events, users, db := ownerTestSetup(t)
	defer db.Close()
	alice := testUser(t, users, "alice")
	bob := testUser(t, users, "bob")
	ev := ownedEvent(t, events, alice.ID)

	called := false
	_, err := guard(passThrough(&called))(ctxWithUser(bob), eventUpdateRequest{ID: ev.ID})
	// The denial looks exactly like a missing event
	assert.Equal(t, ErrCodeEventNotFound, errorCodeOf(t, err))
	assert.False(t, called)
}

func TestEnsureEventOwnerIgnoresUsernameCase(t *testing.T) {
	guard, events, users, db := ownerTestSetup(t)
	defer db.Close()
	alice := testUser(t, users, "alice")
	ev := ownedEvent(t, events, alice.ID)

	shouting := *alice
	shouting.Name = "ALICE"
	called := false
	_, err := guard(passThrough(&called))(ctxWithUser(&shouting), eventUpdateRequest{ID: ev.ID})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestEnsureEventOwnerAllowsOwnerlessEvents(t *testing.T) {
	guard, events, users, db := ownerTestSetup(t)
	defer db.Close()
	bob := testUser(t, users, "bob")
	ev := ownedEvent(t, events, "")

	called := false
	_, err := guard(passThrough(&called))(ctxWithUser(bob), eventUpdateRequest{ID: ev.ID})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestEnsureEventOwnerVanishedOwner(t *testing.T) {
	guard, events, users, db := ownerTestSetup(t)
	defer db.Close()
	bob := testUser(t, users, "bob")
	// The owning user is not present in the identity store
	ev := ownedEvent(t, events, "gone-user")

	called := false
	_, err := guard(passThrough(&called))(ctxWithUser(bob), eventUpdateRequest{ID: ev.ID})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestEnsureEventOwnerMissingEvent(t *testing.T) {
	guard, _, users, db := ownerTestSetup(t)
	defer db.Close()
	bob := testUser(t, users, "bob")

	called := false
	_, err := guard(passThrough(&called))(ctxWithUser(bob), eventUpdateRequest{ID: 4711})
	assert.Equal(t, ErrCodeEventNotFound, errorCodeOf(t, err))
	assert.False(t, called)
}

func TestEnsureEventOwnerNoUser(t *testing.T) {
	guard, events, _, db := ownerTestSetup(t)
	defer db.Close()
	ev := ownedEvent(t, events, "user-1")

	called := false
	_, err := guard(passThrough(&called))(ctxWithUser(nil), eventUpdateRequest{ID: ev.ID})
	assert.Equal(t, ErrCodeEventNotFound, errorCodeOf(t, err))
	assert.False(t, called)
}

func TestEnsureEventOwnerPassesUntargetedRequests(t *testing.T) {
	guard, _, _, db := ownerTestSetup(t)
	defer db.Close()

	// Requests that do not address a single event are not the guard's business
	called := false
	_, err := guard(passThrough(&called))(ctxWithUser(nil), "something else")
	require.NoError(t, err)
	assert.True(t, called)
}
