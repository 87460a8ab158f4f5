package internal

import (
	"net/http"
	"strings"

	"github.com/evercal/evercal/internal/ctxhelper"
	"github.com/evercal/evercal/internal/repos"
	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"
)

// EnsureUserLoggedIn is a middleware that checks if there is a valid user session for the current call
func EnsureUserLoggedIn(next endpoint.Endpoint) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		user := ctxhelper.User(ctx)
		if user == nil {
			// Nobody logged in
			return nil, MakeError(
				http.StatusForbidden,
				ErrCodeNotLoggedIn,
				"This function needs a logged-in user",
			)
		}
		return next(ctx, request)
	}
}

// eventIDFromRequest extracts the target event ID from the request types the owner check applies to
func eventIDFromRequest(request interface{}) (uint, bool) {
	switch req := request.(type) {
	case eventUpdateRequest:
		return req.ID, true
	case uint:
		return req, true
	}
	return 0, false
}

// MakeEnsureEventOwner creates a middleware that only lets the owner of the targeted event through.
// Denials answer like a missing event would, so the check does not reveal which event IDs exist.
// Event creation always records an owner; rows without one can only predate that rule, and those
// legacy events stay open to every logged-in user
func MakeEnsureEventOwner(events repos.EventRepo, users repos.UserRepo) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			id, ok := eventIDFromRequest(request)
			if !ok {
				// Request does not target a single event - nothing to check here
				return next(ctx, request)
			}
			denial := MakeError(
				http.StatusNotFound,
				ErrCodeEventNotFound,
				"Event does not exist",
			)
			user := ctxhelper.User(ctx)
			if user == nil {
				return nil, denial
			}
			ev, err := events.GetByID(id)
			if err != nil {
				if err == repos.ErrEntityNotExisting {
					return nil, denial
				}
				ctxhelper.Logger(ctx).WithError(err).Error("Failed to load event for ownership check")
				return nil, MakeError(
					http.StatusInternalServerError,
					ErrCodeRepoError,
					"Error while checking event ownership",
				)
			}
			if ev.UserID == "" {
				// Legacy rows without a recorded owner belong to everyone
				return next(ctx, request)
			}
			owner, err := users.GetByID(ev.UserID)
			if err != nil {
				ctxhelper.Logger(ctx).WithError(err).Error("Failed to load event owner for ownership check")
				return nil, MakeError(
					http.StatusInternalServerError,
					ErrCodeRepoError,
					"Error while checking event ownership",
				)
			}
			if owner == nil {
				// The owning user no longer exists - the event falls back to being ownerless
				return next(ctx, request)
			}
			if !strings.EqualFold(owner.Name, user.Name) {
				return nil, denial
			}
			return next(ctx, request)
		}
	}
}
