package internal

import (
	"fmt"

	"github.com/evercal/evercal/internal/ctxhelper"
	"github.com/evercal/evercal/internal/models"
	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"
)

// EventEndpoints is a collection of endpoints for working with the event service
type EventEndpoints struct {
	List     endpoint.Endpoint
	ListMine endpoint.Endpoint
	Get      endpoint.Endpoint
	Create   endpoint.Endpoint
	Update   endpoint.Endpoint
	Delete   endpoint.Endpoint
}

// LocationEndpoints is a collection of endpoints for working with the location service
type LocationEndpoints struct {
	List   endpoint.Endpoint
	Get    endpoint.Endpoint
	Create endpoint.Endpoint
	Update endpoint.Endpoint
	Delete endpoint.Endpoint
}

// SessionEndpoints is a collection of endpoints for working with the session service
type SessionEndpoints struct {
	Login  endpoint.Endpoint
	Logout endpoint.Endpoint
	WhoAmI endpoint.Endpoint
}

// CalendarEndpoints is a collection of endpoints that feed the calendar widget
type CalendarEndpoints struct {
	GetData endpoint.Endpoint
}

// The base for all responses which always contains an "ok" property to show if the call was successful and a
// data element containing the result of the request
type basicResponse struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data,omitempty"`
}

// A request made when logging in
type loginRequest struct {
	User string `json:"user"`
	Pass string `json:"password"`
}

// A request for updating a single event
type eventUpdateRequest struct {
	ID   uint
	Form EventForm
}

// A request for the calendar widget's data
type calendarRequest struct {
	// Mine restricts the returned events to the ones owned by the calling user
	Mine bool
}

// -- Events -----------------------------------------------------------------------------------------------------------

// MakeEventEndpoints builds the endpoints needed to communicate with the Event Service. The owner middleware
// guards the endpoints that modify a single existing event
func MakeEventEndpoints(s EventService, owner endpoint.Middleware) EventEndpoints {
	return EventEndpoints{
		List:     EnsureUserLoggedIn(makeListEventsEndpoint(s)),
		ListMine: EnsureUserLoggedIn(makeListMyEventsEndpoint(s)),
		Get:      EnsureUserLoggedIn(makeGetEventEndpoint(s)),
		Create:   EnsureUserLoggedIn(makeCreateEventEndpoint(s)),
		Update:   EnsureUserLoggedIn(owner(makeUpdateEventEndpoint(s))),
		Delete:   EnsureUserLoggedIn(makeDeleteEventEndpoint(s)),
	}
}

func makeListEventsEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		list, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, list}, nil
	}
}

func makeListMyEventsEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		user := ctxhelper.User(ctx)
		list, err := s.ListByOwner(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, list}, nil
	}
}

func makeGetEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		ev, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeCreateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		form, ok := request.(EventForm)
		if !ok {
			return nil, fmt.Errorf("illegal event form parameter")
		}
		ev, err := s.Create(ctx, &form)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeUpdateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventUpdateRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event update parameter")
		}
		ev, err := s.Update(ctx, req.ID, &req.Form)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeDeleteEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		err := s.Delete(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

// -- Locations --------------------------------------------------------------------------------------------------------

// MakeLocationEndpoints builds the endpoints needed to communicate with the Location Service
func MakeLocationEndpoints(s LocationService) LocationEndpoints {
	return LocationEndpoints{
		List:   EnsureUserLoggedIn(makeListLocationsEndpoint(s)),
		Get:    EnsureUserLoggedIn(makeGetLocationEndpoint(s)),
		Create: EnsureUserLoggedIn(makeCreateLocationEndpoint(s)),
		Update: EnsureUserLoggedIn(makeUpdateLocationEndpoint(s)),
		Delete: EnsureUserLoggedIn(makeDeleteLocationEndpoint(s)),
	}
}

func makeListLocationsEndpoint(s LocationService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		list, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, list}, nil
	}
}

func makeGetLocationEndpoint(s LocationService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal location ID")
		}
		loc, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, loc}, nil
	}
}

func makeCreateLocationEndpoint(s LocationService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		loc, ok := request.(models.Location)
		if !ok {
			return nil, fmt.Errorf("illegal location parameter")
		}
		created, err := s.Create(ctx, &loc)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, created}, nil
	}
}

func makeUpdateLocationEndpoint(s LocationService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		loc, ok := request.(models.Location)
		if !ok {
			return nil, fmt.Errorf("illegal location parameter")
		}
		err := s.Update(ctx, &loc)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

func makeDeleteLocationEndpoint(s LocationService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal location ID")
		}
		err := s.Delete(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

// -- Calendar ---------------------------------------------------------------------------------------------------------

// MakeCalendarEndpoints builds the endpoints that feed the calendar widget
func MakeCalendarEndpoints(es EventService, ls LocationService) CalendarEndpoints {
	return CalendarEndpoints{
		GetData: EnsureUserLoggedIn(makeCalendarDataEndpoint(es, ls)),
	}
}

func makeCalendarDataEndpoint(es EventService, ls LocationService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(calendarRequest)
		if !ok {
			return nil, fmt.Errorf("illegal calendar request")
		}
		var events []models.Event
		var err error
		if req.Mine {
			user := ctxhelper.User(ctx)
			events, err = es.ListByOwner(ctx, user.ID)
		} else {
			events, err = es.List(ctx)
		}
		if err != nil {
			return nil, err
		}
		locations, err := ls.List(ctx)
		if err != nil {
			return nil, err
		}
		data := CalendarData{
			Events:    RepackEvents(events),
			Resources: RepackLocations(locations),
		}
		return basicResponse{true, data}, nil
	}
}

// -- Sessions ---------------------------------------------------------------------------------------------------------

// MakeSessionEndpoints builds the endpoints needed to communicate with the Session Service
func MakeSessionEndpoints(s SessionService) SessionEndpoints {
	return SessionEndpoints{
		Login:  makeLoginEndpoint(s),
		Logout: makeLogoutEndpoint(s),
		WhoAmI: makeWhoAmIEndpoint(s),
	}
}

func makeLoginEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		se, ok := request.(loginRequest)
		if !ok {
			return nil, fmt.Errorf("illegal login request")
		}
		si, err := s.Login(ctx, se.User, se.Pass)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}

func makeLogoutEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal session token")
		}
		err := s.Logout(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

func makeWhoAmIEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(string)
		if !ok {
			return nil, fmt.Errorf("illegal session token")
		}
		si, err := s.WhoAmI(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}
