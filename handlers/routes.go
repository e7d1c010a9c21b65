package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aircnc/aircnc-server/pkg/middleware"
)

// Access is the gate a route runs behind.
type Access int

const (
	// Public routes need no token.
	Public Access = iota
	// Authenticated routes need a valid token.
	Authenticated
	// OwnerPath routes need a token whose email matches the :email path parameter.
	OwnerPath
	// OwnerQuery routes apply the OwnerPath rule to ?email= when it is present
	// and are public otherwise.
	OwnerQuery
)

func (a Access) String() string {
	switch a {
	case Authenticated:
		return "authenticated"
	case OwnerPath:
		return "owner(path)"
	case OwnerQuery:
		return "owner(query)"
	}
	return "public"
}

// Route is one entry of the route table.
type Route struct {
	Method string
	Path   string
	Access Access
	Handle gin.HandlerFunc
}

// Routes is the route table of the API. Every route names its access policy here.
func (h *Handler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/", Public, Banner},

		{http.MethodPut, "/users/:email", OwnerPath, h.PutUser},
		{http.MethodGet, "/users/:email", OwnerPath, h.GetUser},

		{http.MethodGet, "/rooms", Public, h.ListRooms},
		{http.MethodGet, "/rooms/:email", OwnerPath, h.ListHostRooms},
		{http.MethodGet, "/room/:id", Public, h.GetRoom},
		{http.MethodPost, "/rooms", Authenticated, h.CreateRoom},
		{http.MethodPost, "/rooms/images", Authenticated, h.UploadRoomImage},
		{http.MethodPatch, "/rooms/status/:id", Authenticated, h.SetRoomStatus},
		{http.MethodDelete, "/rooms/:id", Authenticated, h.DeleteRoom},

		{http.MethodGet, "/bookings", OwnerQuery, h.ListGuestBookings},
		{http.MethodGet, "/manageBookings", OwnerQuery, h.ListHostBookings},
		{http.MethodPost, "/bookings", Authenticated, h.CreateBooking},
		{http.MethodDelete, "/bookings/:id", Authenticated, h.DeleteBooking},

		{http.MethodPost, "/jwt", Public, h.IssueToken},
		{http.MethodPost, "/logout", Authenticated, h.Logout},
		{http.MethodPost, "/create-payment-intent", Authenticated, h.CreatePaymentIntent},
	}
}

// Register mounts every route behind its gate. gate verifies the bearer token.
// after runs between the gate and the handler, so it sees verified claims.
func (h *Handler) Register(r gin.IRoutes, gate gin.HandlerFunc, after ...gin.HandlerFunc) {
	pathEmail := middleware.PathEmail("email")
	queryEmail := middleware.QueryEmail("email")
	hasQueryEmail := middleware.Present(queryEmail)

	for _, rt := range h.Routes() {
		var chain []gin.HandlerFunc
		switch rt.Access {
		case Authenticated:
			chain = append(chain, gate)
		case OwnerPath:
			chain = append(chain, gate, middleware.RequireOwner(pathEmail))
		case OwnerQuery:
			chain = append(chain,
				middleware.When(hasQueryEmail, gate),
				middleware.When(hasQueryEmail, middleware.RequireOwner(queryEmail)),
			)
		}
		chain = append(chain, after...)
		chain = append(chain, rt.Handle)
		r.Handle(rt.Method, rt.Path, chain...)
	}
}
