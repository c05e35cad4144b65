package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Services groups the dependencies of the API surface.
type Services struct {
	Holds    HoldAPI
	Requests ReleaseRequestAPI
	Bookings BookingAPI
	Deals    DealFetcher
}

// NewRouter wires the full selling API.
func NewRouter(svcs Services, corsOrigins []string, logger *log.Logger) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", HealthHandler)

	r.Route("/holds", func(r chi.Router) {
		r.Post("/", HandleCreateHold(svcs.Holds))
		r.Get("/", HandleListHolds(svcs.Holds))
		r.Get("/{holdID}", HandleGetHold(svcs.Holds))
		r.Post("/{holdID}/extend", HandleExtendHold(svcs.Holds))
		r.Post("/{holdID}/release", HandleReleaseHold(svcs.Holds))
		r.Post("/{holdID}/release-request", HandleRequestRelease(svcs.Requests))
	})

	r.Route("/release-requests", func(r chi.Router) {
		r.Get("/", HandleListReleaseRequests(svcs.Requests))
		r.Post("/{requestID}/approve", HandleApproveRequest(svcs.Requests))
		r.Post("/{requestID}/deny", HandleDenyRequest(svcs.Requests))
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", HandleCreateBooking(svcs.Bookings))
		r.Get("/", HandleListBookings(svcs.Bookings))
		r.Get("/{bookingID}", HandleGetBooking(svcs.Bookings))
		r.Post("/{bookingID}/cancellation/quote", HandleQuoteCancellation(svcs.Bookings))
		r.Post("/{bookingID}/cancellation", HandleCancelBooking(svcs.Bookings))
	})

	r.Post("/deals/fetch-by-uc-ref", HandleFetchDeal(svcs.Deals, logger))

	return RequestLogger(CORS(corsOrigins, r), logger)
}
