package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/areebimran2/CS-CAS/internal/app"
	"github.com/areebimran2/CS-CAS/internal/cancellation"
	"github.com/areebimran2/CS-CAS/internal/domain"
)

// BookingAPI is the minimal interface the booking endpoints need.
type BookingAPI interface {
	CreateBooking(ctx context.Context, in app.CreateBookingInput) (domain.Booking, error)
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
	ListBookings(ctx context.Context, filter app.BookingFilter) ([]domain.Booking, error)
	QuoteCancellation(ctx context.Context, bookingID, policyID string) (cancellation.QuoteResult, error)
	CancelBooking(ctx context.Context, in app.CancelBookingInput) (domain.Booking, error)
}

type bookingResponse struct {
	ID           string               `json:"id"`
	SailingID    string               `json:"sailing_id"`
	CabinID      string               `json:"cabin_id"`
	UserID       string               `json:"user_id"`
	UCRef        string               `json:"uc_ref"`
	Snapshot     domain.Snapshot      `json:"snapshot"`
	Status       string               `json:"status"`
	Cancellation *cancellationDetails `json:"cancellation,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

type cancellationDetails struct {
	PolicyID    string          `json:"policy_id"`
	Charge      decimal.Decimal `json:"charge"`
	Reason      string          `json:"reason,omitempty"`
	CancelledAt time.Time       `json:"cancelled_at"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:        b.ID,
		SailingID: b.SailingID,
		CabinID:   b.CabinID,
		UserID:    b.UserID,
		UCRef:     b.UCRef,
		Snapshot:  b.Snapshot,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	}
	if b.Cancellation != nil {
		resp.Cancellation = &cancellationDetails{
			PolicyID:    b.Cancellation.PolicyID,
			Charge:      b.Cancellation.Charge,
			Reason:      b.Cancellation.Reason,
			CancelledAt: b.Cancellation.CancelledAt,
		}
	}
	return resp
}

// createBookingRequest is the tagged union for the two booking modes:
// mode=from_hold uses hold_id, mode=direct uses sailing_id/cabin_id/uc_ref.
type createBookingRequest struct {
	Mode string `json:"mode"`

	HoldID string `json:"hold_id,omitempty"`

	SailingID string `json:"sailing_id,omitempty"`
	CabinID   string `json:"cabin_id,omitempty"`
	UCRef     string `json:"uc_ref,omitempty"`

	OccupancyMode     string `json:"occupancy_mode"`
	AcknowledgePolicy bool   `json:"acknowledge_policy"`
}

func (r createBookingRequest) validate() (string, string) {
	switch app.BookingMode(r.Mode) {
	case app.BookingModeFromHold:
		if r.HoldID == "" {
			return codeMissingRequiredField, "hold_id is required for mode from_hold"
		}
	case app.BookingModeDirect:
		if r.SailingID == "" || r.CabinID == "" || r.UCRef == "" {
			return codeMissingRequiredField, "sailing_id, cabin_id and uc_ref are required for mode direct"
		}
	default:
		return codeInvalidMode, "mode must be from_hold or direct"
	}
	return "", ""
}

// HandleCreateBooking confirms a sale, either converting a hold or booking
// a cabin directly.
func HandleCreateBooking(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeMissingUser, "X-User-ID header required")
			return
		}

		var req createBookingRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if code, msg := req.validate(); code != "" {
			writeError(w, http.StatusBadRequest, code, msg)
			return
		}

		booking, err := svc.CreateBooking(r.Context(), app.CreateBookingInput{
			Mode:              app.BookingMode(req.Mode),
			HoldID:            req.HoldID,
			SailingID:         req.SailingID,
			CabinID:           req.CabinID,
			UserID:            user,
			UCRef:             req.UCRef,
			OccupancyMode:     domain.OccupancyMode(req.OccupancyMode),
			AcknowledgePolicy: req.AcknowledgePolicy,
			IdempotencyKey:    r.Header.Get(idempotencyHeader),
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(booking))
	}
}

// HandleListBookings lists bookings filtered by status, sailing or user.
func HandleListBookings(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := app.BookingFilter{
			Status:    domain.BookingStatus(q.Get("status")),
			SailingID: q.Get("sailing_id"),
			UserID:    q.Get("user_id"),
			Limit:     limitQuery(q.Get("limit")),
			Offset:    intQuery(q.Get("offset"), 0),
		}

		bookings, err := svc.ListBookings(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]bookingResponse, 0, len(bookings))
		for _, b := range bookings {
			resp = append(resp, toBookingResponse(b))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleGetBooking returns a single booking.
func HandleGetBooking(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		booking, err := svc.GetBooking(r.Context(), chi.URLParam(r, "bookingID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(booking))
	}
}

type quoteCancellationRequest struct {
	PolicyID string `json:"policy_id"`
}

type tierResponse struct {
	ID         string          `json:"id"`
	MinDays    int             `json:"min_days"`
	MaxDays    int             `json:"max_days"`
	ChargeType string          `json:"charge_type"`
	Value      decimal.Decimal `json:"value"`
}

type quoteCancellationResponse struct {
	BookingID      string        `json:"booking_id"`
	PolicyID       string        `json:"policy_id"`
	DaysOut        int           `json:"days_out"`
	Tier           *tierResponse `json:"tier,omitempty"`
	Charge         domain.Money  `json:"charge"`
	ClampedToTotal bool          `json:"clamped_to_total"`
	NonRefundable  bool          `json:"non_refundable"`
}

// HandleQuoteCancellation computes the cancellation charge without changing
// the booking. The caller reviews it, then commits with the cancel endpoint.
func HandleQuoteCancellation(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteCancellationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.PolicyID == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "policy_id is required")
			return
		}

		bookingID := chi.URLParam(r, "bookingID")
		quote, err := svc.QuoteCancellation(r.Context(), bookingID, req.PolicyID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := quoteCancellationResponse{
			BookingID:      bookingID,
			PolicyID:       req.PolicyID,
			DaysOut:        quote.DaysOut,
			Charge:         quote.Charge,
			ClampedToTotal: quote.ClampedToTotal,
			NonRefundable:  quote.NonRefundable,
		}
		if quote.Tier != nil {
			resp.Tier = &tierResponse{
				ID:         quote.Tier.ID,
				MinDays:    quote.Tier.MinDays,
				MaxDays:    quote.Tier.MaxDays,
				ChargeType: string(quote.Tier.ChargeType),
				Value:      quote.Tier.Value,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type cancelBookingRequest struct {
	PolicyID string          `json:"policy_id"`
	Charge   decimal.Decimal `json:"charge"`
	Reason   string          `json:"reason,omitempty"`
}

// HandleCancelBooking commits a previously quoted cancellation.
func HandleCancelBooking(svc BookingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelBookingRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.PolicyID == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "policy_id is required")
			return
		}

		booking, err := svc.CancelBooking(r.Context(), app.CancelBookingInput{
			BookingID: chi.URLParam(r, "bookingID"),
			PolicyID:  req.PolicyID,
			Charge:    req.Charge,
			Reason:    req.Reason,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(booking))
	}
}
