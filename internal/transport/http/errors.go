package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/areebimran2/CS-CAS/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeMissingRequiredField  = "missing_required_field"
	codeMissingUser           = "missing_user"
	codeInvalidID             = "invalid_id"
	codeInvalidMode           = "invalid_mode"
	codeCabinHeld             = "cabin_held"
	codeCabinBooked           = "cabin_booked"
	codeHoldNotActive         = "hold_not_active"
	codeHoldExpired           = "hold_expired"
	codeBookingNotActive      = "booking_not_active"
	codeRequestResolved       = "release_request_resolved"
	codeNotHoldOwner          = "not_hold_owner"
	codeOwnHold               = "own_hold"
	codeExtensionsDisabled    = "extensions_disabled"
	codeExtensionsExhausted   = "extensions_exhausted"
	codePolicyNotAcknowledged = "policy_not_acknowledged"
	codeNoTierMatched         = "no_tier_matched"
	codeIdempotencyConflict   = "idempotency_conflict"
	codeHoldNotFound          = "hold_not_found"
	codeBookingNotFound       = "booking_not_found"
	codeRequestNotFound       = "release_request_not_found"
	codeReservePolicyMissing  = "reserve_policy_not_configured"
	codePolicyNotFound        = "cancellation_policy_not_found"
	codePricingUnavailable    = "pricing_unavailable"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(errorCodeHeader, code)
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps a service error onto its HTTP status and machine
// code. Every conflict, state, permission, and policy error reaches the
// client with enough detail to act on.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, codeInternalError
	msg := "internal error"

	switch {
	case errors.Is(err, domain.ErrCabinHeld):
		status, code = http.StatusConflict, codeCabinHeld
	case errors.Is(err, domain.ErrCabinBooked):
		status, code = http.StatusConflict, codeCabinBooked
	case errors.Is(err, domain.ErrHoldNotActive):
		status, code = http.StatusConflict, codeHoldNotActive
	case errors.Is(err, domain.ErrHoldExpired):
		status, code = http.StatusConflict, codeHoldExpired
	case errors.Is(err, domain.ErrBookingNotActive):
		status, code = http.StatusConflict, codeBookingNotActive
	case errors.Is(err, domain.ErrRequestResolved):
		status, code = http.StatusConflict, codeRequestResolved
	case errors.Is(err, domain.ErrIdempotencyConflict):
		status, code = http.StatusConflict, codeIdempotencyConflict
	case errors.Is(err, domain.ErrNotHoldOwner):
		status, code = http.StatusForbidden, codeNotHoldOwner
	case errors.Is(err, domain.ErrOwnHold):
		status, code = http.StatusUnprocessableEntity, codeOwnHold
	case errors.Is(err, domain.ErrExtensionsDisabled):
		status, code = http.StatusUnprocessableEntity, codeExtensionsDisabled
	case errors.Is(err, domain.ErrExtensionsExhausted):
		status, code = http.StatusUnprocessableEntity, codeExtensionsExhausted
	case errors.Is(err, domain.ErrPolicyNotAcknowledged):
		status, code = http.StatusUnprocessableEntity, codePolicyNotAcknowledged
	case errors.Is(err, domain.ErrNoTierMatched):
		status, code = http.StatusUnprocessableEntity, codeNoTierMatched
	case errors.Is(err, domain.ErrInvalidMode):
		status, code = http.StatusBadRequest, codeInvalidMode
	case errors.Is(err, domain.ErrInvalidID):
		status, code = http.StatusBadRequest, codeInvalidID
	case errors.Is(err, domain.ErrHoldNotFound):
		status, code = http.StatusNotFound, codeHoldNotFound
	case errors.Is(err, domain.ErrBookingNotFound):
		status, code = http.StatusNotFound, codeBookingNotFound
	case errors.Is(err, domain.ErrReleaseRequestNotFound):
		status, code = http.StatusNotFound, codeRequestNotFound
	case errors.Is(err, domain.ErrCancellationPolicyNotFound):
		status, code = http.StatusNotFound, codePolicyNotFound
	case errors.Is(err, domain.ErrReservePolicyNotFound):
		status, code = http.StatusUnprocessableEntity, codeReservePolicyMissing
	case errors.Is(err, domain.ErrPricingUnavailable):
		status, code = http.StatusBadGateway, codePricingUnavailable
	}

	if code != codeInternalError {
		msg = err.Error()
	}
	writeError(w, status, code, msg)
}
