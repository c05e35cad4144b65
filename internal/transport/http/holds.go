package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/areebimran2/CS-CAS/internal/app"
	"github.com/areebimran2/CS-CAS/internal/domain"
)

const idempotencyHeader = "Idempotency-Key"

// HoldAPI is the minimal interface the hold endpoints need.
type HoldAPI interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (domain.Hold, error)
	ExtendHold(ctx context.Context, holdID string) (domain.Hold, error)
	ReleaseHold(ctx context.Context, holdID, actor string, isAdmin bool) (domain.Hold, error)
	GetHold(ctx context.Context, holdID string) (domain.Hold, error)
	ListHolds(ctx context.Context, filter app.HoldFilter) ([]domain.Hold, error)
}

type holdResponse struct {
	ID         string    `json:"id"`
	SailingID  string    `json:"sailing_id"`
	CabinID    string    `json:"cabin_id"`
	UserID     string    `json:"user_id"`
	UCRef      string    `json:"uc_ref"`
	Status     string    `json:"status"`
	ExpiresAt  time.Time `json:"expires_at"`
	Extensions int       `json:"extensions"`
	CreatedAt  time.Time `json:"created_at"`
}

func toHoldResponse(h domain.Hold) holdResponse {
	return holdResponse{
		ID:         h.ID,
		SailingID:  h.SailingID,
		CabinID:    h.CabinID,
		UserID:     h.UserID,
		UCRef:      h.UCRef,
		Status:     string(h.Status),
		ExpiresAt:  h.ExpiresAt,
		Extensions: h.Extensions,
		CreatedAt:  h.CreatedAt,
	}
}

type createHoldRequest struct {
	SailingID string `json:"sailing_id"`
	CabinID   string `json:"cabin_id"`
	UCRef     string `json:"uc_ref"`
}

// HandleCreateHold reserves a cabin for the requesting user.
func HandleCreateHold(svc HoldAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeMissingUser, "X-User-ID header required")
			return
		}

		var req createHoldRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.SailingID == "" || req.CabinID == "" || req.UCRef == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "sailing_id, cabin_id and uc_ref are required")
			return
		}

		hold, err := svc.CreateHold(r.Context(), app.CreateHoldInput{
			SailingID:      req.SailingID,
			CabinID:        req.CabinID,
			UserID:         user,
			UCRef:          req.UCRef,
			IdempotencyKey: r.Header.Get(idempotencyHeader),
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toHoldResponse(hold))
	}
}

// HandleListHolds lists holds filtered by status, sailing or user.
func HandleListHolds(svc HoldAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := app.HoldFilter{
			Status:    domain.HoldStatus(q.Get("status")),
			SailingID: q.Get("sailing_id"),
			UserID:    q.Get("user_id"),
			Limit:     limitQuery(q.Get("limit")),
			Offset:    intQuery(q.Get("offset"), 0),
		}

		holds, err := svc.ListHolds(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]holdResponse, 0, len(holds))
		for _, h := range holds {
			resp = append(resp, toHoldResponse(h))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleGetHold returns a single hold.
func HandleGetHold(svc HoldAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hold, err := svc.GetHold(r.Context(), chi.URLParam(r, "holdID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toHoldResponse(hold))
	}
}

// HandleExtendHold pushes a hold's expiry out per the reserve policy.
func HandleExtendHold(svc HoldAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hold, err := svc.ExtendHold(r.Context(), chi.URLParam(r, "holdID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toHoldResponse(hold))
	}
}

// HandleReleaseHold releases a hold early, on behalf of the holder or an admin.
func HandleReleaseHold(svc HoldAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requestUser(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeMissingUser, "X-User-ID header required")
			return
		}

		hold, err := svc.ReleaseHold(r.Context(), chi.URLParam(r, "holdID"), actor, isAdmin(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toHoldResponse(hold))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// List endpoints page at most maxListLimit rows per request.
const maxListLimit = 100

func limitQuery(raw string) int {
	n := intQuery(raw, maxListLimit)
	if n == 0 || n > maxListLimit {
		return maxListLimit
	}
	return n
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
