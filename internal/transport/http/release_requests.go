package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/areebimran2/CS-CAS/internal/app"
	"github.com/areebimran2/CS-CAS/internal/domain"
)

// ReleaseRequestAPI is the minimal interface the release-request endpoints need.
type ReleaseRequestAPI interface {
	CreateReleaseRequest(ctx context.Context, in app.CreateReleaseRequestInput) (domain.ReleaseRequest, error)
	ApproveRequest(ctx context.Context, requestID string) (app.ResolveReleaseRequestResult, error)
	DenyRequest(ctx context.Context, requestID string) (app.ResolveReleaseRequestResult, error)
	ListRequests(ctx context.Context, filter app.ReleaseRequestFilter) ([]domain.ReleaseRequest, error)
}

type releaseRequestResponse struct {
	ID          string     `json:"id"`
	HoldID      string     `json:"hold_id"`
	RequestedBy string     `json:"requested_by"`
	Reason      string     `json:"reason,omitempty"`
	Result      string     `json:"result,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toReleaseRequestResponse(req domain.ReleaseRequest) releaseRequestResponse {
	return releaseRequestResponse{
		ID:          req.ID,
		HoldID:      req.HoldID,
		RequestedBy: req.RequestedBy,
		Reason:      req.Reason,
		Result:      string(req.Result),
		ResolvedAt:  req.ResolvedAt,
		CreatedAt:   req.CreatedAt,
	}
}

type resolveResponse struct {
	ID     string        `json:"id"`
	Result string        `json:"result"`
	Hold   *holdResponse `json:"hold,omitempty"`
}

type createReleaseRequestRequest struct {
	Reason string `json:"reason,omitempty"`
}

// HandleRequestRelease lets a non-holder ask for a held cabin to be freed.
func HandleRequestRelease(svc ReleaseRequestAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeMissingUser, "X-User-ID header required")
			return
		}

		var req createReleaseRequestRequest
		if r.ContentLength != 0 {
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
		}

		created, err := svc.CreateReleaseRequest(r.Context(), app.CreateReleaseRequestInput{
			HoldID:      chi.URLParam(r, "holdID"),
			RequestedBy: user,
			Reason:      req.Reason,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReleaseRequestResponse(created))
	}
}

// HandleListReleaseRequests lists release requests, optionally per hold or
// unresolved only.
func HandleListReleaseRequests(svc ReleaseRequestAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := app.ReleaseRequestFilter{
			HoldID:     q.Get("hold_id"),
			Unresolved: q.Get("unresolved") == "true",
			Limit:      limitQuery(q.Get("limit")),
			Offset:     intQuery(q.Get("offset"), 0),
		}

		reqs, err := svc.ListRequests(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]releaseRequestResponse, 0, len(reqs))
		for _, req := range reqs {
			resp = append(resp, toReleaseRequestResponse(req))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleApproveRequest approves a release request, freeing the hold in the
// same transaction.
func HandleApproveRequest(svc ReleaseRequestAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.ApproveRequest(r.Context(), chi.URLParam(r, "requestID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := resolveResponse{
			ID:     res.Request.ID,
			Result: string(res.Request.Result),
		}
		if res.Hold != nil {
			h := toHoldResponse(*res.Hold)
			resp.Hold = &h
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleDenyRequest denies a release request; the hold is untouched.
func HandleDenyRequest(svc ReleaseRequestAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.DenyRequest(r.Context(), chi.URLParam(r, "requestID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, resolveResponse{
			ID:     res.Request.ID,
			Result: string(res.Request.Result),
		})
	}
}
