package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/areebimran2/CS-CAS/internal/pricing"
)

// DealFetcher looks up CRM deal metadata for a UC ref.
type DealFetcher interface {
	FetchDealByUCRef(ctx context.Context, ucRef string) (pricing.DealDetails, error)
}

type fetchDealRequest struct {
	UCRef string `json:"uc_ref"`
}

// HandleFetchDeal proxies the best-effort CRM lookup. Failures are logged
// and reported as an empty result rather than an error; the lookup is
// display-only and must never block selling.
func HandleFetchDeal(svc DealFetcher, logger *log.Logger) http.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req fetchDealRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.UCRef == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "uc_ref is required")
			return
		}

		details, err := svc.FetchDealByUCRef(r.Context(), req.UCRef)
		if err != nil {
			logger.Printf("deal lookup failed uc_ref=%s: %v", req.UCRef, err)
			writeJSON(w, http.StatusOK, pricing.DealDetails{})
			return
		}
		writeJSON(w, http.StatusOK, details)
	}
}
