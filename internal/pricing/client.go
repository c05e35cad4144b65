// Package pricing talks to the pricing service and the CRM. The selling
// engine consumes an already-computed snapshot at booking time; it never
// prices a cabin itself.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/areebimran2/CS-CAS/internal/domain"
)

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	CRMBaseURL string
}

func NewClient(baseURL, crmBaseURL string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    baseURL,
		CRMBaseURL: crmBaseURL,
	}
}

// GetCurrentPricingSnapshot fetches the current price and cost-of-sale for a
// cabin on a sailing under the given occupancy mode.
func (c *Client) GetCurrentPricingSnapshot(ctx context.Context, sailingID, cabinID string, mode domain.OccupancyMode) (domain.Snapshot, error) {
	path := fmt.Sprintf("/sailings/%s/cabins/%s/snapshot?occupancy_mode=%s",
		url.PathEscape(sailingID), url.PathEscape(cabinID), url.QueryEscape(string(mode)))

	var snapshot domain.Snapshot
	if err := c.doJSON(ctx, http.MethodGet, c.BaseURL+path, nil, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch pricing snapshot: %w", err)
	}
	return snapshot, nil
}

// DealDetails is the CRM's view of a UC ref, used only for display.
type DealDetails struct {
	Deal    json.RawMessage `json:"deal"`
	Channel json.RawMessage `json:"channel"`
	Agency  json.RawMessage `json:"agency"`
	Agent   json.RawMessage `json:"agent"`
	Contact json.RawMessage `json:"contact"`
}

// FetchDealByUCRef looks up deal metadata for a UC ref. Best-effort: callers
// log failures and carry on without the details.
func (c *Client) FetchDealByUCRef(ctx context.Context, ucRef string) (DealDetails, error) {
	body := map[string]string{"uc_ref": ucRef}

	var details DealDetails
	if err := c.doJSON(ctx, http.MethodPost, c.CRMBaseURL+"/deals/fetch-by-uc-ref", body, &details); err != nil {
		return DealDetails{}, fmt.Errorf("fetch deal by uc ref: %w", err)
	}
	return details, nil
}

func (c *Client) doJSON(ctx context.Context, method, u string, reqBody, respBody any) error {
	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
	if respBody != nil && len(b) > 0 {
		if err := json.Unmarshal(b, respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
