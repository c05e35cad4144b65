package http

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/areebimran2/CS-CAS/internal/app"
	"github.com/areebimran2/CS-CAS/internal/cancellation"
	"github.com/areebimran2/CS-CAS/internal/domain"
	"github.com/areebimran2/CS-CAS/internal/pricing"
)

type fakeHoldAPI struct {
	createFn  func(ctx context.Context, in app.CreateHoldInput) (domain.Hold, error)
	extendFn  func(ctx context.Context, holdID string) (domain.Hold, error)
	releaseFn func(ctx context.Context, holdID, actor string, isAdmin bool) (domain.Hold, error)
	getFn     func(ctx context.Context, holdID string) (domain.Hold, error)
	listFn    func(ctx context.Context, filter app.HoldFilter) ([]domain.Hold, error)
}

func (f *fakeHoldAPI) CreateHold(ctx context.Context, in app.CreateHoldInput) (domain.Hold, error) {
	return f.createFn(ctx, in)
}

func (f *fakeHoldAPI) ExtendHold(ctx context.Context, holdID string) (domain.Hold, error) {
	return f.extendFn(ctx, holdID)
}

func (f *fakeHoldAPI) ReleaseHold(ctx context.Context, holdID, actor string, isAdmin bool) (domain.Hold, error) {
	return f.releaseFn(ctx, holdID, actor, isAdmin)
}

func (f *fakeHoldAPI) GetHold(ctx context.Context, holdID string) (domain.Hold, error) {
	return f.getFn(ctx, holdID)
}

func (f *fakeHoldAPI) ListHolds(ctx context.Context, filter app.HoldFilter) ([]domain.Hold, error) {
	return f.listFn(ctx, filter)
}

type fakeReleaseRequestAPI struct {
	createFn  func(ctx context.Context, in app.CreateReleaseRequestInput) (domain.ReleaseRequest, error)
	approveFn func(ctx context.Context, requestID string) (app.ResolveReleaseRequestResult, error)
	denyFn    func(ctx context.Context, requestID string) (app.ResolveReleaseRequestResult, error)
	listFn    func(ctx context.Context, filter app.ReleaseRequestFilter) ([]domain.ReleaseRequest, error)
}

func (f *fakeReleaseRequestAPI) CreateReleaseRequest(ctx context.Context, in app.CreateReleaseRequestInput) (domain.ReleaseRequest, error) {
	return f.createFn(ctx, in)
}

func (f *fakeReleaseRequestAPI) ApproveRequest(ctx context.Context, requestID string) (app.ResolveReleaseRequestResult, error) {
	return f.approveFn(ctx, requestID)
}

func (f *fakeReleaseRequestAPI) DenyRequest(ctx context.Context, requestID string) (app.ResolveReleaseRequestResult, error) {
	return f.denyFn(ctx, requestID)
}

func (f *fakeReleaseRequestAPI) ListRequests(ctx context.Context, filter app.ReleaseRequestFilter) ([]domain.ReleaseRequest, error) {
	return f.listFn(ctx, filter)
}

type fakeBookingAPI struct {
	createFn func(ctx context.Context, in app.CreateBookingInput) (domain.Booking, error)
	getFn    func(ctx context.Context, id string) (domain.Booking, error)
	listFn   func(ctx context.Context, filter app.BookingFilter) ([]domain.Booking, error)
	quoteFn  func(ctx context.Context, bookingID, policyID string) (cancellation.QuoteResult, error)
	cancelFn func(ctx context.Context, in app.CancelBookingInput) (domain.Booking, error)
}

func (f *fakeBookingAPI) CreateBooking(ctx context.Context, in app.CreateBookingInput) (domain.Booking, error) {
	return f.createFn(ctx, in)
}

func (f *fakeBookingAPI) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return f.getFn(ctx, id)
}

func (f *fakeBookingAPI) ListBookings(ctx context.Context, filter app.BookingFilter) ([]domain.Booking, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeBookingAPI) QuoteCancellation(ctx context.Context, bookingID, policyID string) (cancellation.QuoteResult, error) {
	return f.quoteFn(ctx, bookingID, policyID)
}

func (f *fakeBookingAPI) CancelBooking(ctx context.Context, in app.CancelBookingInput) (domain.Booking, error) {
	return f.cancelFn(ctx, in)
}

type fakeDealFetcher struct {
	fetchFn func(ctx context.Context, ucRef string) (pricing.DealDetails, error)
}

func (f *fakeDealFetcher) FetchDealByUCRef(ctx context.Context, ucRef string) (pricing.DealDetails, error) {
	return f.fetchFn(ctx, ucRef)
}

func newTestRouter(svcs Services) http.Handler {
	return NewRouter(svcs, nil, log.New(io.Discard, "", 0))
}

func doJSON(t *testing.T, handler http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (body %s)", status, rec.Code, rec.Body.String())
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != code {
		t.Fatalf("expected error code %q, got %q", code, resp.Code)
	}
}
