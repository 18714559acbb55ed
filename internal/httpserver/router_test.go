package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tiffinbox/internal/cart"
	"tiffinbox/internal/checkout"
	"tiffinbox/internal/domain"
	"tiffinbox/internal/preload"
	"tiffinbox/internal/pricing"
	"tiffinbox/internal/storage"
)

const validID = "a1b2c3d4e5f6a1b2c3d4e5f6"

type stubCalc struct{}

func (stubCalc) CalculatePricing(context.Context, domain.OrderRequest) (*domain.PricingQuote, error) {
	return &domain.PricingQuote{Breakdown: domain.PricingBreakdown{AmountToPay: 100}}, nil
}

type stubOrderBackend struct {
	orders []domain.Order
	calls  int
}

func (s *stubOrderBackend) ListOrders(context.Context, string) ([]domain.Order, error) {
	s.calls++
	return s.orders, nil
}

func (s *stubOrderBackend) CreateOrder(context.Context, domain.OrderRequest) (*domain.CreatedOrder, error) {
	return &domain.CreatedOrder{OrderID: "o1", OrderNumber: "TB-1", AmountToPay: 0}, nil
}

func (s *stubOrderBackend) ProcessPayment(context.Context, string) (*domain.PaymentResult, error) {
	return &domain.PaymentResult{Success: true}, nil
}

func (s *stubOrderBackend) RetryPayment(context.Context, string) (*domain.PaymentResult, error) {
	return &domain.PaymentResult{Success: true}, nil
}

func testRouterDeps(t *testing.T) (Deps, *stubOrderBackend) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	adapter := storage.NewMemory()
	store := cart.New(adapter, logger)
	t.Cleanup(store.Close)
	rec := pricing.New(store, stubCalc{}, logger)
	cache := preload.NewCache()
	backend := &stubOrderBackend{orders: []domain.Order{{ID: "o1", OrderNumber: "TB-1"}}}
	preloader := preload.NewPreloader(cache, nil, logger)
	orch := checkout.New(store, rec, backend, backend, cache, logger)
	return Deps{
		Store:     store,
		Pricing:   rec,
		Checkout:  orch,
		Cache:     cache,
		Preloader: preloader,
		Orders:    backend,
		Notes:     storage.NewNoteStore(adapter),
	}, backend
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	deps, _ := testRouterDeps(t)
	router := buildRouter(log.New(io.Discard, "", 0), nil, deps)

	w := doJSON(t, router, http.MethodPost, "/v1/cart/lines",
		`{"id":"`+validID+`","name":"Thali","unitPrice":250,"quantity":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add line: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/v1/cart", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get cart: %d", w.Code)
	}
	var state struct {
		TotalUnits int  `json:"totalUnits"`
		Ready      bool `json:"ready"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode cart state: %v", err)
	}
	if state.TotalUnits != 2 || state.Ready {
		t.Fatalf("unexpected cart state: %+v", state)
	}

	w = doJSON(t, router, http.MethodPut, "/v1/cart/context",
		`{"kitchenId":"kitchen-1","menuType":"ON_DEMAND_MENU","deliveryAddressId":"addr-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update context: %d %s", w.Code, w.Body.String())
	}
	var ctxResp struct {
		Ready bool `json:"ready"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ctxResp); err != nil {
		t.Fatalf("decode context response: %v", err)
	}
	if !ctxResp.Ready {
		t.Fatal("expected cart ready after context set")
	}

	w = doJSON(t, router, http.MethodPatch, "/v1/cart/lines/"+validID, `{"quantity":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set quantity: %d", w.Code)
	}
	var after struct {
		TotalUnits int `json:"totalUnits"`
	}
	json.Unmarshal(w.Body.Bytes(), &after)
	if after.TotalUnits != 0 {
		t.Fatalf("expected zero quantity to remove the line, got %d units", after.TotalUnits)
	}
}

func TestUnknownMenuTypeRejected(t *testing.T) {
	deps, _ := testRouterDeps(t)
	router := buildRouter(log.New(io.Discard, "", 0), nil, deps)

	w := doJSON(t, router, http.MethodPut, "/v1/cart/context", `{"menuType":"BRUNCH_MENU"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown menu type, got %d", w.Code)
	}
}

func TestOrdersServedFromCacheWhenFresh(t *testing.T) {
	deps, backend := testRouterDeps(t)
	router := buildRouter(log.New(io.Discard, "", 0), nil, deps)
	deps.Cache.Set(preload.KeyOrders, []domain.Order{{ID: "cached", OrderNumber: "TB-9"}}, time.Minute)

	w := doJSON(t, router, http.MethodGet, "/v1/orders", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list orders: %d", w.Code)
	}
	var resp struct {
		Cached bool           `json:"cached"`
		Orders []domain.Order `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if !resp.Cached || len(resp.Orders) != 1 || resp.Orders[0].ID != "cached" {
		t.Fatalf("expected cached orders, got %+v", resp)
	}
	if backend.calls != 0 {
		t.Fatalf("fresh cache must not hit the backend, got %d calls", backend.calls)
	}

	// Invalidation falls back to a direct fetch and repopulates.
	deps.Cache.Invalidate(preload.KeyOrders)
	w = doJSON(t, router, http.MethodGet, "/v1/orders", "")
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Cached || backend.calls != 1 {
		t.Fatalf("expected direct fetch after invalidation, got %+v (calls=%d)", resp, backend.calls)
	}
	if _, ok := deps.Cache.Get(preload.KeyOrders); !ok {
		t.Fatal("direct fetch should repopulate the cache")
	}
}

func TestOrderNotesEndpoints(t *testing.T) {
	deps, _ := testRouterDeps(t)
	router := buildRouter(log.New(io.Discard, "", 0), nil, deps)

	w := doJSON(t, router, http.MethodPost, "/v1/orders/o1/notes", `{"note":"ring twice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("append note: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, http.MethodGet, "/v1/orders/o1/notes", "")
	var resp struct {
		Notes []string `json:"notes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode notes: %v", err)
	}
	if len(resp.Notes) != 1 || resp.Notes[0] != "ring twice" {
		t.Fatalf("unexpected notes: %+v", resp.Notes)
	}
}

func TestCheckoutOverHTTP(t *testing.T) {
	deps, _ := testRouterDeps(t)
	router := buildRouter(log.New(io.Discard, "", 0), nil, deps)

	doJSON(t, router, http.MethodPost, "/v1/cart/lines",
		`{"id":"`+validID+`","name":"Thali","unitPrice":250,"quantity":1}`)
	doJSON(t, router, http.MethodPut, "/v1/cart/context",
		`{"kitchenId":"kitchen-1","menuType":"ON_DEMAND_MENU","deliveryAddressId":"addr-1"}`)

	w := doJSON(t, router, http.MethodPost, "/v1/checkout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("checkout: %d %s", w.Code, w.Body.String())
	}
	var outcome checkout.Outcome
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.State != checkout.StateSucceeded || outcome.OrderNumber != "TB-1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/cart", "")
	var state struct {
		TotalUnits int `json:"totalUnits"`
	}
	json.Unmarshal(w.Body.Bytes(), &state)
	if state.TotalUnits != 0 {
		t.Fatal("cart must be empty after a successful checkout")
	}
}
