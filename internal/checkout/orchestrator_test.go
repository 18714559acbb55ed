package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"tiffinbox/internal/cart"
	"tiffinbox/internal/domain"
	"tiffinbox/internal/preload"
	"tiffinbox/internal/pricing"
	"tiffinbox/internal/storage"
)

const validID = "a1b2c3d4e5f6a1b2c3d4e5f6"

type stubOrders struct {
	created *domain.CreatedOrder
	err     error
	calls   int
	lastReq domain.OrderRequest
}

func (s *stubOrders) CreateOrder(_ context.Context, req domain.OrderRequest) (*domain.CreatedOrder, error) {
	s.calls++
	s.lastReq = req
	return s.created, s.err
}

type stubPayments struct {
	results      []*domain.PaymentResult
	errs         []error
	processCalls int
	retryCalls   int
	lastOrderID  string
}

func (s *stubPayments) next() (*domain.PaymentResult, error) {
	idx := s.processCalls + s.retryCalls - 1
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	return s.results[idx], err
}

func (s *stubPayments) ProcessPayment(_ context.Context, orderID string) (*domain.PaymentResult, error) {
	s.processCalls++
	s.lastOrderID = orderID
	return s.next()
}

func (s *stubPayments) RetryPayment(_ context.Context, orderID string) (*domain.PaymentResult, error) {
	s.retryCalls++
	s.lastOrderID = orderID
	return s.next()
}

type stubCalc struct {
	quote *domain.PricingQuote
}

func (s *stubCalc) CalculatePricing(context.Context, domain.OrderRequest) (*domain.PricingQuote, error) {
	return s.quote, nil
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func readyStore(t *testing.T) *cart.Store {
	t.Helper()
	s := cart.New(storage.NewMemory(), discard())
	t.Cleanup(s.Close)
	s.SetKitchen("kitchen-1")
	s.SetMenuType(domain.OnDemandMenu)
	s.SetDeliveryAddress("addr-1")
	s.AddLine(domain.CartLineItem{ID: validID, Name: "Thali", UnitPrice: 150, Quantity: 1, VoucherEligible: true})
	return s
}

func newOrchestrator(t *testing.T, store *cart.Store, orders *stubOrders, payments *stubPayments, calc pricing.Calculator) (*Orchestrator, *preload.Cache, *pricing.Reconciler) {
	t.Helper()
	if calc == nil {
		calc = &stubCalc{quote: &domain.PricingQuote{Breakdown: domain.PricingBreakdown{AmountToPay: 150}}}
	}
	rec := pricing.New(store, calc, discard())
	cache := preload.NewCache()
	return New(store, rec, orders, payments, cache, discard()), cache, rec
}

func TestPaymentRetryDoesNotRecreateOrder(t *testing.T) {
	store := readyStore(t)
	orders := &stubOrders{created: &domain.CreatedOrder{OrderID: "X", OrderNumber: "TB-1001", AmountToPay: 150}}
	payments := &stubPayments{
		results: []*domain.PaymentResult{
			{Success: false, Error: "Payment cancelled"},
			{Success: true},
		},
	}
	o, _, _ := newOrchestrator(t, store, orders, payments, nil)

	outcome, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.State != StatePaymentCancelled {
		t.Fatalf("expected cancelled state, got %s", outcome.State)
	}
	if lines, _ := store.Snapshot(); len(lines) == 0 {
		t.Fatal("cart must not clear before a successful payment")
	}

	outcome, err = o.RetryPayment(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if outcome.State != StateSucceeded || outcome.OrderID != "X" {
		t.Fatalf("expected success for order X, got %+v", outcome)
	}
	if orders.calls != 1 {
		t.Fatalf("order creation must not repeat for a retry, got %d calls", orders.calls)
	}
	if payments.retryCalls != 1 || payments.lastOrderID != "X" {
		t.Fatalf("retry must target the same order, got %+v", payments)
	}
	if lines, _ := store.Snapshot(); len(lines) != 0 {
		t.Fatal("cart must clear after success")
	}
}

func TestZeroAmountFinalizesWithoutPayment(t *testing.T) {
	store := readyStore(t)
	store.SetVoucherCount(1)
	orders := &stubOrders{created: &domain.CreatedOrder{OrderID: "Y", OrderNumber: "TB-1002", AmountToPay: 0}}
	payments := &stubPayments{results: []*domain.PaymentResult{{Success: true}}}
	calc := &stubCalc{quote: &domain.PricingQuote{
		Breakdown:   domain.PricingBreakdown{AmountToPay: 0, VoucherCoverage: domain.Amount{Value: 150}},
		Eligibility: domain.VoucherEligibility{Available: 2, CanUse: 1},
	}}
	o, cache, rec := newOrchestrator(t, store, orders, payments, calc)
	rec.Reconcile(context.Background())
	cache.Set(preload.KeyOrders, []domain.Order{}, time.Minute)
	cache.Set(preload.KeyVouchers, []domain.Voucher{}, time.Minute)

	outcome, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.State != StateSucceeded {
		t.Fatalf("expected immediate success, got %s", outcome.State)
	}
	if payments.processCalls != 0 {
		t.Fatal("zero-amount orders must skip the payment collaborator")
	}
	if orders.lastReq.PaymentMethod != domain.PaymentVoucherOnly {
		t.Fatalf("expected voucher-only hint, got %s", orders.lastReq.PaymentMethod)
	}
	if _, ok := cache.Get(preload.KeyOrders); ok {
		t.Fatal("orders cache must invalidate on success")
	}
	if _, ok := cache.Get(preload.KeyVouchers); ok {
		t.Fatal("vouchers cache must invalidate when vouchers were consumed")
	}
}

func TestCutoffRecheckAbortsSubmission(t *testing.T) {
	store := readyStore(t)
	calc := &stubCalc{quote: &domain.PricingQuote{
		Breakdown:   domain.PricingBreakdown{AmountToPay: 150},
		Eligibility: domain.VoucherEligibility{Available: 2, CanUse: 1},
	}}
	orders := &stubOrders{created: &domain.CreatedOrder{OrderID: "Z", AmountToPay: 150}}
	payments := &stubPayments{results: []*domain.PaymentResult{{Success: true}}}
	o, _, rec := newOrchestrator(t, store, orders, payments, calc)
	rec.Reconcile(context.Background())
	if _, octx := store.Snapshot(); octx.VoucherCount != 1 {
		t.Fatalf("setup: expected auto-applied voucher, got %d", octx.VoucherCount)
	}

	// Cutoff passes concurrently, observed on the next reconciliation.
	calc.quote = &domain.PricingQuote{
		Breakdown:   domain.PricingBreakdown{AmountToPay: 150},
		Eligibility: domain.VoucherEligibility{CutoffPassed: true, CutoffInfo: domain.CutoffInfo{Message: "window closed"}},
	}
	store.SetVoucherCount(1)
	rec.Reconcile(context.Background())
	store.SetVoucherCount(1)

	_, err := o.Submit(context.Background())
	if !errors.Is(err, domain.ErrVoucherCutoff) {
		t.Fatalf("expected cutoff abort, got %v", err)
	}
	if orders.calls != 0 {
		t.Fatal("a cutoff abort must not reach order creation")
	}
	if _, octx := store.Snapshot(); octx.VoucherCount != 0 {
		t.Fatalf("expected vouchers zeroed on abort, got %d", octx.VoucherCount)
	}
}

func TestCreationErrorLeavesCartIntact(t *testing.T) {
	store := readyStore(t)
	orders := &stubOrders{err: errors.New("kitchen is closed")}
	payments := &stubPayments{results: []*domain.PaymentResult{{Success: true}}}
	o, _, _ := newOrchestrator(t, store, orders, payments, nil)

	_, err := o.Submit(context.Background())
	if err == nil || err.Error() != "create order: kitchen is closed" {
		t.Fatalf("expected verbatim creation error, got %v", err)
	}
	if lines, _ := store.Snapshot(); len(lines) != 1 {
		t.Fatal("cart must survive a creation error for a full retry")
	}
	if o.State() != StateIdle {
		t.Fatalf("expected return to idle, got %s", o.State())
	}
}

func TestSubmitNotReady(t *testing.T) {
	s := cart.New(storage.NewMemory(), discard())
	t.Cleanup(s.Close)
	o, _, _ := newOrchestrator(t, s, &stubOrders{}, &stubPayments{results: []*domain.PaymentResult{{Success: true}}}, nil)
	if _, err := o.Submit(context.Background()); !errors.Is(err, domain.ErrNotReady) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
}

func TestPaymentFailureOffersRetry(t *testing.T) {
	store := readyStore(t)
	orders := &stubOrders{created: &domain.CreatedOrder{OrderID: "W", AmountToPay: 150}}
	payments := &stubPayments{
		results: []*domain.PaymentResult{
			{Success: false, Error: "issuer declined"},
			{Success: true},
		},
	}
	o, _, _ := newOrchestrator(t, store, orders, payments, nil)

	outcome, err := o.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.State != StatePaymentFailed {
		t.Fatalf("a non-cancel failure must land in PAYMENT_FAILED, got %s", outcome.State)
	}
	if outcome.Message != "issuer declined" {
		t.Fatalf("expected verbatim failure message, got %q", outcome.Message)
	}

	outcome, err = o.RetryPayment(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if outcome.State != StateSucceeded {
		t.Fatalf("expected success after retry, got %s", outcome.State)
	}
}
