package pricing

import (
	"context"
	"log"
	"sync"

	"tiffinbox/internal/cart"
	"tiffinbox/internal/domain"
)

// Calculator is the remote pricing collaborator. Its numbers are
// authoritative; the reconciler never overrides them.
type Calculator interface {
	CalculatePricing(ctx context.Context, req domain.OrderRequest) (*domain.PricingQuote, error)
}

// Reconciler keeps the displayed price breakdown in sync with the cart
// and owns the voucher auto-apply/auto-remove policy. Each change to
// the store schedules one recomputation; a generation token ensures
// only the latest recomputation's result is ever applied, so a slow
// superseded response cannot clobber fresher state.
type Reconciler struct {
	store  *cart.Store
	calc   Calculator
	logger *log.Logger

	mu          sync.Mutex
	generation  uint64
	loading     bool
	breakdown   *domain.PricingBreakdown
	eligibility *domain.VoucherEligibility
	fetchErr    error
	notice      string
	autoApplied bool
}

// New builds a Reconciler over the store.
func New(store *cart.Store, calc Calculator, logger *log.Logger) *Reconciler {
	return &Reconciler{store: store, calc: calc, logger: logger}
}

// Run reconciles on every store change until ctx is cancelled. Each
// change spawns its own recomputation; coalescing happens at the
// subscription channel and staleness at the generation token.
func (r *Reconciler) Run(ctx context.Context) {
	changes := r.store.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			go r.Reconcile(ctx)
		}
	}
}

// Reconcile performs one recomputation pass against the current cart
// state. Safe to call directly for an explicit retry.
func (r *Reconciler) Reconcile(ctx context.Context) {
	lines, octx := r.store.Snapshot()

	r.mu.Lock()
	if len(lines) == 0 {
		// Empty cart starts a fresh voucher session.
		r.autoApplied = false
	}
	r.generation++
	gen := r.generation
	if !ready(lines, octx) {
		r.loading = false
		r.breakdown = nil
		r.eligibility = nil
		r.fetchErr = nil
		r.mu.Unlock()
		return
	}
	r.loading = true
	r.mu.Unlock()

	quote, err := r.calc.CalculatePricing(ctx, r.store.BuildOrderRequest())

	r.mu.Lock()
	if gen != r.generation {
		// A newer recomputation owns the state slot now.
		r.mu.Unlock()
		return
	}
	r.loading = false
	if err != nil {
		r.breakdown = nil
		r.eligibility = nil
		r.fetchErr = err
		r.mu.Unlock()
		r.logger.Printf("warn: pricing fetch failed: %v", err)
		return
	}
	r.breakdown = &quote.Breakdown
	elig := quote.Eligibility
	r.eligibility = &elig
	r.fetchErr = nil
	r.mu.Unlock()

	r.applyVoucherPolicy(elig, octx.VoucherCount)
}

// ready mirrors the preconditions for issuing a pricing call.
func ready(lines []domain.CartLineItem, octx domain.OrderContext) bool {
	if len(lines) == 0 || octx.KitchenID == "" || octx.MenuType == "" || octx.DeliveryAddressID == "" {
		return false
	}
	if octx.MenuType == domain.MealMenu && octx.MealWindow == "" {
		return false
	}
	return true
}

// applyVoucherPolicy runs on every fresh eligibility result.
func (r *Reconciler) applyVoucherPolicy(elig domain.VoucherEligibility, voucherCount int) {
	if elig.CutoffPassed {
		if voucherCount > 0 {
			r.mu.Lock()
			r.notice = cutoffNotice(elig)
			r.mu.Unlock()
			r.store.SetVoucherCount(0)
		}
		return
	}
	r.mu.Lock()
	apply := !r.autoApplied && voucherCount == 0 && elig.CanUse > 0 && elig.Available > 0
	if apply {
		r.autoApplied = true
	}
	r.mu.Unlock()
	if apply {
		r.store.SetVoucherCount(1)
	}
}

func cutoffNotice(elig domain.VoucherEligibility) string {
	if elig.CutoffInfo.Message != "" {
		return elig.CutoffInfo.Message
	}
	return "Voucher cutoff has passed; vouchers were removed from this order."
}

// IncrementVoucher raises the applied voucher count by one, bounded by
// min(usable vouchers, voucher-eligible units). Beyond the bound it is
// a no-op.
func (r *Reconciler) IncrementVoucher() {
	r.mu.Lock()
	elig := r.eligibility
	r.mu.Unlock()
	if elig == nil || elig.CutoffPassed {
		return
	}
	_, octx := r.store.Snapshot()
	bound := elig.CanUse
	if units := r.store.VoucherEligibleUnits(); units < bound {
		bound = units
	}
	if octx.VoucherCount >= bound {
		return
	}
	r.store.SetVoucherCount(octx.VoucherCount + 1)
}

// DecrementVoucher lowers the applied voucher count by one. Going from
// one to zero removes voucher usage entirely.
func (r *Reconciler) DecrementVoucher() {
	_, octx := r.store.Snapshot()
	if octx.VoucherCount == 0 {
		return
	}
	r.store.SetVoucherCount(octx.VoucherCount - 1)
}

// State is the reconciler's display-facing snapshot.
type State struct {
	Loading     bool                       `json:"loading"`
	Breakdown   *domain.PricingBreakdown   `json:"breakdown,omitempty"`
	Eligibility *domain.VoucherEligibility `json:"voucherEligibility,omitempty"`
	Error       string                     `json:"error,omitempty"`
	AmountToPay int64                      `json:"amountToPay"`
}

// CurrentState snapshots the reconciler for display.
func (r *Reconciler) CurrentState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := State{Loading: r.loading}
	if r.breakdown != nil {
		b := *r.breakdown
		st.Breakdown = &b
	}
	if r.eligibility != nil {
		e := *r.eligibility
		st.Eligibility = &e
	}
	if r.fetchErr != nil {
		st.Error = r.fetchErr.Error()
	}
	st.AmountToPay = r.amountToPayLocked()
	return st
}

// AmountToPay prefers the server breakdown and only falls back to the
// local estimate before any breakdown has arrived. The fallback is
// never handed to a payment collaborator.
func (r *Reconciler) AmountToPay() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.amountToPayLocked()
}

func (r *Reconciler) amountToPayLocked() int64 {
	if r.breakdown != nil {
		return r.breakdown.AmountToPay
	}
	est := r.store.SubtotalEstimate()
	if est < 0 {
		est = 0
	}
	return est
}

// Eligibility returns the latest voucher verdict, or nil before one
// has arrived.
func (r *Reconciler) Eligibility() *domain.VoucherEligibility {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eligibility == nil {
		return nil
	}
	e := *r.eligibility
	return &e
}

// SetNotice records a user-facing notice for the UI to drain.
func (r *Reconciler) SetNotice(msg string) {
	r.mu.Lock()
	r.notice = msg
	r.mu.Unlock()
}

// TakeNotice returns and clears the pending user-facing notice.
func (r *Reconciler) TakeNotice() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.notice == "" {
		return "", false
	}
	msg := r.notice
	r.notice = ""
	return msg, true
}
