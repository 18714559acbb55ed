package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"tiffinbox/internal/cart"
	"tiffinbox/internal/domain"
	"tiffinbox/internal/preload"
	"tiffinbox/internal/pricing"
)

// OrderCreator is the order-creation collaborator.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.CreatedOrder, error)
}

// PaymentProcessor is the payment collaborator. Its result string
// distinguishes user cancellation from other failures.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, orderID string) (*domain.PaymentResult, error)
	RetryPayment(ctx context.Context, orderID string) (*domain.PaymentResult, error)
}

// State is the orchestrator's position in the submission flow.
type State string

const (
	StateIdle             State = "IDLE"
	StateCreating         State = "CREATING"
	StatePaying           State = "PAYING"
	StateSucceeded        State = "SUCCEEDED"
	StatePaymentCancelled State = "PAYMENT_CANCELLED"
	StatePaymentFailed    State = "PAYMENT_FAILED"
)

// ErrSubmissionInFlight guards against double-tapping pay.
var ErrSubmissionInFlight = errors.New("order submission already in progress")

// Outcome is what one submission (or retry) attempt settled to.
type Outcome struct {
	State       State  `json:"state"`
	OrderID     string `json:"orderId,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
	AmountToPay int64  `json:"amountToPay"`
	Message     string `json:"message,omitempty"`
}

// Orchestrator sequences order creation, conditional payment, and
// cache invalidation into one flow. A payment failure or cancellation
// keeps the created order around so a retry pays for it instead of
// creating a second one.
type Orchestrator struct {
	store    *cart.Store
	pricing  *pricing.Reconciler
	orders   OrderCreator
	payments PaymentProcessor
	cache    *preload.Cache
	logger   *log.Logger

	mu              sync.Mutex
	state           State
	pending         *domain.CreatedOrder
	pendingVouchers int
}

// New builds an Orchestrator in the Idle state.
func New(store *cart.Store, rec *pricing.Reconciler, orders OrderCreator, payments PaymentProcessor, cache *preload.Cache, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		pricing:  rec,
		orders:   orders,
		payments: payments,
		cache:    cache,
		logger:   logger,
		state:    StateIdle,
	}
}

// State reports the current flow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs the full flow for the current cart. The cart is left
// untouched on any failure before a successful payment, so a full
// retry from scratch is always safe.
func (o *Orchestrator) Submit(ctx context.Context) (*Outcome, error) {
	o.mu.Lock()
	if o.state == StateCreating || o.state == StatePaying {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	o.state = StateCreating
	o.pending = nil
	o.pendingVouchers = 0
	o.mu.Unlock()

	outcome, err := o.submit(ctx)
	if err != nil {
		o.setState(StateIdle)
		return nil, err
	}
	return outcome, nil
}

func (o *Orchestrator) submit(ctx context.Context) (*Outcome, error) {
	if !o.store.IsReadyForSubmission() {
		return nil, domain.ErrNotReady
	}
	_, octx := o.store.Snapshot()

	// The cutoff may have passed since the last reconciliation. A
	// voucher order must not go out against a closed window.
	if octx.VoucherCount > 0 {
		if elig := o.pricing.Eligibility(); elig != nil && elig.CutoffPassed {
			msg := elig.CutoffInfo.Message
			if msg == "" {
				msg = "Voucher cutoff has passed; vouchers were removed from this order."
			}
			o.pricing.SetNotice(msg)
			o.store.SetVoucherCount(0)
			return nil, fmt.Errorf("%w: %s", domain.ErrVoucherCutoff, msg)
		}
	}

	req := o.store.BuildOrderRequest()
	if len(req.Items) == 0 {
		return nil, domain.ErrNotReady
	}
	req.PaymentMethod = domain.PaymentOnline
	if octx.VoucherCount > 0 && o.pricing.AmountToPay() == 0 {
		req.PaymentMethod = domain.PaymentVoucherOnly
	}

	created, err := o.orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	o.mu.Lock()
	o.pending = created
	o.pendingVouchers = octx.VoucherCount
	o.mu.Unlock()

	if created.AmountToPay == 0 {
		return o.finalize(created), nil
	}

	o.setState(StatePaying)
	result, err := o.payments.ProcessPayment(ctx, created.OrderID)
	return o.settlePayment(created, result, err), nil
}

// RetryPayment re-enters the payment step against the already-created
// order. Order creation is never repeated for a retry.
func (o *Orchestrator) RetryPayment(ctx context.Context) (*Outcome, error) {
	o.mu.Lock()
	if o.state != StatePaymentCancelled && o.state != StatePaymentFailed {
		o.mu.Unlock()
		return nil, fmt.Errorf("no failed payment to retry (state %s)", o.state)
	}
	created := o.pending
	o.state = StatePaying
	o.mu.Unlock()
	if created == nil {
		o.setState(StateIdle)
		return nil, errors.New("no pending order to retry")
	}

	result, err := o.payments.RetryPayment(ctx, created.OrderID)
	return o.settlePayment(created, result, err), nil
}

func (o *Orchestrator) settlePayment(created *domain.CreatedOrder, result *domain.PaymentResult, err error) *Outcome {
	if err == nil && result != nil && result.Success {
		return o.finalize(created)
	}

	msg := "payment failed"
	if err != nil {
		msg = err.Error()
	} else if result != nil && result.Error != "" {
		msg = result.Error
	}
	state := StatePaymentFailed
	if err == nil && result != nil && userCancelled(result.Error) {
		state = StatePaymentCancelled
	}
	o.setState(state)
	o.logger.Printf("payment for order %s did not complete: %s", created.OrderID, msg)
	return &Outcome{
		State:       state,
		OrderID:     created.OrderID,
		OrderNumber: created.OrderNumber,
		AmountToPay: created.AmountToPay,
		Message:     msg,
	}
}

func userCancelled(errMsg string) bool {
	return strings.Contains(strings.ToLower(errMsg), "cancel")
}

// finalize settles a paid (or zero-amount) order: stale caches are
// invalidated, the cart is cleared, and the confirmation payload is
// returned.
func (o *Orchestrator) finalize(created *domain.CreatedOrder) *Outcome {
	o.mu.Lock()
	vouchers := o.pendingVouchers
	o.pending = nil
	o.pendingVouchers = 0
	o.state = StateSucceeded
	o.mu.Unlock()

	o.cache.Invalidate(preload.KeyOrders)
	if vouchers > 0 {
		o.cache.Invalidate(preload.KeyVouchers)
	}
	o.store.Clear()
	o.logger.Printf("order %s (%s) placed", created.OrderID, created.OrderNumber)
	return &Outcome{
		State:       StateSucceeded,
		OrderID:     created.OrderID,
		OrderNumber: created.OrderNumber,
		AmountToPay: created.AmountToPay,
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
