package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrNotReady indicates the cart is missing fields required for submission.
	ErrNotReady = errors.New("order context not ready for submission")
	// ErrVoucherCutoff indicates voucher redemption is closed for the window.
	ErrVoucherCutoff = errors.New("voucher cutoff passed")
	// ErrPaymentCancelled indicates the user backed out of the payment flow.
	ErrPaymentCancelled = errors.New("payment cancelled by user")
)
