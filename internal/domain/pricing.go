package domain

// Amount wraps a single monetary value the way the backend nests it.
type Amount struct {
	Value int64 `json:"value"`
}

// Charges is the fee portion of a pricing breakdown.
type Charges struct {
	DeliveryFee  int64 `json:"deliveryFee"`
	ServiceFee   int64 `json:"serviceFee"`
	PackagingFee int64 `json:"packagingFee"`
	HandlingFee  int64 `json:"handlingFee"`
	TaxAmount    int64 `json:"taxAmount"`
}

// Total sums all charge components.
func (c Charges) Total() int64 {
	return c.DeliveryFee + c.ServiceFee + c.PackagingFee + c.HandlingFee + c.TaxAmount
}

// PricingBreakdown is the server-computed price decomposition for the
// current cart. The client displays it and never recomputes AmountToPay.
type PricingBreakdown struct {
	Subtotal        int64   `json:"subtotal"`
	Charges         Charges `json:"charges"`
	VoucherCoverage Amount  `json:"voucherCoverage"`
	Discount        Amount  `json:"discount"`
	AmountToPay     int64   `json:"amountToPay"`
}

// PricingQuote is the pricing collaborator's full response: the
// breakdown plus the voucher verdict for the same cart state.
type PricingQuote struct {
	Breakdown   PricingBreakdown   `json:"breakdown"`
	Eligibility VoucherEligibility `json:"voucherEligibility"`
}

// CutoffInfo carries the user-facing explanation for a passed cutoff.
type CutoffInfo struct {
	Message string `json:"message"`
}

// VoucherEligibility is the backend's verdict on voucher use for the
// order currently being composed.
type VoucherEligibility struct {
	Available    int        `json:"available"`
	CanUse       int        `json:"canUse"`
	CutoffPassed bool       `json:"cutoffPassed"`
	CutoffInfo   CutoffInfo `json:"cutoffInfo"`
}
