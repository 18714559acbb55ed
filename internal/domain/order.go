package domain

import "time"

// PaymentMethod is the hint sent with order creation.
type PaymentMethod string

const (
	PaymentVoucherOnly PaymentMethod = "VOUCHER_ONLY"
	PaymentOnline      PaymentMethod = "ONLINE"
)

// OrderRequestAddon is the wire shape for one addon on an order line.
type OrderRequestAddon struct {
	AddonID  string `json:"addonId"`
	Quantity int    `json:"quantity"`
}

// OrderRequestItem is the wire shape for one order line.
type OrderRequestItem struct {
	MenuItemID string              `json:"menuItemId"`
	Quantity   int                 `json:"quantity"`
	Addons     []OrderRequestAddon `json:"addons,omitempty"`
}

// OrderRequest is the projection of the cart sent to order creation.
type OrderRequest struct {
	KitchenID         string             `json:"kitchenId"`
	MenuType          MenuType           `json:"menuType"`
	MealWindow        MealWindow         `json:"mealWindow,omitempty"`
	DeliveryAddressID string             `json:"deliveryAddressId"`
	Items             []OrderRequestItem `json:"items"`
	VoucherCount      int                `json:"voucherCount"`
	CouponCode        string             `json:"couponCode,omitempty"`
	Instructions      string             `json:"instructions,omitempty"`
	DeliveryNotes     string             `json:"deliveryNotes,omitempty"`
	PaymentMethod     PaymentMethod      `json:"paymentMethod"`
}

// CreatedOrder is what order creation returns.
type CreatedOrder struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	AmountToPay int64  `json:"amountToPay"`
}

// Order is one entry in the user's order history.
type Order struct {
	ID          string     `json:"id"`
	OrderNumber string     `json:"orderNumber"`
	Status      string     `json:"status"`
	KitchenName string     `json:"kitchenName,omitempty"`
	MenuType    MenuType   `json:"menuType,omitempty"`
	MealWindow  MealWindow `json:"mealWindow,omitempty"`
	ItemCount   int        `json:"itemCount"`
	AmountPaid  int64      `json:"amountPaid"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Voucher is one pre-purchased meal entitlement.
type Voucher struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Subscription is the user's active meal plan, if any.
type Subscription struct {
	ID                string    `json:"id"`
	PlanName          string    `json:"planName"`
	VouchersRemaining int       `json:"vouchersRemaining"`
	RenewsAt          time.Time `json:"renewsAt"`
}

// PaymentResult is the payment collaborator's verdict for an order.
type PaymentResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
