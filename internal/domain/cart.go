package domain

// MenuType selects which of the kitchen's menus an order draws from.
type MenuType string

const (
	MealMenu     MenuType = "MEAL_MENU"
	OnDemandMenu MenuType = "ON_DEMAND_MENU"
)

// MealWindow applies only to MEAL_MENU orders.
type MealWindow string

const (
	Lunch  MealWindow = "LUNCH"
	Dinner MealWindow = "DINNER"
)

// CartAddon is an extra attached to a cart line, priced and counted
// independently of the parent line's quantity multiplier.
type CartAddon struct {
	AddonID   string `json:"addonId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// CartLineItem is one orderable menu item in the cart. ImageURL is
// display-only state derived from the meal window and is never persisted.
type CartLineItem struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	UnitPrice       int64       `json:"unitPrice"`
	Quantity        int         `json:"quantity"`
	VoucherEligible bool        `json:"voucherEligible"`
	Addons          []CartAddon `json:"addons,omitempty"`
	ImageURL        string      `json:"-"`
}

// LineTotal sums the line and its addons. Local estimate only; the
// backend breakdown stays authoritative for anything payment-facing.
func (l CartLineItem) LineTotal() int64 {
	total := l.UnitPrice * int64(l.Quantity)
	for _, a := range l.Addons {
		total += a.UnitPrice * int64(a.Quantity)
	}
	return total
}

// OrderContext is the sibling state held alongside the cart lines:
// where the order goes and how vouchers/coupons apply to it.
type OrderContext struct {
	KitchenID           string     `json:"kitchenId,omitempty"`
	MenuType            MenuType   `json:"menuType,omitempty"`
	MealWindow          MealWindow `json:"mealWindow,omitempty"`
	DeliveryAddressID   string     `json:"deliveryAddressId,omitempty"`
	VoucherCount        int        `json:"voucherCount"`
	CouponCode          string     `json:"couponCode,omitempty"`
	SpecialInstructions string     `json:"specialInstructions,omitempty"`
	DeliveryNotes       string     `json:"deliveryNotes,omitempty"`
}
