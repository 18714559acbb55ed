package cart

import (
	"log"
	"sync"

	"tiffinbox/internal/domain"
	"tiffinbox/internal/storage"
)

// Store is the single in-memory source of truth for the order being
// composed: cart lines plus the surrounding order context. Every
// mutation schedules a durable snapshot write and wakes subscribers.
type Store struct {
	mu    sync.Mutex
	lines []domain.CartLineItem
	octx  domain.OrderContext

	adapter storage.Adapter
	logger  *log.Logger

	subs      []chan struct{}
	persistCh chan struct{}
	quit      chan struct{}
	wg        sync.WaitGroup
}

// New builds a Store persisting through adapter and starts its
// snapshot writer.
func New(adapter storage.Adapter, logger *log.Logger) *Store {
	s := &Store{
		adapter:   adapter,
		logger:    logger,
		persistCh: make(chan struct{}, 1),
		quit:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.persistLoop()
	return s
}

// Close stops the snapshot writer after flushing pending state.
func (s *Store) Close() {
	close(s.quit)
	s.wg.Wait()
}

// Subscribe returns a channel that receives a signal after any
// mutation. Signals coalesce; the channel never blocks a mutator.
func (s *Store) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	s.subs = append(s.subs, ch)
	return ch
}

func (s *Store) changed() {
	select {
	case s.persistCh <- struct{}{}:
	default:
	}
	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// AddLine appends item, or merges it into an existing line with the
// same id: quantities add, the incoming addon list wins outright.
func (s *Store) AddLine(item domain.CartLineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].ID == item.ID {
			s.lines[i].Quantity += item.Quantity
			s.lines[i].Addons = cloneAddons(item.Addons)
			merged = true
			break
		}
	}
	if !merged {
		item.Addons = cloneAddons(item.Addons)
		item.ImageURL = displayImageURL(s.octx.MealWindow)
		s.lines = append(s.lines, item)
	}
	s.mu.Unlock()
	s.changed()
}

// ReplaceAll discards every line and sets the cart to exactly item, in
// one transition. Voucher count, coupon, and free-text fields reset
// with it so nothing from the previous selection leaks into the new
// one. No observer can see an intermediate empty cart.
func (s *Store) ReplaceAll(item domain.CartLineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	s.mu.Lock()
	item.Addons = cloneAddons(item.Addons)
	item.ImageURL = displayImageURL(s.octx.MealWindow)
	s.lines = []domain.CartLineItem{item}
	s.octx.VoucherCount = 0
	s.octx.CouponCode = ""
	s.octx.SpecialInstructions = ""
	s.octx.DeliveryNotes = ""
	s.mu.Unlock()
	s.changed()
}

// SetLineQuantity sets the line's quantity; qty <= 0 removes the line.
func (s *Store) SetLineQuantity(id string, qty int) {
	s.mu.Lock()
	if qty <= 0 {
		s.removeLineLocked(id)
	} else {
		for i := range s.lines {
			if s.lines[i].ID == id {
				s.lines[i].Quantity = qty
				break
			}
		}
	}
	s.clampVoucherLocked()
	s.mu.Unlock()
	s.changed()
}

// RemoveLine drops the line with the given id.
func (s *Store) RemoveLine(id string) {
	s.mu.Lock()
	s.removeLineLocked(id)
	s.clampVoucherLocked()
	s.mu.Unlock()
	s.changed()
}

func (s *Store) removeLineLocked(id string) {
	for i := range s.lines {
		if s.lines[i].ID == id {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

// AddAddon attaches addon to the line; if the line already carries the
// same addon its quantity increments instead of duplicating the entry.
func (s *Store) AddAddon(lineID string, addon domain.CartAddon) {
	if addon.Quantity < 1 {
		addon.Quantity = 1
	}
	s.mu.Lock()
	for i := range s.lines {
		if s.lines[i].ID != lineID {
			continue
		}
		found := false
		for j := range s.lines[i].Addons {
			if s.lines[i].Addons[j].AddonID == addon.AddonID {
				s.lines[i].Addons[j].Quantity += addon.Quantity
				found = true
				break
			}
		}
		if !found {
			s.lines[i].Addons = append(s.lines[i].Addons, addon)
		}
		break
	}
	s.mu.Unlock()
	s.changed()
}

// AdjustAddonQuantity sets the addon's quantity; qty <= 0 removes it.
func (s *Store) AdjustAddonQuantity(lineID, addonID string, qty int) {
	s.mu.Lock()
	for i := range s.lines {
		if s.lines[i].ID != lineID {
			continue
		}
		if qty <= 0 {
			s.lines[i].Addons = removeAddon(s.lines[i].Addons, addonID)
		} else {
			for j := range s.lines[i].Addons {
				if s.lines[i].Addons[j].AddonID == addonID {
					s.lines[i].Addons[j].Quantity = qty
					break
				}
			}
		}
		break
	}
	s.mu.Unlock()
	s.changed()
}

// RemoveAddon drops the addon from the line.
func (s *Store) RemoveAddon(lineID, addonID string) {
	s.AdjustAddonQuantity(lineID, addonID, 0)
}

func removeAddon(addons []domain.CartAddon, addonID string) []domain.CartAddon {
	for i := range addons {
		if addons[i].AddonID == addonID {
			return append(addons[:i], addons[i+1:]...)
		}
	}
	return addons
}

// Clear empties the cart and the order context. The snapshot writer
// removes the persisted keys on the next pass.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.octx = domain.OrderContext{}
	s.mu.Unlock()
	s.changed()
}

// SetKitchen selects the kitchen the order is composed against.
func (s *Store) SetKitchen(kitchenID string) {
	s.mu.Lock()
	s.octx.KitchenID = kitchenID
	s.mu.Unlock()
	s.changed()
}

// SetMenuType selects the active menu. Switching away from MEAL_MENU
// drops the meal window.
func (s *Store) SetMenuType(mt domain.MenuType) {
	s.mu.Lock()
	s.octx.MenuType = mt
	if mt != domain.MealMenu {
		s.octx.MealWindow = ""
	}
	s.mu.Unlock()
	s.changed()
}

// SetMealWindow selects lunch or dinner and re-derives line images.
func (s *Store) SetMealWindow(w domain.MealWindow) {
	s.mu.Lock()
	s.octx.MealWindow = w
	for i := range s.lines {
		s.lines[i].ImageURL = displayImageURL(w)
	}
	s.mu.Unlock()
	s.changed()
}

// SetDeliveryAddress selects the delivery address.
func (s *Store) SetDeliveryAddress(addressID string) {
	s.mu.Lock()
	s.octx.DeliveryAddressID = addressID
	s.mu.Unlock()
	s.changed()
}

// SetCoupon sets or clears the coupon code.
func (s *Store) SetCoupon(code string) {
	s.mu.Lock()
	s.octx.CouponCode = code
	s.mu.Unlock()
	s.changed()
}

// SetInstructions sets the kitchen-facing special instructions.
func (s *Store) SetInstructions(text string) {
	s.mu.Lock()
	s.octx.SpecialInstructions = text
	s.mu.Unlock()
	s.changed()
}

// SetDeliveryNotes sets the rider-facing delivery notes.
func (s *Store) SetDeliveryNotes(text string) {
	s.mu.Lock()
	s.octx.DeliveryNotes = text
	s.mu.Unlock()
	s.changed()
}

// SetVoucherCount sets the applied voucher count, clamped to
// [0, voucher-eligible units in the cart].
func (s *Store) SetVoucherCount(n int) {
	s.mu.Lock()
	if n < 0 {
		n = 0
	}
	if max := s.eligibleUnitsLocked(); n > max {
		n = max
	}
	s.octx.VoucherCount = n
	s.mu.Unlock()
	s.changed()
}

func (s *Store) clampVoucherLocked() {
	if max := s.eligibleUnitsLocked(); s.octx.VoucherCount > max {
		s.octx.VoucherCount = max
	}
}

func (s *Store) eligibleUnitsLocked() int {
	units := 0
	for _, l := range s.lines {
		if l.VoucherEligible {
			units += l.Quantity
		}
	}
	return units
}

// VoucherEligibleUnits is the upper bound a voucher count can take for
// the current cart.
func (s *Store) VoucherEligibleUnits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligibleUnitsLocked()
}

// TotalUnits counts line quantities, addons excluded.
func (s *Store) TotalUnits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	units := 0
	for _, l := range s.lines {
		units += l.Quantity
	}
	return units
}

// SubtotalEstimate sums lines and addons locally. Display fallback
// only, never a payment amount.
func (s *Store) SubtotalEstimate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, l := range s.lines {
		total += l.LineTotal()
	}
	return total
}

// Snapshot returns a copy of the lines and the order context.
func (s *Store) Snapshot() ([]domain.CartLineItem, domain.OrderContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]domain.CartLineItem, len(s.lines))
	for i, l := range s.lines {
		l.Addons = cloneAddons(l.Addons)
		lines[i] = l
	}
	return lines, s.octx
}

// IsReadyForSubmission reports whether the composed order has every
// field order creation requires.
func (s *Store) IsReadyForSubmission() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return false
	}
	o := s.octx
	if o.KitchenID == "" || o.MenuType == "" || o.DeliveryAddressID == "" {
		return false
	}
	if o.MenuType == domain.MealMenu && o.MealWindow == "" {
		return false
	}
	return true
}

// BuildOrderRequest projects the cart into the order-creation wire
// shape. Lines and addons whose ids fail the backend identifier format
// are dropped, each with a logged warning; they never reach the wire.
func (s *Store) BuildOrderRequest() domain.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := domain.OrderRequest{
		KitchenID:         s.octx.KitchenID,
		MenuType:          s.octx.MenuType,
		MealWindow:        s.octx.MealWindow,
		DeliveryAddressID: s.octx.DeliveryAddressID,
		VoucherCount:      s.octx.VoucherCount,
		CouponCode:        s.octx.CouponCode,
		Instructions:      s.octx.SpecialInstructions,
		DeliveryNotes:     s.octx.DeliveryNotes,
	}
	for _, l := range s.lines {
		if !domain.ValidID(l.ID) {
			s.logger.Printf("warn: dropping cart line with invalid menu item id %q", l.ID)
			continue
		}
		item := domain.OrderRequestItem{MenuItemID: l.ID, Quantity: l.Quantity}
		for _, a := range l.Addons {
			if !domain.ValidID(a.AddonID) {
				s.logger.Printf("warn: dropping addon with invalid id %q on line %s", a.AddonID, l.ID)
				continue
			}
			item.Addons = append(item.Addons, domain.OrderRequestAddon{AddonID: a.AddonID, Quantity: a.Quantity})
		}
		req.Items = append(req.Items, item)
	}
	return req
}

func cloneAddons(addons []domain.CartAddon) []domain.CartAddon {
	if addons == nil {
		return nil
	}
	out := make([]domain.CartAddon, len(addons))
	copy(out, addons)
	return out
}

// displayImageURL derives the line's display image from the meal
// window. Persisted snapshots never carry image state; restore calls
// back into this.
func displayImageURL(w domain.MealWindow) string {
	if w == domain.Dinner {
		return "assets/meals/dinner.png"
	}
	return "assets/meals/lunch.png"
}
