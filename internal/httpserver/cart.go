package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiffinbox/internal/domain"
)

type addonInput struct {
	AddonID   string `json:"addonId" binding:"required"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type lineInput struct {
	ID              string       `json:"id" binding:"required"`
	Name            string       `json:"name"`
	UnitPrice       int64        `json:"unitPrice"`
	Quantity        int          `json:"quantity"`
	VoucherEligible *bool        `json:"voucherEligible"`
	Addons          []addonInput `json:"addons"`
}

func (in lineInput) toDomain() domain.CartLineItem {
	item := domain.CartLineItem{
		ID:              in.ID,
		Name:            in.Name,
		UnitPrice:       in.UnitPrice,
		Quantity:        in.Quantity,
		VoucherEligible: true,
	}
	if in.VoucherEligible != nil {
		item.VoucherEligible = *in.VoucherEligible
	}
	for _, a := range in.Addons {
		item.Addons = append(item.Addons, domain.CartAddon{
			AddonID:   a.AddonID,
			Name:      a.Name,
			Quantity:  a.Quantity,
			UnitPrice: a.UnitPrice,
		})
	}
	return item
}

type cartLineView struct {
	domain.CartLineItem
	ImageURL string `json:"imageUrl,omitempty"`
}

func cartStateHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, octx := deps.Store.Snapshot()
		views := make([]cartLineView, 0, len(lines))
		for _, l := range lines {
			views = append(views, cartLineView{CartLineItem: l, ImageURL: l.ImageURL})
		}
		resp := gin.H{
			"lines":            views,
			"context":          octx,
			"totalUnits":       deps.Store.TotalUnits(),
			"subtotalEstimate": deps.Store.SubtotalEstimate(),
			"ready":            deps.Store.IsReadyForSubmission(),
		}
		if notice, ok := deps.Pricing.TakeNotice(); ok {
			resp["notice"] = notice
		}
		c.JSON(http.StatusOK, resp)
	}
}

func addLineHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in lineInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		deps.Store.AddLine(in.toDomain())
		c.JSON(http.StatusOK, gin.H{"totalUnits": deps.Store.TotalUnits()})
	}
}

// replaceCartHandler swaps the whole cart for one item in a single
// transition, so switching meals never shows an empty-cart flash or
// races an addon edit.
func replaceCartHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in lineInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		deps.Store.ReplaceAll(in.toDomain())
		c.JSON(http.StatusOK, gin.H{"totalUnits": deps.Store.TotalUnits()})
	}
}

func setLineQuantityHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Quantity int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		deps.Store.SetLineQuantity(c.Param("id"), in.Quantity)
		c.JSON(http.StatusOK, gin.H{"totalUnits": deps.Store.TotalUnits()})
	}
}

func removeLineHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps.Store.RemoveLine(c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"totalUnits": deps.Store.TotalUnits()})
	}
}

func clearCartHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps.Store.Clear()
		c.JSON(http.StatusOK, gin.H{"totalUnits": 0})
	}
}

func addAddonHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in addonInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		deps.Store.AddAddon(c.Param("id"), domain.CartAddon{
			AddonID:   in.AddonID,
			Name:      in.Name,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
		})
		c.JSON(http.StatusOK, gin.H{"subtotalEstimate": deps.Store.SubtotalEstimate()})
	}
}

func adjustAddonHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Quantity int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		deps.Store.AdjustAddonQuantity(c.Param("id"), c.Param("addonId"), in.Quantity)
		c.JSON(http.StatusOK, gin.H{"subtotalEstimate": deps.Store.SubtotalEstimate()})
	}
}

func removeAddonHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps.Store.RemoveAddon(c.Param("id"), c.Param("addonId"))
		c.JSON(http.StatusOK, gin.H{"subtotalEstimate": deps.Store.SubtotalEstimate()})
	}
}

type contextInput struct {
	KitchenID           *string `json:"kitchenId"`
	MenuType            *string `json:"menuType"`
	MealWindow          *string `json:"mealWindow"`
	DeliveryAddressID   *string `json:"deliveryAddressId"`
	CouponCode          *string `json:"couponCode"`
	SpecialInstructions *string `json:"specialInstructions"`
	DeliveryNotes       *string `json:"deliveryNotes"`
}

func updateContextHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in contextInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		if in.MenuType != nil {
			mt := domain.MenuType(*in.MenuType)
			if mt != domain.MealMenu && mt != domain.OnDemandMenu {
				c.JSON(http.StatusBadRequest, gin.H{"message": "unknown menu type"})
				return
			}
			deps.Store.SetMenuType(mt)
		}
		if in.MealWindow != nil {
			w := domain.MealWindow(*in.MealWindow)
			if w != domain.Lunch && w != domain.Dinner {
				c.JSON(http.StatusBadRequest, gin.H{"message": "unknown meal window"})
				return
			}
			deps.Store.SetMealWindow(w)
		}
		if in.KitchenID != nil {
			deps.Store.SetKitchen(*in.KitchenID)
		}
		if in.DeliveryAddressID != nil {
			deps.Store.SetDeliveryAddress(*in.DeliveryAddressID)
		}
		if in.CouponCode != nil {
			deps.Store.SetCoupon(*in.CouponCode)
		}
		if in.SpecialInstructions != nil {
			deps.Store.SetInstructions(*in.SpecialInstructions)
		}
		if in.DeliveryNotes != nil {
			deps.Store.SetDeliveryNotes(*in.DeliveryNotes)
		}
		_, octx := deps.Store.Snapshot()
		c.JSON(http.StatusOK, gin.H{"context": octx, "ready": deps.Store.IsReadyForSubmission()})
	}
}

func incrementVoucherHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps.Pricing.IncrementVoucher()
		_, octx := deps.Store.Snapshot()
		c.JSON(http.StatusOK, gin.H{"voucherCount": octx.VoucherCount})
	}
}

func decrementVoucherHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps.Pricing.DecrementVoucher()
		_, octx := deps.Store.Snapshot()
		c.JSON(http.StatusOK, gin.H{"voucherCount": octx.VoucherCount})
	}
}
