package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tiffinbox/internal/checkout"
	"tiffinbox/internal/domain"
)

func submitHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		outcome, err := deps.Checkout.Submit(c.Request.Context())
		if err != nil {
			switch {
			case errors.Is(err, checkout.ErrSubmissionInFlight):
				c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
			case errors.Is(err, domain.ErrNotReady):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			case errors.Is(err, domain.ErrVoucherCutoff):
				c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
			default:
				// Creation errors pass through verbatim; the cart is
				// intact and a full retry is safe.
				c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, outcome)
	}
}

func retryPaymentHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		outcome, err := deps.Checkout.RetryPayment(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, outcome)
	}
}

func pricingStateHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := deps.Pricing.CurrentState()
		resp := gin.H{"pricing": st}
		if notice, ok := deps.Pricing.TakeNotice(); ok {
			resp["notice"] = notice
		}
		c.JSON(http.StatusOK, resp)
	}
}

func refreshPricingHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps.Pricing.Reconcile(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"pricing": deps.Pricing.CurrentState()})
	}
}

func preloadHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Outlives the request on purpose; preload is fire-and-forget.
		deps.Preloader.Start(context.Background())
		c.JSON(http.StatusAccepted, gin.H{"status": "preloading"})
	}
}

func logoutHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps.Preloader.Reset()
		deps.Store.Clear()
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	}
}
