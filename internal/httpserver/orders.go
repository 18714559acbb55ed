package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tiffinbox/internal/domain"
	"tiffinbox/internal/preload"
)

// listOrdersHandler serves the cached orders collection when fresh and
// falls back to a direct fetch otherwise. Only the unfiltered list is
// cached; filtered queries always go to the backend.
func listOrdersHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.Query("status")
		if status == "" {
			if cached, ok := deps.Cache.Get(preload.KeyOrders); ok {
				if orders, ok := cached.([]domain.Order); ok {
					c.JSON(http.StatusOK, gin.H{"orders": orders, "cached": true})
					return
				}
			}
		}
		orders, err := deps.Orders.ListOrders(c.Request.Context(), status)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
			return
		}
		if status == "" {
			deps.Cache.Set(preload.KeyOrders, orders, 60*time.Second)
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders, "cached": false})
	}
}

func listNotesHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		notes, err := deps.Notes.List(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"notes": notes})
	}
}

func appendNoteHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Note string `json:"note" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		if strings.TrimSpace(in.Note) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "note required"})
			return
		}
		if err := deps.Notes.Append(c.Request.Context(), c.Param("id"), in.Note); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		notes, err := deps.Notes.List(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"notes": notes})
	}
}
