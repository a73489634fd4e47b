package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pos-ledger/internal/models"
)

func (h *Handler) GetLoyaltySettings(c *gin.Context) {
	settings, err := h.eng.Settings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// --- PUT: Replace the loyalty program ---
// Sales already made keep the multipliers they were settled with.
func (h *Handler) UpdateLoyaltySettings(c *gin.Context) {
	var settings models.LoyaltySettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if err := h.eng.UpdateSettings(c.Request.Context(), settings); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
