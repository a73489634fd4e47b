package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- GET: Account, tier and points about to lapse ---
func (h *Handler) GetCustomer(c *gin.Context) {
	summary, err := h.eng.CustomerSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

// --- POST: Pay down an outstanding balance ---
func (h *Handler) RecordPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	payment, err := h.eng.RecordPayment(c.Request.Context(), c.Param("id"), req.Amount, req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

type pointsRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// --- POST: Add or remove points by hand ---
func (h *Handler) AdjustPoints(c *gin.Context) {
	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "A non-zero delta and a reason are required")
		return
	}

	tx, err := h.eng.AdjustPoints(c.Request.Context(), c.Param("id"), req.Delta, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

type visitsRequest struct {
	Adjustment int `json:"adjustment"`
}

// --- PUT: Count visits made before the system was in place ---
func (h *Handler) AdjustVisits(c *gin.Context) {
	var req visitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	customer, err := h.eng.AdjustVisits(c.Request.Context(), c.Param("id"), req.Adjustment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}
