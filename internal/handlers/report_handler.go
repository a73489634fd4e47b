package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-pos-ledger/internal/models"
)

// --- GET: /api/reports ---
// Optional ?from=YYYY-MM-DD&to=YYYY-MM-DD, both days inclusive.
func (h *Handler) GetSalesReport(c *gin.Context) {
	var from, to time.Time
	if v := c.Query("from"); v != "" {
		day, err := time.ParseInLocation(models.DateLayout, v, h.loc)
		if err != nil {
			badRequest(c, "from must be YYYY-MM-DD")
			return
		}
		from = day
	}
	if v := c.Query("to"); v != "" {
		day, err := time.ParseInLocation(models.DateLayout, v, h.loc)
		if err != nil {
			badRequest(c, "to must be YYYY-MM-DD")
			return
		}
		to = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	data, err := h.eng.SalesReport(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// --- GET: /api/reports/valuation ---
func (h *Handler) GetStockValuation(c *gin.Context) {
	data, err := h.eng.StockValuation(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
