package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pos-ledger/internal/engine"
)

// --- POST: Checkout ---
func (h *Handler) Checkout(c *gin.Context) {
	var req engine.SaleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	sale, err := h.eng.CreateSale(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (h *Handler) GetSale(c *gin.Context) {
	sale, err := h.eng.Sale(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// --- PUT: Edit a committed sale ---
func (h *Handler) UpdateSale(c *gin.Context) {
	var req engine.SaleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	sale, err := h.eng.UpdateSale(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

type reverseRequest struct {
	Lines []int `json:"lines"`
}

// --- POST: Return some or all lines ---
// An empty body or an empty list returns the whole sale.
func (h *Handler) ReverseSale(c *gin.Context) {
	var req reverseRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request body")
		return
	}

	res, err := h.eng.ReverseSale(c.Request.Context(), c.Param("id"), req.Lines)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
