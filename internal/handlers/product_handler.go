package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pos-ledger/internal/models"
)

// --- GET: List all products ---
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.eng.Products(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: Look a product up by its scanned barcode ---
func (h *Handler) ScanProduct(c *gin.Context) {
	product, err := h.eng.FindByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var p models.Product

	// 1. Parse JSON Input
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Save through the engine
	saved, err := h.eng.SaveProduct(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// --- PUT: Update name, category or prices ---
// Stock only moves through sales and restocks.
func (h *Handler) UpdateProduct(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	p.ID = c.Param("id")

	saved, err := h.eng.SaveProduct(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": saved})
}

type restockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// --- POST: Receive stock ---
func (h *Handler) RestockProduct(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	product, err := h.eng.Restock(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
