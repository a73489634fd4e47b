package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-pos-ledger/internal/auth"
	"go-pos-ledger/internal/engine"
	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/middleware"
)

// Handler serves the till and back office over the sale engine.
type Handler struct {
	eng *engine.Engine
	log *zap.Logger
	loc *time.Location
}

// New builds the handlers. loc is the shop's time zone for date-only query
// parameters.
func New(eng *engine.Engine, log *zap.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{eng: eng, log: log, loc: loc}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter, tokens *auth.Tokens) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))
	{
		// STAFF & ADMIN
		api.GET("/products", h.GetProducts)
		api.GET("/products/scan/:barcode", h.ScanProduct)

		api.POST("/sales", h.Checkout)
		api.GET("/sales/:id", h.GetSale)
		api.PUT("/sales/:id", h.UpdateSale)
		api.POST("/sales/:id/reverse", h.ReverseSale)

		api.GET("/customers/:id", h.GetCustomer)
		api.POST("/customers/:id/payments", h.RecordPayment)
		api.POST("/customers/:id/points", h.AdjustPoints)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.POST("/products/:id/restock", h.RestockProduct)
			admin.PUT("/customers/:id/visits", h.AdjustVisits)
			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
			admin.GET("/settings/loyalty", h.GetLoyaltySettings)
			admin.PUT("/settings/loyalty", h.UpdateLoyaltySettings)
		}
	}
}

// fail answers with the status that matches err.
func (h *Handler) fail(c *gin.Context, err error) {
	code := errs.Code(err)
	status := http.StatusInternalServerError
	switch code {
	case "not_found":
		status = http.StatusNotFound
	case "invalid_input", "invalid_discount":
		status = http.StatusBadRequest
	case "insufficient_stock", "insufficient_loyalty_balance", "payment_exceeds_balance", "sale_closed":
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_input"})
}
