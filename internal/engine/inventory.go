package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/models"
)

// Products lists the catalog sorted by name.
func (e *Engine) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := e.view(ctx, func(st *models.State, _ time.Time) error {
		for _, p := range st.Products {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

// FindByBarcode looks a product up by its scanned code.
func (e *Engine) FindByBarcode(ctx context.Context, code string) (*models.Product, error) {
	var found *models.Product
	err := e.view(ctx, func(st *models.State, _ time.Time) error {
		for _, p := range st.Products {
			if p.Barcode != "" && p.Barcode == code {
				found = &p
				return nil
			}
		}
		return fmt.Errorf("%w: no product with barcode %s", errs.ErrNotFound, code)
	})
	return found, err
}

// SaveProduct creates or replaces a catalog entry. Quantity changes on an
// existing product go through Restock or a sale, never through here.
func (e *Engine) SaveProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if p.ID == "" || p.Name == "" {
		return nil, fmt.Errorf("%w: product needs an id and a name", errs.ErrInvalidInput)
	}
	if p.Quantity < 0 || p.SalePrice.IsNegative() || p.PurchasePrice.IsNegative() {
		return nil, fmt.Errorf("%w: product quantity and prices must not be negative", errs.ErrInvalidInput)
	}
	err := e.mutate(ctx, "save product", func(st *models.State, _ time.Time) error {
		if existing, ok := st.Products[p.ID]; ok {
			p.Quantity = existing.Quantity
		}
		st.Products[p.ID] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Restock adds qty units of a product.
func (e *Engine) Restock(ctx context.Context, productID string, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive", errs.ErrInvalidInput)
	}
	var out models.Product
	err := e.mutate(ctx, "restock", func(st *models.State, _ time.Time) error {
		p, ok := st.Products[productID]
		if !ok {
			return fmt.Errorf("%w: product %s", errs.ErrNotFound, productID)
		}
		p.Quantity += qty
		st.Products[productID] = p
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("product restocked", zap.String("product_id", productID), zap.Int("quantity", out.Quantity))
	return &out, nil
}

// fillFromCatalog completes cart lines with the catalog name and sale price
// when the till left them blank.
func fillFromCatalog(products map[string]models.Product, lines []models.CartLine) ([]models.CartLine, error) {
	out := make([]models.CartLine, len(lines))
	for i, line := range lines {
		if !line.Item.IsManual() {
			p, ok := products[line.Item.ProductID]
			if !ok {
				return nil, fmt.Errorf("%w: product %s", errs.ErrNotFound, line.Item.ProductID)
			}
			if line.Name == "" {
				line.Name = p.Name
			}
			if line.UnitPrice.IsZero() {
				line.UnitPrice = p.SalePrice
			}
		} else if line.Name == "" {
			line.Name = line.Item.ManualLabel
		}
		out[i] = line
	}
	return out, nil
}

// deductStock takes every catalog line out of stock or fails without touching
// anything. Quantities are totalled per product first.
func deductStock(products map[string]models.Product, lines []models.CartLine) error {
	need := map[string]int{}
	var order []string
	for _, line := range lines {
		if line.Item.IsManual() {
			continue
		}
		id := line.Item.ProductID
		if _, seen := need[id]; !seen {
			order = append(order, id)
		}
		need[id] += line.Quantity
	}

	for _, id := range order {
		p, ok := products[id]
		if !ok {
			return fmt.Errorf("%w: product %s", errs.ErrNotFound, id)
		}
		if p.Quantity < need[id] {
			return &errs.StockError{ProductID: id, Name: p.Name, Requested: need[id], Available: p.Quantity}
		}
	}
	for _, id := range order {
		p := products[id]
		p.Quantity -= need[id]
		products[id] = p
	}
	return nil
}

// restoreStock puts catalog lines back on the shelf. Manual lines and products
// deleted from the catalog since the sale are skipped.
func restoreStock(products map[string]models.Product, lines []models.SaleLine) {
	for _, line := range lines {
		if line.Item.IsManual() {
			continue
		}
		p, ok := products[line.Item.ProductID]
		if !ok {
			continue
		}
		p.Quantity += line.Quantity
		products[line.Item.ProductID] = p
	}
}
