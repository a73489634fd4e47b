package engine

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"go-pos-ledger/internal/models"
)

// TopItem is one best seller line of the sales report.
type TopItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Sold        int             `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// ReportData defines the shape of our analytics response
type ReportData struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalOrders  int             `json:"total_orders"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	TopSelling   []TopItem       `json:"top_selling"`
	RecentSales  []models.Sale   `json:"recent_sales"`
}

// SalesReport sums sales made in [from, to]. A zero bound is open.
func (e *Engine) SalesReport(ctx context.Context, from, to time.Time) (*ReportData, error) {
	data := ReportData{TopSelling: []TopItem{}, RecentSales: []models.Sale{}}
	err := e.view(ctx, func(st *models.State, _ time.Time) error {
		var sales []models.Sale
		for _, s := range st.Sales {
			if !from.IsZero() && s.SaleTime.Before(from) {
				continue
			}
			if !to.IsZero() && s.SaleTime.After(to) {
				continue
			}
			sales = append(sales, s)
		}

		// 1. Revenue and order count
		top := map[string]*TopItem{}
		for _, s := range sales {
			data.TotalRevenue = data.TotalRevenue.Add(s.Total)
			data.TotalOrders++
			for _, l := range s.Lines {
				if l.Item.IsManual() {
					continue
				}
				t, ok := top[l.Item.ProductID]
				if !ok {
					t = &TopItem{ProductID: l.Item.ProductID, ProductName: l.Name}
					top[l.Item.ProductID] = t
				}
				t.Sold += l.Quantity
				t.Revenue = t.Revenue.Add(l.DiscountedUnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
		}
		for _, c := range st.Customers {
			data.Outstanding = data.Outstanding.Add(c.Balance)
		}

		// 2. Top 5 best sellers
		for _, t := range top {
			data.TopSelling = append(data.TopSelling, *t)
		}
		sort.Slice(data.TopSelling, func(i, j int) bool {
			if data.TopSelling[i].Sold != data.TopSelling[j].Sold {
				return data.TopSelling[i].Sold > data.TopSelling[j].Sold
			}
			return data.TopSelling[i].ProductID < data.TopSelling[j].ProductID
		})
		if len(data.TopSelling) > 5 {
			data.TopSelling = data.TopSelling[:5]
		}

		// 3. Last 10 sales, newest first
		sort.Slice(sales, func(i, j int) bool {
			if sales[i].SaleTime.Equal(sales[j].SaleTime) {
				return sales[i].ID > sales[j].ID
			}
			return sales[i].SaleTime.After(sales[j].SaleTime)
		})
		for i := 0; i < len(sales) && i < 10; i++ {
			data.RecentSales = append(data.RecentSales, sales[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// ValuationItem is a single row of the valuation table
type ValuationItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup is one category table of the valuation report
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// StockValuation values the stock on hand at purchase price, grouped by
// category.
func (e *Engine) StockValuation(ctx context.Context) (*ValuationResponse, error) {
	products, err := e.Products(ctx)
	if err != nil {
		return nil, err
	}

	resp := ValuationResponse{Categories: []CategoryGroup{}}
	groups := map[string]*CategoryGroup{}
	var order []string
	for _, p := range products {
		cat := p.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		g, ok := groups[cat]
		if !ok {
			g = &CategoryGroup{CategoryName: cat, Items: []ValuationItem{}}
			groups[cat] = g
			order = append(order, cat)
		}

		total := p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
		g.Items = append(g.Items, ValuationItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			CostPrice: p.PurchasePrice,
			TotalCost: total,
		})
		g.Subtotal = g.Subtotal.Add(total)
		resp.GrandTotal = resp.GrandTotal.Add(total)
	}

	sort.Strings(order)
	for _, cat := range order {
		resp.Categories = append(resp.Categories, *groups[cat])
	}
	return &resp, nil
}
