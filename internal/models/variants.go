package models

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DiscountKind tags how a Discount value is applied.
type DiscountKind string

const (
	DiscountFixed      DiscountKind = "fixed"
	DiscountPercentage DiscountKind = "percentage"
)

// Discount is either a fixed amount off or a percentage off a base amount.
// The zero value is "no discount".
type Discount struct {
	Kind  DiscountKind    `gorm:"size:16" json:"kind" yaml:"kind"`
	Value decimal.Decimal `gorm:"type:decimal(12,2)" json:"value" yaml:"value"`
}

// FixedDiscount takes amount off the base.
func FixedDiscount(amount decimal.Decimal) Discount {
	return Discount{Kind: DiscountFixed, Value: amount}
}

// PercentDiscount takes pct percent of the base.
func PercentDiscount(pct decimal.Decimal) Discount {
	return Discount{Kind: DiscountPercentage, Value: pct}
}

// AmountOf returns how much the discount takes off base.
func (d Discount) AmountOf(base decimal.Decimal) decimal.Decimal {
	switch d.Kind {
	case DiscountFixed:
		return d.Value
	case DiscountPercentage:
		return base.Mul(d.Value).Div(decimal.NewFromInt(100))
	default:
		return decimal.Zero
	}
}

// IsZero reports whether the discount takes nothing off.
func (d Discount) IsZero() bool {
	return d.Kind == "" || d.Value.IsZero()
}

// ProductRef points a cart line at a catalog product, or marks it as a
// manual line with no inventory backing.
type ProductRef struct {
	ProductID   string `gorm:"size:64" json:"product_id,omitempty"`
	ManualLabel string `gorm:"size:128" json:"manual_label,omitempty"`
}

// CatalogItem references a stocked product.
func CatalogItem(productID string) ProductRef {
	return ProductRef{ProductID: productID}
}

// ManualItem references an ad-hoc line typed in at the till.
func ManualItem(label string) ProductRef {
	return ProductRef{ManualLabel: label}
}

// IsManual reports whether the line has no catalog product behind it.
func (r ProductRef) IsManual() bool {
	return r.ProductID == ""
}

// CustomerRef identifies the account a sale is booked against.
type CustomerRef struct {
	ID     string `gorm:"size:64;index" json:"id,omitempty"`
	WalkIn bool   `json:"walk_in,omitempty"`
}

// Identified references a known customer by bike/asset number.
func Identified(id string) CustomerRef {
	return CustomerRef{ID: NormalizeCustomerID(id)}
}

// WalkIn references an anonymous customer with no account.
func WalkIn() CustomerRef {
	return CustomerRef{WalkIn: true}
}

// NormalizeCustomerID turns a typed bike number such as " ab 12-34 " into its
// business key form "AB12-34".
func NormalizeCustomerID(id string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, id))
}
