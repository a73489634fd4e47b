package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product - The Inventory
type Product struct {
	ID            string          `gorm:"primaryKey;size:64" json:"id"`
	Barcode       string          `gorm:"index;size:64" json:"barcode"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	SubCategory   string          `json:"sub_category"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(12,2)" json:"sale_price"`
}

// CartLine - what the till sends for one row of the cart
type CartLine struct {
	Item      ProductRef      `json:"item"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Discount  Discount        `json:"discount"`
}

// OutsideService is work sent out to a third party and billed through.
type OutsideService struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPartial PaymentStatus = "Partial"
	PaymentUnpaid  PaymentStatus = "Unpaid"
)

// SaleStatus tracks where a sale is in its lifecycle. A fully reversed sale
// is deleted, so it has no status of its own.
type SaleStatus string

const (
	SaleCommitted         SaleStatus = "committed"
	SaleUpdated           SaleStatus = "updated"
	SalePartiallyReversed SaleStatus = "partially_reversed"
)

// Sale - The Transaction Header
type Sale struct {
	ID       string      `gorm:"primaryKey;size:32" json:"id"`
	Customer CustomerRef `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Lines    []SaleLine  `gorm:"foreignKey:SaleID" json:"lines"`

	Subtotal              decimal.Decimal  `gorm:"type:decimal(12,2)" json:"subtotal"`
	ItemDiscountTotal     decimal.Decimal  `gorm:"type:decimal(12,2)" json:"item_discount_total"`
	TuningCharge          decimal.Decimal  `gorm:"type:decimal(12,2)" json:"tuning_charge"`
	LaborCharge           decimal.Decimal  `gorm:"type:decimal(12,2)" json:"labor_charge"`
	OutsideServices       []OutsideService `gorm:"serializer:json;type:text" json:"outside_services"`
	OutsideServicesTotal  decimal.Decimal  `gorm:"type:decimal(12,2)" json:"outside_services_total"`
	OverallDiscount       Discount         `gorm:"embedded;embeddedPrefix:overall_discount_" json:"overall_discount"`
	OverallDiscountAmount decimal.Decimal  `gorm:"type:decimal(12,2)" json:"overall_discount_amount"`
	LoyaltyDiscount       decimal.Decimal  `gorm:"type:decimal(12,2)" json:"loyalty_discount"`
	Total                 decimal.Decimal  `gorm:"type:decimal(12,2)" json:"total"`

	AmountPaid    decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount_paid"`
	PaymentStatus PaymentStatus   `gorm:"size:16" json:"payment_status"`
	BalanceDue    decimal.Decimal `gorm:"type:decimal(12,2)" json:"balance_due"`
	PriorBalance  decimal.Decimal `gorm:"type:decimal(12,2)" json:"prior_balance"`

	PointsEarned   int `json:"points_earned"`
	PointsRedeemed int `json:"points_redeemed"`
	PointsBalance  int `json:"points_balance"`

	// Snapshot of the multipliers in force at sale time
	TierName            string  `json:"tier_name"`
	TierMultiplier      float64 `json:"tier_multiplier"`
	PromotionName       string  `json:"promotion_name,omitempty"`
	PromotionMultiplier float64 `json:"promotion_multiplier"`

	Status    SaleStatus `gorm:"size:24" json:"status"`
	SaleTime  time.Time  `gorm:"index" json:"sale_time"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	CreatedBy string     `gorm:"size:50" json:"created_by"`

	// LedgerSeq is the ledger slot of the sale's entries: earned at
	// LedgerSeq, redeemed at LedgerSeq+1. An edit keeps the slot.
	LedgerSeq int64 `json:"-"`
}

// SaleLine - one item of a committed sale
type SaleLine struct {
	ID                  uint            `gorm:"primaryKey" json:"-"`
	SaleID              string          `gorm:"size:32;index" json:"-"`
	Position            int             `json:"position"`
	Item                ProductRef      `gorm:"embedded;embeddedPrefix:item_" json:"item"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	Discount            Discount        `gorm:"embedded;embeddedPrefix:discount_" json:"discount"`
	DiscountedUnitPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"discounted_unit_price"`
}

// CartLine turns a committed line back into the cart row it came from.
func (l SaleLine) CartLine() CartLine {
	return CartLine{
		Item:      l.Item,
		Name:      l.Name,
		UnitPrice: l.UnitPrice,
		Quantity:  l.Quantity,
		Discount:  l.Discount,
	}
}
