package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer - keyed by the normalized bike number
type Customer struct {
	ID                    string          `gorm:"primaryKey;size:64" json:"id"`
	Name                  string          `json:"name"`
	Phone                 string          `gorm:"size:32" json:"phone"`
	SaleIDs               []string        `gorm:"serializer:json;type:text" json:"sale_ids"`
	FirstSeen             time.Time       `json:"first_seen"`
	LastSeen              time.Time       `json:"last_seen"`
	LoyaltyPoints         int             `json:"loyalty_points"`
	TierID                string          `gorm:"size:64" json:"tier_id"`
	Balance               decimal.Decimal `gorm:"type:decimal(12,2)" json:"balance"`
	ManualVisitAdjustment int             `json:"manual_visit_adjustment"`
}

type LedgerType string

const (
	LedgerEarned         LedgerType = "earned"
	LedgerRedeemed       LedgerType = "redeemed"
	LedgerManualAdd      LedgerType = "manual_add"
	LedgerManualSubtract LedgerType = "manual_subtract"
)

// IsCredit reports whether entries of this type add points.
func (t LedgerType) IsCredit() bool {
	return t == LedgerEarned || t == LedgerManualAdd
}

// Signed returns points with the sign the type implies.
func (t LedgerType) Signed(points int) int {
	if t.IsCredit() {
		return points
	}
	return -points
}

// LoyaltyTransaction - one line of a customer's points ledger
type LoyaltyTransaction struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	CustomerID   string     `gorm:"size:64;index" json:"customer_id"`
	Type         LedgerType `gorm:"size:24" json:"type"`
	Points       int        `json:"points"`
	Timestamp    time.Time  `gorm:"index" json:"timestamp"`
	Seq          int64      `gorm:"index" json:"seq"`
	SaleID       string     `gorm:"size:32;index" json:"sale_id,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	PointsBefore int        `json:"points_before"`
	PointsAfter  int        `json:"points_after"`
	Actor        string     `gorm:"size:50" json:"actor,omitempty"`
}

// Payment - money received against an outstanding balance
type Payment struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	CustomerID string          `gorm:"size:64;index" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Timestamp  time.Time       `json:"timestamp"`
	Notes      string          `json:"notes,omitempty"`
	Actor      string          `gorm:"size:50" json:"actor,omitempty"`
}
