package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"go-pos-ledger/internal/errs"
)

// DateLayout is how promotion dates are written.
const DateLayout = "2006-01-02"

type PeriodUnit string

const (
	PeriodDays   PeriodUnit = "days"
	PeriodWeeks  PeriodUnit = "weeks"
	PeriodMonths PeriodUnit = "months"
	PeriodYears  PeriodUnit = "years"
)

// Period is a calendar-aware span such as "6 months".
type Period struct {
	Value int        `json:"value" yaml:"value"`
	Unit  PeriodUnit `json:"unit" yaml:"unit"`
}

// AddTo moves t forward by the period (backward for negative n).
func (p Period) AddTo(t time.Time, n int) time.Time {
	v := p.Value * n
	switch p.Unit {
	case PeriodDays:
		return t.AddDate(0, 0, v)
	case PeriodWeeks:
		return t.AddDate(0, 0, 7*v)
	case PeriodMonths:
		return t.AddDate(0, v, 0)
	case PeriodYears:
		return t.AddDate(v, 0, 0)
	default:
		return t
	}
}

// Before returns t minus the period.
func (p Period) Before(t time.Time) time.Time { return p.AddTo(t, -1) }

// After returns t plus the period.
func (p Period) After(t time.Time) time.Time { return p.AddTo(t, 1) }

func (p Period) validate(field string) error {
	if p.Value <= 0 {
		return fmt.Errorf("%w: %s must be positive", errs.ErrInvalidInput, field)
	}
	switch p.Unit {
	case PeriodDays, PeriodWeeks, PeriodMonths, PeriodYears:
		return nil
	}
	return fmt.Errorf("%w: %s has unknown unit %q", errs.ErrInvalidInput, field, p.Unit)
}

// EarningRule maps a spend band [MinSpend, MaxSpend) to a points rate.
// A nil MaxSpend leaves the band open-ended.
type EarningRule struct {
	MinSpend         decimal.Decimal  `json:"min_spend" yaml:"min_spend"`
	MaxSpend         *decimal.Decimal `json:"max_spend" yaml:"max_spend"`
	PointsPerHundred float64          `json:"points_per_hundred" yaml:"points_per_hundred"`
}

// Contains reports whether spend falls inside the band.
func (r EarningRule) Contains(spend decimal.Decimal) bool {
	if spend.LessThan(r.MinSpend) {
		return false
	}
	return r.MaxSpend == nil || spend.LessThan(*r.MaxSpend)
}

type RedemptionMethod string

const (
	RedeemFixedValue RedemptionMethod = "fixedValue"
	RedeemPercentage RedemptionMethod = "percentage"
)

// RedemptionRule converts Points points into Value currency (fixedValue) or
// Value percent of the bill (percentage).
type RedemptionRule struct {
	Method RedemptionMethod `json:"method" yaml:"method"`
	Points int              `json:"points" yaml:"points"`
	Value  decimal.Decimal  `json:"value" yaml:"value"`
}

// Promotion multiplies earned points on every day from StartDate to EndDate
// inclusive.
type Promotion struct {
	Name       string  `json:"name" yaml:"name"`
	StartDate  string  `json:"start_date" yaml:"start_date"`
	EndDate    string  `json:"end_date" yaml:"end_date"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
}

// Covers reports whether the calendar day of t, in t's location, is inside
// the promotion. Unparseable dates never match.
func (p Promotion) Covers(t time.Time) bool {
	start, err := time.ParseInLocation(DateLayout, p.StartDate, t.Location())
	if err != nil {
		return false
	}
	end, err := time.ParseInLocation(DateLayout, p.EndDate, t.Location())
	if err != nil {
		return false
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return !day.Before(start) && !day.After(end)
}

// CustomerTier is a loyalty level earned by visits and spend inside a rolling
// window. Rank 0 is the base tier everybody holds.
type CustomerTier struct {
	ID               string          `json:"id" yaml:"id"`
	Name             string          `json:"name" yaml:"name"`
	MinVisits        int             `json:"min_visits" yaml:"min_visits"`
	MinSpend         decimal.Decimal `json:"min_spend" yaml:"min_spend"`
	Period           Period          `json:"period" yaml:"period"`
	PointsMultiplier float64         `json:"points_multiplier" yaml:"points_multiplier"`
	Rank             int             `json:"rank" yaml:"rank"`
}

// ExpiryPolicy drives the "points expiring soon" estimate.
type ExpiryPolicy struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	PointsLifespan   Period `json:"points_lifespan" yaml:"points_lifespan"`
	ReminderPeriod   Period `json:"reminder_period" yaml:"reminder_period"`
	InactivityPeriod Period `json:"inactivity_period" yaml:"inactivity_period"`
}

// LoyaltySettings is the whole loyalty program.
type LoyaltySettings struct {
	EarningRules []EarningRule  `json:"earning_rules" yaml:"earning_rules"`
	Redemption   RedemptionRule `json:"redemption" yaml:"redemption"`
	Promotions   []Promotion    `json:"promotions" yaml:"promotions"`
	Tiers        []CustomerTier `json:"tiers" yaml:"tiers"`
	Expiry       ExpiryPolicy   `json:"expiry" yaml:"expiry"`
}

// Validate checks the program can be evaluated without surprises.
func (s LoyaltySettings) Validate() error {
	for i, r := range s.EarningRules {
		if r.MinSpend.IsNegative() || r.PointsPerHundred < 0 {
			return fmt.Errorf("%w: earning rule %d has negative values", errs.ErrInvalidInput, i)
		}
		if r.MaxSpend != nil && !r.MaxSpend.GreaterThan(r.MinSpend) {
			return fmt.Errorf("%w: earning rule %d max spend must exceed min spend", errs.ErrInvalidInput, i)
		}
	}

	switch s.Redemption.Method {
	case RedeemFixedValue, RedeemPercentage:
	default:
		return fmt.Errorf("%w: unknown redemption method %q", errs.ErrInvalidInput, s.Redemption.Method)
	}
	if s.Redemption.Points <= 0 || s.Redemption.Value.IsNegative() {
		return fmt.Errorf("%w: redemption rule needs positive points and a non-negative value", errs.ErrInvalidInput)
	}

	for _, p := range s.Promotions {
		start, err := time.Parse(DateLayout, p.StartDate)
		if err != nil {
			return fmt.Errorf("%w: promotion %q start date: %v", errs.ErrInvalidInput, p.Name, err)
		}
		end, err := time.Parse(DateLayout, p.EndDate)
		if err != nil {
			return fmt.Errorf("%w: promotion %q end date: %v", errs.ErrInvalidInput, p.Name, err)
		}
		if end.Before(start) {
			return fmt.Errorf("%w: promotion %q ends before it starts", errs.ErrInvalidInput, p.Name)
		}
		if p.Multiplier <= 1 {
			return fmt.Errorf("%w: promotion %q multiplier must be greater than 1", errs.ErrInvalidInput, p.Name)
		}
	}

	ranks := make(map[int]bool, len(s.Tiers))
	hasBase := false
	for _, t := range s.Tiers {
		if t.ID == "" {
			return fmt.Errorf("%w: tier %q has no id", errs.ErrInvalidInput, t.Name)
		}
		if ranks[t.Rank] {
			return fmt.Errorf("%w: duplicate tier rank %d", errs.ErrInvalidInput, t.Rank)
		}
		ranks[t.Rank] = true
		if t.PointsMultiplier <= 0 {
			return fmt.Errorf("%w: tier %q multiplier must be positive", errs.ErrInvalidInput, t.Name)
		}
		if t.Rank == 0 {
			if t.MinVisits != 0 || !t.MinSpend.IsZero() {
				return fmt.Errorf("%w: base tier %q must have no requirements", errs.ErrInvalidInput, t.Name)
			}
			hasBase = true
			continue
		}
		if err := t.Period.validate("tier " + t.Name + " period"); err != nil {
			return err
		}
	}
	if !hasBase {
		return fmt.Errorf("%w: a rank 0 base tier is required", errs.ErrInvalidInput)
	}

	if s.Expiry.Enabled {
		for field, p := range map[string]Period{
			"points lifespan":   s.Expiry.PointsLifespan,
			"reminder period":   s.Expiry.ReminderPeriod,
			"inactivity period": s.Expiry.InactivityPeriod,
		} {
			if err := p.validate(field); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone deep-copies the settings.
func (s LoyaltySettings) Clone() LoyaltySettings {
	out := s
	out.EarningRules = make([]EarningRule, len(s.EarningRules))
	for i, r := range s.EarningRules {
		if r.MaxSpend != nil {
			upper := *r.MaxSpend
			r.MaxSpend = &upper
		}
		out.EarningRules[i] = r
	}
	out.Promotions = append([]Promotion(nil), s.Promotions...)
	out.Tiers = append([]CustomerTier(nil), s.Tiers...)
	return out
}

// DefaultLoyaltySettings is a single flat earning band with a base tier,
// used when no program file is configured.
func DefaultLoyaltySettings() LoyaltySettings {
	return LoyaltySettings{
		EarningRules: []EarningRule{{MinSpend: decimal.Zero, PointsPerHundred: 1}},
		Redemption:   RedemptionRule{Method: RedeemFixedValue, Points: 1, Value: decimal.NewFromInt(1)},
		Tiers: []CustomerTier{{
			ID: "standard", Name: "Standard", PointsMultiplier: 1, Rank: 0,
			Period: Period{Value: 1, Unit: PeriodYears},
		}},
	}
}
