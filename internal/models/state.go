package models

import (
	"sort"
)

// State is the whole shop as the persistence layer loads and saves it.
// The engine never mutates a loaded State in place; it works on a Clone and
// hands the clone back to be saved.
type State struct {
	Products  map[string]Product   `json:"products"`
	Customers map[string]Customer  `json:"customers"`
	Sales     map[string]Sale      `json:"sales"`
	Ledger    []LoyaltyTransaction `json:"ledger"`
	Payments  []Payment            `json:"payments"`
	Settings  *LoyaltySettings     `json:"settings,omitempty"`
}

// NewState returns an empty, ready to use State.
func NewState() *State {
	return &State{
		Products:  map[string]Product{},
		Customers: map[string]Customer{},
		Sales:     map[string]Sale{},
	}
}

// Clone deep-copies the state so the copy can be changed freely.
func (s *State) Clone() *State {
	out := NewState()
	for id, p := range s.Products {
		out.Products[id] = p
	}
	for id, c := range s.Customers {
		c.SaleIDs = append([]string(nil), c.SaleIDs...)
		out.Customers[id] = c
	}
	for id, sale := range s.Sales {
		out.Sales[id] = sale.Clone()
	}
	out.Ledger = append([]LoyaltyTransaction(nil), s.Ledger...)
	out.Payments = append([]Payment(nil), s.Payments...)
	if s.Settings != nil {
		settings := s.Settings.Clone()
		out.Settings = &settings
	}
	return out
}

// Clone deep-copies a sale.
func (s Sale) Clone() Sale {
	s.Lines = append([]SaleLine(nil), s.Lines...)
	s.OutsideServices = append([]OutsideService(nil), s.OutsideServices...)
	if s.UpdatedAt != nil {
		at := *s.UpdatedAt
		s.UpdatedAt = &at
	}
	return s
}

// CustomerSales returns the customer's sales, oldest first.
func (s *State) CustomerSales(customerID string) []Sale {
	var out []Sale
	for _, sale := range s.Sales {
		if !sale.Customer.WalkIn && sale.Customer.ID == customerID {
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SaleTime.Equal(out[j].SaleTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].SaleTime.Before(out[j].SaleTime)
	})
	return out
}

// CustomerLedger returns the customer's ledger entries in chronological order.
func (s *State) CustomerLedger(customerID string) []LoyaltyTransaction {
	var out []LoyaltyTransaction
	for _, tx := range s.Ledger {
		if tx.CustomerID == customerID {
			out = append(out, tx)
		}
	}
	SortLedger(out)
	return out
}

// SortLedger orders entries by timestamp, then by ledger sequence. Entries
// with neither set apart keep their order.
func SortLedger(entries []LoyaltyTransaction) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].Seq < entries[j].Seq
	})
}

// NextLedgerSeq returns a sequence number above every entry and every
// sale slot in the state.
func (s *State) NextLedgerSeq() int64 {
	var last int64
	for _, tx := range s.Ledger {
		last = max(last, tx.Seq)
	}
	for _, sale := range s.Sales {
		if sale.LedgerSeq > 0 {
			last = max(last, sale.LedgerSeq+1)
		}
	}
	return last + 1
}

// SaleIDInUse reports whether id names a sale or is still referenced by a
// ledger entry.
func (s *State) SaleIDInUse(id string) bool {
	if _, ok := s.Sales[id]; ok {
		return true
	}
	for _, tx := range s.Ledger {
		if tx.SaleID == id {
			return true
		}
	}
	return false
}

// RemoveSaleLedger drops every entry tied to saleID and returns what was removed.
func (s *State) RemoveSaleLedger(saleID string) []LoyaltyTransaction {
	var kept, removed []LoyaltyTransaction
	for _, tx := range s.Ledger {
		if tx.SaleID != "" && tx.SaleID == saleID {
			removed = append(removed, tx)
			continue
		}
		kept = append(kept, tx)
	}
	s.Ledger = kept
	return removed
}

// ReplaceCustomerLedger swaps the customer's entries for entries.
func (s *State) ReplaceCustomerLedger(customerID string, entries []LoyaltyTransaction) {
	kept := make([]LoyaltyTransaction, 0, len(s.Ledger))
	for _, tx := range s.Ledger {
		if tx.CustomerID != customerID {
			kept = append(kept, tx)
		}
	}
	s.Ledger = append(kept, entries...)
}
