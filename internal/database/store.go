package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-pos-ledger/internal/models"
)

// GormStore keeps the shop state in SQL tables. Save rewrites every table in
// one transaction, so a load always sees one whole state or the previous one.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and returns a store over db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Load(ctx context.Context) (*models.State, error) {
	db := s.db.WithContext(ctx)
	st := models.NewState()

	var products []models.Product
	if err := db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, p := range products {
		st.Products[p.ID] = p
	}

	var customers []models.Customer
	if err := db.Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	for _, c := range customers {
		st.Customers[c.ID] = c
	}

	var sales []models.Sale
	err := db.Preload("Lines", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position")
	}).Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	for _, sale := range sales {
		st.Sales[sale.ID] = sale
	}

	if err := db.Order("timestamp, seq, id").Find(&st.Ledger).Error; err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if err := db.Order("timestamp, id").Find(&st.Payments).Error; err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	var row settingsRow
	err = db.First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("load settings: %w", err)
	default:
		st.Settings = &row.Program
	}
	return st, nil
}

func (s *GormStore) Save(ctx context.Context, st *models.State) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{
			&models.SaleLine{}, &models.Sale{}, &models.LoyaltyTransaction{},
			&models.Payment{}, &models.Customer{}, &models.Product{}, &settingsRow{},
		} {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return fmt.Errorf("clear %T: %w", table, err)
			}
		}

		products := values(st.Products)
		sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
		if err := insert(tx, products); err != nil {
			return fmt.Errorf("save products: %w", err)
		}

		customers := values(st.Customers)
		sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
		if err := insert(tx, customers); err != nil {
			return fmt.Errorf("save customers: %w", err)
		}

		sales := values(st.Sales)
		sort.Slice(sales, func(i, j int) bool { return sales[i].ID < sales[j].ID })
		var lines []models.SaleLine
		for _, sale := range sales {
			for _, l := range sale.Lines {
				l.ID = 0
				l.SaleID = sale.ID
				lines = append(lines, l)
			}
		}
		if len(sales) > 0 {
			if err := tx.Omit(clause.Associations).Create(&sales).Error; err != nil {
				return fmt.Errorf("save sales: %w", err)
			}
		}
		if err := insert(tx, lines); err != nil {
			return fmt.Errorf("save sale lines: %w", err)
		}

		if err := insert(tx, st.Ledger); err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
		if err := insert(tx, st.Payments); err != nil {
			return fmt.Errorf("save payments: %w", err)
		}

		if st.Settings != nil {
			if err := tx.Create(&settingsRow{ID: 1, Program: *st.Settings}).Error; err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
		}
		return nil
	})
}

// insert creates rows, skipping empty slices gorm would reject.
func insert[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(&rows, 200).Error
}

func values[T any](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
