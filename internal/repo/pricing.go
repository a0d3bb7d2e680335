package repo

import (
	"context"
	"time"

	"github.com/cardvault/cardledger/internal/db"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PriceComparison is one supplier's current quote for a card
type PriceComparison struct {
	SupplierID   uint
	SupplierName string
	Price        decimal.Decimal
	LastUpdated  string
}

// RecordPrice stores a supplier's price for a card dated today, replacing
// any earlier quote for the same pair.
func (r *LedgerRepository) RecordPrice(ctx context.Context, supplierID, itemID uint, price decimal.Decimal) (quote *db.PriceQuote, err error) {
	defer r.observe("record_price", time.Now(), &err)

	if err := validateAmount("price", price, true); err != nil {
		return nil, err
	}

	var stored db.PriceQuote
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &db.Supplier{}, entitySupplier, supplierID); err != nil {
			return err
		}
		if err := exists(tx, &db.Item{}, entityItem, itemID); err != nil {
			return err
		}

		q := &db.PriceQuote{
			SupplierID:  supplierID,
			ItemID:      itemID,
			Price:       price,
			LastUpdated: r.today(),
		}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "supplier_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "last_updated"}),
		}).Create(q).Error
		if err != nil {
			return err
		}

		return tx.Where("supplier_id = ? AND item_id = ?", supplierID, itemID).First(&stored).Error
	})
	if err != nil {
		return nil, r.storage("record price", err, zap.Uint("supplier_id", supplierID), zap.Uint("card_id", itemID))
	}

	r.log.Info("Price recorded",
		zap.Uint("supplier_id", supplierID),
		zap.Uint("card_id", itemID),
		zap.String("price", price.String()),
	)
	return &stored, nil
}

// ComparePrices lists every supplier quote for a card, cheapest first
func (r *LedgerRepository) ComparePrices(ctx context.Context, itemID uint) (rows []PriceComparison, err error) {
	defer r.observe("compare_prices", time.Now(), &err)

	if err := exists(r.db.WithContext(ctx), &db.Item{}, entityItem, itemID); err != nil {
		return nil, r.storage("compare prices", err, zap.Uint("card_id", itemID))
	}

	rows = []PriceComparison{}
	err = r.db.WithContext(ctx).
		Table("supplier_prices AS sp").
		Select("s.id AS supplier_id, s.name AS supplier_name, sp.price AS price, sp.last_updated AS last_updated").
		Joins("JOIN suppliers s ON s.id = sp.supplier_id").
		Where("sp.item_id = ?", itemID).
		Order("sp.price ASC, s.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, r.storage("compare prices", err, zap.Uint("card_id", itemID))
	}
	return rows, nil
}
