package repo

import (
	"context"
	"errors"
	"time"

	"github.com/cardvault/cardledger/internal/db"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleRequest describes a sale to record
type SaleRequest struct {
	ItemID     uint
	SupplierID uint
	Quantity   int
	Price      decimal.Decimal
}

// SalesFilter narrows a sales report. Zero fields impose no constraint.
type SalesFilter struct {
	SupplierName string
	From         time.Time
	To           time.Time
}

// SaleRow is one line of a sales report
type SaleRow struct {
	ID           uint
	ItemID       uint
	ItemName     string
	SupplierID   uint
	SupplierName string
	Quantity     int
	SaleDate     string
	SalePrice    decimal.Decimal
	Total        decimal.Decimal
}

// SalesReport holds filtered sales, newest first, and their summed totals
type SalesReport struct {
	Rows  []SaleRow
	Total decimal.Decimal
}

// RecordSale takes quantity units of a card out of stock and records the
// sale. Either the stock change, the sale row and its journal entry are all
// committed or none of them are.
func (r *LedgerRepository) RecordSale(ctx context.Context, req SaleRequest) (id uint, err error) {
	defer r.observe("record_sale", time.Now(), &err)

	if req.Quantity <= 0 {
		return 0, invalid("quantity", "must be a positive whole number")
	}
	if err := validateAmount("sale price", req.Price, false); err != nil {
		return 0, err
	}

	var sale *db.Sale
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item db.Item
		if err := tx.Select("id", "quantity").First(&item, req.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(entityItem, req.ItemID)
			}
			return err
		}
		if err := exists(tx, &db.Supplier{}, entitySupplier, req.SupplierID); err != nil {
			return err
		}
		if item.Quantity < req.Quantity {
			return &InsufficientStockError{ItemID: req.ItemID, Current: item.Quantity, Requested: req.Quantity}
		}

		res := tx.Model(&db.Item{}).
			Where("id = ? AND quantity >= ?", req.ItemID, req.Quantity).
			Updates(map[string]interface{}{"quantity": gorm.Expr("quantity - ?", req.Quantity), "updated_at": r.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &InsufficientStockError{ItemID: req.ItemID, Current: item.Quantity, Requested: req.Quantity}
		}

		sale = &db.Sale{
			ItemID:     req.ItemID,
			SupplierID: req.SupplierID,
			Quantity:   req.Quantity,
			SaleDate:   r.today(),
			SalePrice:  req.Price,
		}
		if err := tx.Omit(clause.Associations).Create(sale).Error; err != nil {
			return err
		}

		return r.journal(tx, req.ItemID, sale.ID, db.MovementSale, item.Quantity, -req.Quantity)
	})
	if err != nil {
		var short *InsufficientStockError
		if errors.As(err, &short) {
			r.rec.StockRejected()
			r.log.Warn("Sale rejected",
				zap.Uint("card_id", req.ItemID),
				zap.Int("current", short.Current),
				zap.Int("requested", short.Requested),
			)
			return 0, err
		}
		return 0, r.storage("record sale", err, zap.Uint("card_id", req.ItemID), zap.Uint("supplier_id", req.SupplierID))
	}

	r.rec.SaleRecorded(req.Quantity, req.Price.Mul(decimal.NewFromInt(int64(req.Quantity))))
	r.log.Info("Sale recorded",
		zap.Uint("sale_id", sale.ID),
		zap.Uint("card_id", req.ItemID),
		zap.Int("quantity", req.Quantity),
	)
	return sale.ID, nil
}

// DeleteSale returns a sale's units to stock and removes the sale
func (r *LedgerRepository) DeleteSale(ctx context.Context, saleID uint) (err error) {
	defer r.observe("delete_sale", time.Now(), &err)

	var sale db.Sale
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sale, saleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(entitySale, saleID)
			}
			return err
		}

		var item db.Item
		if err := tx.Select("id", "quantity").First(&item, sale.ItemID).Error; err != nil {
			return err
		}

		err := tx.Model(&db.Item{}).
			Where("id = ?", sale.ItemID).
			Updates(map[string]interface{}{"quantity": gorm.Expr("quantity + ?", sale.Quantity), "updated_at": r.now()}).Error
		if err != nil {
			return err
		}

		if err := r.journal(tx, sale.ItemID, sale.ID, db.MovementSaleReversal, item.Quantity, sale.Quantity); err != nil {
			return err
		}

		return tx.Delete(&db.Sale{}, saleID).Error
	})
	if err != nil {
		return r.storage("delete sale", err, zap.Uint("sale_id", saleID))
	}

	r.rec.SaleDeleted(sale.Quantity)
	r.log.Info("Sale deleted",
		zap.Uint("sale_id", saleID),
		zap.Uint("card_id", sale.ItemID),
		zap.Int("quantity_returned", sale.Quantity),
	)
	return nil
}

// ListSales returns the sales matching filter, newest first, with line
// totals and their sum.
func (r *LedgerRepository) ListSales(ctx context.Context, filter SalesFilter) (report *SalesReport, err error) {
	defer r.observe("list_sales", time.Now(), &err)

	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, invalid("date range", "start date is after end date")
	}

	query := r.db.WithContext(ctx).
		Table("sales AS s").
		Select("s.id AS id, s.item_id AS item_id, c.name AS item_name, s.supplier_id AS supplier_id, " +
			"sup.name AS supplier_name, s.quantity AS quantity, s.sale_date AS sale_date, s.sale_price AS sale_price").
		Joins("JOIN cards c ON c.id = s.item_id").
		Joins("JOIN suppliers sup ON sup.id = s.supplier_id")

	// Apply filters
	if filter.SupplierName != "" {
		query = query.Where("sup.name = ?", filter.SupplierName)
	}
	if !filter.From.IsZero() {
		query = query.Where("s.sale_date >= ?", filter.From.Format(db.DateLayout))
	}
	if !filter.To.IsZero() {
		query = query.Where("s.sale_date <= ?", filter.To.Format(db.DateLayout))
	}

	rows := []SaleRow{}
	if err := query.Order("s.sale_date DESC, s.id DESC").Scan(&rows).Error; err != nil {
		return nil, r.storage("list sales", err)
	}

	report = &SalesReport{Rows: rows, Total: decimal.Zero}
	for i := range report.Rows {
		row := &report.Rows[i]
		row.Total = row.SalePrice.Mul(decimal.NewFromInt(int64(row.Quantity)))
		report.Total = report.Total.Add(row.Total)
	}
	return report, nil
}

// StockMovements returns the stock journal of a card, newest first. The
// journal outlives the card, so an unknown id yields an empty list.
func (r *LedgerRepository) StockMovements(ctx context.Context, itemID uint) ([]db.StockMovement, error) {
	movements := []db.StockMovement{}
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("id DESC").
		Find(&movements).Error
	if err != nil {
		return nil, r.storage("list stock movements", err, zap.Uint("card_id", itemID))
	}
	return movements, nil
}

func (r *LedgerRepository) journal(tx *gorm.DB, itemID, saleID uint, kind string, before, delta int) error {
	movement := &db.StockMovement{
		EventID:        uuid.NewString(),
		ItemID:         itemID,
		SaleID:         &saleID,
		Kind:           kind,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  before + delta,
		CreatedAt:      r.now(),
	}
	return tx.Create(movement).Error
}
