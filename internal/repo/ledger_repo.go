package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cardvault/cardledger/internal/db"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	entityItem     = "card"
	entitySupplier = "supplier"
	entitySale     = "sale"
)

// Recorder receives operation outcomes. The metrics package implements it.
type Recorder interface {
	ObserveOperation(op, errKind string, elapsed time.Duration)
	SaleRecorded(quantity int, total decimal.Decimal)
	SaleDeleted(quantity int)
	StockRejected()
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, string, time.Duration) {}
func (noopRecorder) SaleRecorded(int, decimal.Decimal)              {}
func (noopRecorder) SaleDeleted(int)                                {}
func (noopRecorder) StockRejected()                                 {}

// Option configures a LedgerRepository
type Option func(*LedgerRepository)

// WithClock overrides the time source used to date sales and quotes.
func WithClock(now func() time.Time) Option {
	return func(r *LedgerRepository) {
		r.now = now
	}
}

// WithRecorder attaches an operation recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *LedgerRepository) {
		if rec != nil {
			r.rec = rec
		}
	}
}

// LedgerRepository owns the card inventory ledger: cards, suppliers,
// price quotes and sales. Every exported method is one atomic unit of work.
type LedgerRepository struct {
	db  *db.DB
	log *zap.Logger
	now func() time.Time
	rec Recorder
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(database *db.DB, logger *zap.Logger, opts ...Option) *LedgerRepository {
	r := &LedgerRepository{
		db:  database,
		log: logger,
		now: time.Now,
		rec: noopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ItemFields are the editable attributes of a card
type ItemFields struct {
	Name     string
	Category string
	Rarity   string
	Value    decimal.Decimal
	Quantity int
}

// SupplierFields are the editable attributes of a supplier
type SupplierFields struct {
	Name    string
	Contact string
	Email   string
	Phone   string
}

// Stats summarises the ledger
type Stats struct {
	Items       int64
	Suppliers   int64
	Sales       int64
	UnitsOnHand int64
}

// today is the current UTC date, matching SQLite's date('now').
func (r *LedgerRepository) today() string {
	return r.now().UTC().Format(db.DateLayout)
}

func (r *LedgerRepository) observe(op string, start time.Time, err *error) {
	r.rec.ObserveOperation(op, ErrorKind(*err), time.Since(start))
}

// storage wraps a backend failure. Ledger errors pass through untouched.
func (r *LedgerRepository) storage(op string, err error, fields ...zap.Field) error {
	if kind := ErrorKind(err); kind != KindStorage {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	r.log.Error("Ledger operation failed", append(fields, zap.String("op", op), zap.Error(err))...)
	return &StorageError{Op: op, Err: err}
}

// AddItem inserts a new card and returns its id
func (r *LedgerRepository) AddItem(ctx context.Context, f ItemFields) (id uint, err error) {
	defer r.observe("add_item", time.Now(), &err)

	if err := validateItem(f); err != nil {
		return 0, err
	}

	now := r.now()
	item := &db.Item{
		Name:      strings.TrimSpace(f.Name),
		Category:  f.Category,
		Rarity:    f.Rarity,
		Value:     f.Value,
		Quantity:  f.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return 0, r.storage("add card", err)
	}

	r.log.Info("Card added", zap.Uint("card_id", item.ID), zap.String("name", item.Name))
	return item.ID, nil
}

// UpdateItem overwrites every field of an existing card
func (r *LedgerRepository) UpdateItem(ctx context.Context, id uint, f ItemFields) (err error) {
	defer r.observe("update_item", time.Now(), &err)

	if err := validateItem(f); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&db.Item{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":       strings.TrimSpace(f.Name),
		"category":   f.Category,
		"rarity":     f.Rarity,
		"value":      f.Value,
		"quantity":   f.Quantity,
		"updated_at": r.now(),
	})
	if result.Error != nil {
		return r.storage("update card", result.Error, zap.Uint("card_id", id))
	}
	if result.RowsAffected == 0 {
		return notFound(entityItem, id)
	}

	r.log.Info("Card updated", zap.Uint("card_id", id))
	return nil
}

// DeleteItem removes a card that no sale references. The card's price
// quotes go with it.
func (r *LedgerRepository) DeleteItem(ctx context.Context, id uint) (err error) {
	defer r.observe("delete_item", time.Now(), &err)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &db.Item{}, entityItem, id); err != nil {
			return err
		}

		var sales int64
		if err := tx.Model(&db.Sale{}).Where("item_id = ?", id).Count(&sales).Error; err != nil {
			return err
		}
		if sales > 0 {
			return &ReferentialIntegrityError{Entity: entityItem, ID: id, Dependent: "sales", Count: sales}
		}

		if err := tx.Where("item_id = ?", id).Delete(&db.PriceQuote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.Item{}, id).Error
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &ReferentialIntegrityError{Entity: entityItem, ID: id, Dependent: "sales"}
	}
	if err != nil {
		return r.storage("delete card", err, zap.Uint("card_id", id))
	}

	r.log.Info("Card deleted", zap.Uint("card_id", id))
	return nil
}

// GetItem retrieves a card by id
func (r *LedgerRepository) GetItem(ctx context.Context, id uint) (*db.Item, error) {
	var item db.Item
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(entityItem, id)
		}
		return nil, r.storage("get card", err, zap.Uint("card_id", id))
	}
	return &item, nil
}

// ListItems returns every card ordered by id
func (r *LedgerRepository) ListItems(ctx context.Context) ([]db.Item, error) {
	var items []db.Item
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, r.storage("list cards", err)
	}
	return items, nil
}

// AddSupplier inserts a new supplier and returns its id
func (r *LedgerRepository) AddSupplier(ctx context.Context, f SupplierFields) (id uint, err error) {
	defer r.observe("add_supplier", time.Now(), &err)

	if err := validateSupplier(f); err != nil {
		return 0, err
	}

	supplier := &db.Supplier{
		Name:    strings.TrimSpace(f.Name),
		Contact: f.Contact,
		Email:   f.Email,
		Phone:   f.Phone,
	}
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return 0, r.storage("add supplier", err)
	}

	r.log.Info("Supplier added", zap.Uint("supplier_id", supplier.ID), zap.String("name", supplier.Name))
	return supplier.ID, nil
}

// UpdateSupplier overwrites every field of an existing supplier
func (r *LedgerRepository) UpdateSupplier(ctx context.Context, id uint, f SupplierFields) (err error) {
	defer r.observe("update_supplier", time.Now(), &err)

	if err := validateSupplier(f); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&db.Supplier{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":    strings.TrimSpace(f.Name),
		"contact": f.Contact,
		"email":   f.Email,
		"phone":   f.Phone,
	})
	if result.Error != nil {
		return r.storage("update supplier", result.Error, zap.Uint("supplier_id", id))
	}
	if result.RowsAffected == 0 {
		return notFound(entitySupplier, id)
	}

	r.log.Info("Supplier updated", zap.Uint("supplier_id", id))
	return nil
}

// DeleteSupplier removes a supplier that has neither sales nor price quotes
func (r *LedgerRepository) DeleteSupplier(ctx context.Context, id uint) (err error) {
	defer r.observe("delete_supplier", time.Now(), &err)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &db.Supplier{}, entitySupplier, id); err != nil {
			return err
		}

		var sales int64
		if err := tx.Model(&db.Sale{}).Where("supplier_id = ?", id).Count(&sales).Error; err != nil {
			return err
		}
		if sales > 0 {
			return &ReferentialIntegrityError{Entity: entitySupplier, ID: id, Dependent: "sales", Count: sales}
		}

		var quotes int64
		if err := tx.Model(&db.PriceQuote{}).Where("supplier_id = ?", id).Count(&quotes).Error; err != nil {
			return err
		}
		if quotes > 0 {
			return &ReferentialIntegrityError{Entity: entitySupplier, ID: id, Dependent: "price quotes", Count: quotes}
		}

		return tx.Delete(&db.Supplier{}, id).Error
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &ReferentialIntegrityError{Entity: entitySupplier, ID: id, Dependent: "sales or price quotes"}
	}
	if err != nil {
		return r.storage("delete supplier", err, zap.Uint("supplier_id", id))
	}

	r.log.Info("Supplier deleted", zap.Uint("supplier_id", id))
	return nil
}

// GetSupplier retrieves a supplier by id
func (r *LedgerRepository) GetSupplier(ctx context.Context, id uint) (*db.Supplier, error) {
	var supplier db.Supplier
	err := r.db.WithContext(ctx).First(&supplier, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(entitySupplier, id)
		}
		return nil, r.storage("get supplier", err, zap.Uint("supplier_id", id))
	}
	return &supplier, nil
}

// ListSuppliers returns every supplier ordered by id
func (r *LedgerRepository) ListSuppliers(ctx context.Context) ([]db.Supplier, error) {
	var suppliers []db.Supplier
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&suppliers).Error; err != nil {
		return nil, r.storage("list suppliers", err)
	}
	return suppliers, nil
}

// Stats returns ledger counts for reporting and metrics
func (r *LedgerRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	q := r.db.WithContext(ctx)
	if err := q.Model(&db.Item{}).Count(&s.Items).Error; err != nil {
		return Stats{}, r.storage("count cards", err)
	}
	if err := q.Model(&db.Supplier{}).Count(&s.Suppliers).Error; err != nil {
		return Stats{}, r.storage("count suppliers", err)
	}
	if err := q.Model(&db.Sale{}).Count(&s.Sales).Error; err != nil {
		return Stats{}, r.storage("count sales", err)
	}
	if err := q.Model(&db.Item{}).Select("COALESCE(SUM(quantity), 0)").Scan(&s.UnitsOnHand).Error; err != nil {
		return Stats{}, r.storage("sum stock", err)
	}
	return s, nil
}

// Health checks that the store answers and, on SQLite, that foreign keys
// are enforced on the connection.
func (r *LedgerRepository) Health(ctx context.Context) error {
	if err := r.db.Ping(); err != nil {
		r.log.Error("Database health check failed", zap.Error(err))
		return &StorageError{Op: "ping", Err: err}
	}
	if r.db.Driver != db.DriverSQLite {
		return nil
	}

	var enabled int
	if err := r.db.WithContext(ctx).Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
		return r.storage("read foreign_keys pragma", err)
	}
	if enabled != 1 {
		r.log.Error("Foreign keys are not enforced")
		return &StorageError{Op: "foreign_keys pragma", Err: errors.New("foreign keys disabled")}
	}
	return nil
}

// exists returns a NotFoundError when no row of model has the given id.
func exists(tx *gorm.DB, model interface{}, entity string, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound(entity, id)
	}
	return nil
}
