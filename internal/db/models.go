package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DateLayout is the on-disk format of sale and quote dates.
const DateLayout = "2006-01-02"

// Item is a collectible card held in inventory
type Item struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null;index:idx_cards_name" json:"name"`
	Category  string          `gorm:"type:varchar(100)" json:"category,omitempty"`
	Rarity    string          `gorm:"type:varchar(100)" json:"rarity,omitempty"`
	Value     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"value"`
	Quantity  int             `gorm:"not null;default:0;check:chk_cards_quantity,quantity >= 0" json:"quantity"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for Item model
func (Item) TableName() string {
	return "cards"
}

// BeforeCreate hook to set timestamps
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = now
	}
	return nil
}

// Supplier is a contact that cards are bought from or sold through
type Supplier struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Contact string `gorm:"type:varchar(255)" json:"contact,omitempty"`
	Email   string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone   string `gorm:"type:varchar(64)" json:"phone,omitempty"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// PriceQuote is the current price a supplier offers for a card.
// There is at most one row per (supplier, card) pair.
type PriceQuote struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SupplierID  uint            `gorm:"not null;uniqueIndex:idx_supplier_prices_pair" json:"supplier_id"`
	ItemID      uint            `gorm:"column:item_id;not null;uniqueIndex:idx_supplier_prices_pair;index:idx_supplier_prices_item" json:"item_id"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	LastUpdated string          `gorm:"type:varchar(10);not null" json:"last_updated"`

	Supplier Supplier `gorm:"foreignKey:SupplierID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	Item     Item     `gorm:"foreignKey:ItemID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
}

func (PriceQuote) TableName() string {
	return "supplier_prices"
}

// Sale records cards leaving inventory through a supplier
type Sale struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ItemID     uint            `gorm:"column:item_id;not null;index:idx_sales_item" json:"item_id"`
	SupplierID uint            `gorm:"not null;index:idx_sales_supplier" json:"supplier_id"`
	Quantity   int             `gorm:"not null;check:chk_sales_quantity,quantity > 0" json:"quantity"`
	SaleDate   string          `gorm:"type:varchar(10);not null;index:idx_sales_date" json:"sale_date"`
	SalePrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sale_price"`

	Item     Item     `gorm:"foreignKey:ItemID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	Supplier Supplier `gorm:"foreignKey:SupplierID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
}

func (Sale) TableName() string {
	return "sales"
}

// Stock movement kinds
const (
	MovementSale         = "sale"
	MovementSaleReversal = "sale_reversal"
)

// StockMovement journals every change to a card's quantity made by a sale
// or its reversal. Rows are append-only and carry no foreign keys so the
// history outlives the card.
type StockMovement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EventID        string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"event_id"`
	ItemID         uint      `gorm:"column:item_id;not null;index:idx_stock_movements_item" json:"item_id"`
	SaleID         *uint     `json:"sale_id,omitempty"`
	Kind           string    `gorm:"type:varchar(32);not null" json:"kind"`
	Delta          int       `gorm:"not null" json:"delta"`
	QuantityBefore int       `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int       `gorm:"not null" json:"quantity_after"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}
