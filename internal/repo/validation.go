package repo

import (
	"strconv"
	"strings"
	"time"

	"github.com/cardvault/cardledger/internal/db"
	"github.com/shopspring/decimal"
)

// ParseValue parses a card value. Values must be non-negative.
func ParseValue(s string) (decimal.Decimal, error) {
	return parseAmount("value", s, false)
}

// ParsePrice parses a quote price. Prices must be strictly positive.
func ParsePrice(s string) (decimal.Decimal, error) {
	return parseAmount("price", s, true)
}

// ParseSalePrice parses a sale price. Zero is allowed.
func ParseSalePrice(s string) (decimal.Decimal, error) {
	return parseAmount("sale price", s, false)
}

func parseAmount(field, s string, positive bool) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid(field, "is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid(field, "not a number: "+s)
	}
	if err := validateAmount(field, d, positive); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// maxAmount is the first value that does not fit a decimal(12,2) column.
var maxAmount = decimal.New(1, 10)

func validateAmount(field string, d decimal.Decimal, positive bool) error {
	if !d.Equal(d.Round(2)) {
		return invalid(field, "must have at most two decimal places")
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return invalid(field, "must be below "+maxAmount.String())
	}
	if positive && !d.IsPositive() {
		return invalid(field, "must be greater than zero")
	}
	if d.IsNegative() {
		return invalid(field, "must not be negative")
	}
	return nil
}

// ParseQuantity parses a non-negative whole number of units.
func ParseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid("quantity", "not a whole number: "+s)
	}
	if n < 0 {
		return 0, invalid("quantity", "must not be negative")
	}
	return n, nil
}

// ParseID parses a row id.
func ParseID(field, s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || n == 0 {
		return 0, invalid(field, "not a valid id: "+s)
	}
	return uint(n), nil
}

// ParseDate parses a YYYY-MM-DD date. An empty string yields the zero time.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(db.DateLayout, s)
	if err != nil {
		return time.Time{}, invalid(field, "expected YYYY-MM-DD: "+s)
	}
	return t, nil
}

func validateItem(f ItemFields) error {
	if strings.TrimSpace(f.Name) == "" {
		return invalid("name", "is required")
	}
	if err := validateAmount("value", f.Value, false); err != nil {
		return err
	}
	if f.Quantity < 0 {
		return invalid("quantity", "must not be negative")
	}
	return nil
}

func validateSupplier(f SupplierFields) error {
	if strings.TrimSpace(f.Name) == "" {
		return invalid("name", "is required")
	}
	return nil
}
