package db

import (
	"fmt"
)

// RunMigrations creates or updates the ledger schema
func RunMigrations(db *DB) error {
	// Referenced tables first so the foreign keys on quotes and sales resolve
	models := []interface{}{
		&Item{},
		&Supplier{},
		&PriceQuote{},
		&Sale{},
		&StockMovement{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
	}

	return nil
}
