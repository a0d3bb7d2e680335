package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cardvault/cardledger/internal/db"
	"github.com/cardvault/cardledger/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) set(day string) {
	t, err := time.Parse(db.DateLayout, day)
	if err != nil {
		panic(err)
	}
	c.now = t.Add(12 * time.Hour)
}

func setupTestDB(t *testing.T) *db.DB {
	database, err := db.Connect(db.Options{Driver: db.DriverSQLite, DSN: ":memory:", BusyTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	// Run migrations
	err = db.RunMigrations(database)
	require.NoError(t, err)

	return database
}

func setupTestRepo(t *testing.T) (*LedgerRepository, *testClock) {
	clock := &testClock{}
	clock.set("2024-05-01")
	log := logger.NewLogger("test", "error")
	return NewLedgerRepository(setupTestDB(t), log, WithClock(clock.Now)), clock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func addCard(t *testing.T, r *LedgerRepository, name string, qty int) uint {
	id, err := r.AddItem(context.Background(), ItemFields{Name: name, Category: "Pokemon", Rarity: "Holo", Value: dec("100.00"), Quantity: qty})
	require.NoError(t, err)
	return id
}

func addSupplier(t *testing.T, r *LedgerRepository, name string) uint {
	id, err := r.AddSupplier(context.Background(), SupplierFields{Name: name, Contact: "Ash", Email: "ash@example.com", Phone: "555-0100"})
	require.NoError(t, err)
	return id
}

func countSales(t *testing.T, r *LedgerRepository) int64 {
	var n int64
	require.NoError(t, r.db.Model(&db.Sale{}).Count(&n).Error)
	return n
}

func TestAddAndGetItem(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.AddItem(ctx, ItemFields{Name: "  Charizard ", Category: "Pokemon", Rarity: "Holo", Value: dec("350.50"), Quantity: 10})
	require.NoError(t, err)
	assert.NotZero(t, id)

	item, err := repo.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Charizard", item.Name)
	assert.Equal(t, "Holo", item.Rarity)
	assert.True(t, dec("350.50").Equal(item.Value))
	assert.Equal(t, 10, item.Quantity)
}

func TestAddItemValidation(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		fields ItemFields
		field  string
	}{
		{"empty name", ItemFields{Name: "   ", Value: dec("1"), Quantity: 1}, "name"},
		{"negative value", ItemFields{Name: "Mew", Value: dec("-1"), Quantity: 1}, "value"},
		{"value with three places", ItemFields{Name: "Mew", Value: dec("1.005"), Quantity: 1}, "value"},
		{"value out of range", ItemFields{Name: "Mew", Value: dec("10000000000"), Quantity: 1}, "value"},
		{"negative quantity", ItemFields{Name: "Mew", Value: dec("1"), Quantity: -1}, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.AddItem(ctx, tc.fields)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateItem(t *testing.T) {
	repo, clock := setupTestRepo(t)
	ctx := context.Background()
	id := addCard(t, repo, "Blastoise", 2)

	created, err := repo.GetItem(ctx, id)
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(clock.now), "created at %s", created.CreatedAt)

	clock.set("2024-05-04")

	err = repo.UpdateItem(ctx, id, ItemFields{Name: "Blastoise EX", Category: "Pokemon", Rarity: "Ultra", Value: dec("80"), Quantity: 5})
	require.NoError(t, err)

	item, err := repo.GetItem(ctx, id)
	require.NoError(t, err)
	assert.True(t, item.UpdatedAt.Equal(clock.now), "updated at %s", item.UpdatedAt)
	assert.True(t, item.CreatedAt.Equal(created.CreatedAt))
	assert.Equal(t, "Blastoise EX", item.Name)
	assert.Equal(t, "Ultra", item.Rarity)
	assert.Equal(t, 5, item.Quantity)

	err = repo.UpdateItem(ctx, 999, ItemFields{Name: "Ghost", Value: dec("1")})
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	err = repo.UpdateItem(ctx, id, ItemFields{Name: "Blastoise", Value: dec("1"), Quantity: -3})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestDeleteItem(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Venusaur", 4)
	supplier := addSupplier(t, repo, "S1")

	_, err := repo.RecordPrice(ctx, supplier, card, dec("12"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteItem(ctx, card))

	_, err = repo.GetItem(ctx, card)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	var quotes int64
	require.NoError(t, repo.db.Model(&db.PriceQuote{}).Count(&quotes).Error)
	assert.Zero(t, quotes)

	err = repo.DeleteItem(ctx, card)
	assert.True(t, errors.As(err, &nf))
}

func TestDeleteItemWithSales(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Gengar", 4)
	supplier := addSupplier(t, repo, "S1")

	_, err := repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 1, Price: dec("9")})
	require.NoError(t, err)

	err = repo.DeleteItem(ctx, card)
	var rie *ReferentialIntegrityError
	require.True(t, errors.As(err, &rie), "got %v", err)
	assert.Equal(t, int64(1), rie.Count)

	item, err := repo.GetItem(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
}

func TestSupplierLifecycle(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddSupplier(ctx, SupplierFields{Name: ""})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	id := addSupplier(t, repo, "Card Kingdom")
	require.NoError(t, repo.UpdateSupplier(ctx, id, SupplierFields{Name: "Card Kingdom", Contact: "Misty", Email: "misty@example.com"}))

	supplier, err := repo.GetSupplier(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Misty", supplier.Contact)
	assert.Empty(t, supplier.Phone)

	err = repo.UpdateSupplier(ctx, 42, SupplierFields{Name: "Nobody"})
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, repo.DeleteSupplier(ctx, id))
	suppliers, err := repo.ListSuppliers(ctx)
	require.NoError(t, err)
	assert.Empty(t, suppliers)
}

func TestDeleteSupplierReferenced(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Mewtwo", 3)
	quoted := addSupplier(t, repo, "Quoted")
	sold := addSupplier(t, repo, "Sold")

	_, err := repo.RecordPrice(ctx, quoted, card, dec("20"))
	require.NoError(t, err)
	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: sold, Quantity: 1, Price: dec("25")})
	require.NoError(t, err)

	var rie *ReferentialIntegrityError
	err = repo.DeleteSupplier(ctx, quoted)
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, "price quotes", rie.Dependent)

	err = repo.DeleteSupplier(ctx, sold)
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, "sales", rie.Dependent)

	suppliers, err := repo.ListSuppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, suppliers, 2)
}

func TestRecordSaleScenario(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	charizard := addCard(t, repo, "Charizard", 10)
	s1 := addSupplier(t, repo, "S1")

	saleID, err := repo.RecordSale(ctx, SaleRequest{ItemID: charizard, SupplierID: s1, Quantity: 3, Price: dec("50.0")})
	require.NoError(t, err)

	item, err := repo.GetItem(ctx, charizard)
	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)
	assert.Equal(t, int64(1), countSales(t, repo))

	var sale db.Sale
	require.NoError(t, repo.db.First(&sale, saleID).Error)
	assert.Equal(t, charizard, sale.ItemID)
	assert.Equal(t, s1, sale.SupplierID)
	assert.Equal(t, 3, sale.Quantity)
	assert.Equal(t, "2024-05-01", sale.SaleDate)
	assert.True(t, dec("50").Equal(sale.SalePrice))

	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: charizard, SupplierID: s1, Quantity: 20, Price: dec("50.0")})
	var short *InsufficientStockError
	require.True(t, errors.As(err, &short), "got %v", err)
	assert.Equal(t, 7, short.Current)
	assert.Equal(t, 20, short.Requested)

	item, err = repo.GetItem(ctx, charizard)
	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)
	assert.Equal(t, int64(1), countSales(t, repo))

	require.NoError(t, repo.DeleteSale(ctx, saleID))

	item, err = repo.GetItem(ctx, charizard)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Quantity)
	assert.Zero(t, countSales(t, repo))

	err = repo.DeleteSale(ctx, saleID)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestRecordSaleSellsEntireStock(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Lugia", 2)
	supplier := addSupplier(t, repo, "S1")

	_, err := repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 2, Price: dec("0")})
	require.NoError(t, err)

	item, err := repo.GetItem(ctx, card)
	require.NoError(t, err)
	assert.Zero(t, item.Quantity)

	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 1, Price: dec("1")})
	var short *InsufficientStockError
	assert.True(t, errors.As(err, &short))
}

func TestRecordSaleRejectsBadInput(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Snorlax", 5)
	supplier := addSupplier(t, repo, "S1")

	var verr *ValidationError
	_, err := repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 0, Price: dec("1")})
	assert.True(t, errors.As(err, &verr))
	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 1, Price: dec("-1")})
	assert.True(t, errors.As(err, &verr))
	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 1, Price: dec("12345678901.123456789")})
	assert.True(t, errors.As(err, &verr))

	var nf *NotFoundError
	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: 999, SupplierID: supplier, Quantity: 1, Price: dec("1")})
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "card", nf.Entity)

	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: 999, Quantity: 1, Price: dec("1")})
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "supplier", nf.Entity)

	item, err := repo.GetItem(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	assert.Zero(t, countSales(t, repo))
}

func TestRecordSaleRollsBackOnFailure(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Eevee", 6)
	supplier := addSupplier(t, repo, "S1")

	// Break the journal so the last step of the transaction fails
	require.NoError(t, repo.db.Exec("DROP TABLE stock_movements").Error)

	_, err := repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 2, Price: dec("3")})
	var se *StorageError
	require.True(t, errors.As(err, &se), "got %v", err)

	item, err := repo.GetItem(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, 6, item.Quantity)
	assert.Zero(t, countSales(t, repo))
}

func TestStockMovements(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Dragonite", 8)
	supplier := addSupplier(t, repo, "S1")

	saleID, err := repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 5, Price: dec("10")})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteSale(ctx, saleID))

	movements, err := repo.StockMovements(ctx, card)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	assert.Equal(t, db.MovementSaleReversal, movements[0].Kind)
	assert.Equal(t, 5, movements[0].Delta)
	assert.Equal(t, 3, movements[0].QuantityBefore)
	assert.Equal(t, 8, movements[0].QuantityAfter)

	assert.Equal(t, db.MovementSale, movements[1].Kind)
	assert.Equal(t, -5, movements[1].Delta)
	assert.Equal(t, 8, movements[1].QuantityBefore)
	assert.Equal(t, 3, movements[1].QuantityAfter)
	require.NotNil(t, movements[1].SaleID)
	assert.Equal(t, saleID, *movements[1].SaleID)
	assert.NotEqual(t, movements[0].EventID, movements[1].EventID)
}

func TestRecordPriceUpserts(t *testing.T) {
	repo, clock := setupTestRepo(t)
	ctx := context.Background()
	charizard := addCard(t, repo, "Charizard", 10)
	s1 := addSupplier(t, repo, "S1")

	_, err := repo.RecordPrice(ctx, s1, charizard, dec("45.00"))
	require.NoError(t, err)

	clock.set("2024-05-03")
	quote, err := repo.RecordPrice(ctx, s1, charizard, dec("42.50"))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-03", quote.LastUpdated)

	for i := 0; i < 3; i++ {
		_, err = repo.RecordPrice(ctx, s1, charizard, dec("42.50"))
		require.NoError(t, err)
	}

	var quotes int64
	require.NoError(t, repo.db.Model(&db.PriceQuote{}).Count(&quotes).Error)
	assert.Equal(t, int64(1), quotes)

	rows, err := repo.ComparePrices(ctx, charizard)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "S1", rows[0].SupplierName)
	assert.True(t, dec("42.50").Equal(rows[0].Price), "got %s", rows[0].Price)
	assert.Equal(t, "2024-05-03", rows[0].LastUpdated)
}

func TestRecordPriceValidation(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Jigglypuff", 1)
	supplier := addSupplier(t, repo, "S1")

	var verr *ValidationError
	_, err := repo.RecordPrice(ctx, supplier, card, dec("0"))
	assert.True(t, errors.As(err, &verr))
	_, err = repo.RecordPrice(ctx, supplier, card, dec("0.001"))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "price", verr.Field)

	quotes, err := repo.ComparePrices(ctx, card)
	require.NoError(t, err)
	assert.Empty(t, quotes)

	var nf *NotFoundError
	_, err = repo.RecordPrice(ctx, 77, card, dec("1"))
	assert.True(t, errors.As(err, &nf))
	_, err = repo.RecordPrice(ctx, supplier, 77, dec("1"))
	assert.True(t, errors.As(err, &nf))
}

func TestComparePricesOrdering(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Pikachu", 1)

	prices := map[string]string{"A": "9.99", "B": "100", "C": "10.5", "D": "2", "E": "10.50"}
	for name, price := range prices {
		s := addSupplier(t, repo, name)
		_, err := repo.RecordPrice(ctx, s, card, dec(price))
		require.NoError(t, err)
	}

	rows, err := repo.ComparePrices(ctx, card)
	require.NoError(t, err)
	require.Len(t, rows, len(prices))
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].Price.LessThan(rows[i-1].Price), "row %d out of order", i)
	}
	assert.Equal(t, "D", rows[0].SupplierName)
	assert.Equal(t, "B", rows[len(rows)-1].SupplierName)

	other := addCard(t, repo, "Ditto", 1)
	rows, err = repo.ComparePrices(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = repo.ComparePrices(ctx, 999)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestListSales(t *testing.T) {
	repo, clock := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Charizard", 50)
	s1 := addSupplier(t, repo, "S1")
	s2 := addSupplier(t, repo, "S2")

	sell := func(day string, supplier uint, qty int, price string) uint {
		clock.set(day)
		id, err := repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: qty, Price: dec(price)})
		require.NoError(t, err)
		return id
	}
	first := sell("2024-01-10", s1, 1, "10.00")
	second := sell("2024-02-15", s2, 2, "12.50")
	third := sell("2024-03-20", s1, 3, "9.99")
	fourth := sell("2024-03-20", s2, 1, "0.01")

	report, err := repo.ListSales(ctx, SalesFilter{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 4)
	assert.Equal(t, []uint{fourth, third, second, first}, saleIDs(report))
	assert.True(t, dec("64.98").Equal(report.Total), "got %s", report.Total)
	assert.Equal(t, "Charizard", report.Rows[0].ItemName)
	assert.Equal(t, "S2", report.Rows[0].SupplierName)
	assert.True(t, dec("29.97").Equal(report.Rows[1].Total))

	from, _ := time.Parse(db.DateLayout, "2024-02-15")
	to, _ := time.Parse(db.DateLayout, "2024-03-20")
	report, err = repo.ListSales(ctx, SalesFilter{From: from, To: to})
	require.NoError(t, err)
	assert.Equal(t, []uint{fourth, third, second}, saleIDs(report))

	report, err = repo.ListSales(ctx, SalesFilter{SupplierName: "S1", To: from})
	require.NoError(t, err)
	assert.Equal(t, []uint{first}, saleIDs(report))
	assert.True(t, dec("10").Equal(report.Total))

	report, err = repo.ListSales(ctx, SalesFilter{SupplierName: "Nobody"})
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.True(t, report.Total.IsZero())

	_, err = repo.ListSales(ctx, SalesFilter{From: to, To: from})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func saleIDs(report *SalesReport) []uint {
	ids := make([]uint, 0, len(report.Rows))
	for _, row := range report.Rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func TestStats(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	a := addCard(t, repo, "A", 4)
	addCard(t, repo, "B", 6)
	s := addSupplier(t, repo, "S1")

	_, err := repo.RecordSale(ctx, SaleRequest{ItemID: a, SupplierID: s, Quantity: 1, Price: dec("1")})
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Items: 2, Suppliers: 1, Sales: 1, UnitsOnHand: 9}, stats)
}

type recorderStub struct {
	ops      map[string]int
	sold     int
	returned int
	rejected int
}

func (r *recorderStub) ObserveOperation(op, kind string, _ time.Duration) {
	r.ops[op+":"+kind]++
}
func (r *recorderStub) SaleRecorded(q int, _ decimal.Decimal) { r.sold += q }
func (r *recorderStub) SaleDeleted(q int)                     { r.returned += q }
func (r *recorderStub) StockRejected()                        { r.rejected++ }

func TestRecorderReceivesOutcomes(t *testing.T) {
	rec := &recorderStub{ops: map[string]int{}}
	repo := NewLedgerRepository(setupTestDB(t), logger.NewLogger("test", "error"), WithRecorder(rec))
	ctx := context.Background()
	card := addCard(t, repo, "Mew", 2)
	s := addSupplier(t, repo, "S1")

	id, err := repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: s, Quantity: 2, Price: dec("5")})
	require.NoError(t, err)
	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: s, Quantity: 1, Price: dec("5")})
	require.Error(t, err)
	require.NoError(t, repo.DeleteSale(ctx, id))

	assert.Equal(t, 1, rec.ops["record_sale:"])
	assert.Equal(t, 1, rec.ops["record_sale:"+KindInsufficient])
	assert.Equal(t, 1, rec.ops["delete_sale:"])
	assert.Equal(t, 2, rec.sold)
	assert.Equal(t, 2, rec.returned)
	assert.Equal(t, 1, rec.rejected)
}

func TestHealth(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Health(ctx))

	require.NoError(t, repo.db.Exec("PRAGMA foreign_keys = OFF").Error)
	err := repo.Health(ctx)
	require.Error(t, err)
	assert.Equal(t, KindStorage, ErrorKind(err))

	require.NoError(t, repo.db.Close())
	err = repo.Health(ctx)
	require.Error(t, err)
	assert.Equal(t, KindStorage, ErrorKind(err))
}

func TestDatesAreUTC(t *testing.T) {
	repo, clock := setupTestRepo(t)
	ctx := context.Background()
	card := addCard(t, repo, "Gengar", 3)
	supplier := addSupplier(t, repo, "S1")

	// Late evening west of Greenwich is already tomorrow in UTC.
	clock.now = time.Date(2024, 5, 1, 22, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))

	quote, err := repo.RecordPrice(ctx, supplier, card, dec("9.99"))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", quote.LastUpdated)

	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 1, Price: dec("12")})
	require.NoError(t, err)
	report, err := repo.ListSales(ctx, SalesFilter{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "2024-05-02", report.Rows[0].SaleDate)
}

func setupFileRepos(t *testing.T, busy time.Duration) (*LedgerRepository, *db.DB) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	open := func() *db.DB {
		database, err := db.Connect(db.Options{Driver: db.DriverSQLite, DSN: path, BusyTimeout: busy})
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		return database
	}

	first := open()
	require.NoError(t, db.RunMigrations(first))
	second := open()

	return NewLedgerRepository(first, logger.NewLogger("test", "error")), second
}

func TestTransactionsWaitForWriteLock(t *testing.T) {
	busy := 300 * time.Millisecond
	repo, other := setupFileRepos(t, busy)
	ctx := context.Background()
	card := addCard(t, repo, "Dragonite", 5)
	supplier := addSupplier(t, repo, "S1")
	spare := addSupplier(t, repo, "S2")

	held := other.Begin()
	require.NoError(t, held.Error)
	require.NoError(t, held.Exec("UPDATE suppliers SET phone = phone").Error)

	start := time.Now()
	_, err := repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 2, Price: dec("10")})
	waited := time.Since(start)
	var se *StorageError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.GreaterOrEqual(t, waited, busy-50*time.Millisecond)

	start = time.Now()
	err = repo.DeleteSupplier(ctx, spare)
	waited = time.Since(start)
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.GreaterOrEqual(t, waited, busy-50*time.Millisecond)

	require.NoError(t, held.Rollback().Error)

	item, err := repo.GetItem(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	assert.Zero(t, countSales(t, repo))

	_, err = repo.RecordSale(ctx, SaleRequest{ItemID: card, SupplierID: supplier, Quantity: 2, Price: dec("10")})
	require.NoError(t, err)
}
