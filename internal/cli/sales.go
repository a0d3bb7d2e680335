package cli

import (
	"context"
	"flag"

	"github.com/cardvault/cardledger/internal/repo"
	"github.com/google/subcommands"
)

// --- Record Sale Command ---

type recordSaleCmd struct {
	app      *App
	card     string
	supplier string
	quantity string
	price    string
}

func (*recordSaleCmd) Name() string     { return "record-sale" }
func (*recordSaleCmd) Synopsis() string { return "sell cards and take them out of stock" }
func (*recordSaleCmd) Usage() string {
	return `record-sale -card <card> -s <supplier> -q <quantity> -p <sale price>

  Records a sale dated today. The sale is refused when the card does not
  have enough units in stock.
`
}

func (c *recordSaleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.card, "card", "", "Card id")
	f.StringVar(&c.supplier, "s", "", "Supplier id")
	f.StringVar(&c.quantity, "q", "", "Units sold")
	f.StringVar(&c.price, "p", "", "Sale price per unit")
}

func (c *recordSaleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	id, err := ledger.RecordSale(ctx, req)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Sale %d recorded\n", id)
	return subcommands.ExitSuccess
}

func (c *recordSaleCmd) request() (repo.SaleRequest, error) {
	cardID, err := repo.ParseID("card id", c.card)
	if err != nil {
		return repo.SaleRequest{}, err
	}
	supplierID, err := repo.ParseID("supplier id", c.supplier)
	if err != nil {
		return repo.SaleRequest{}, err
	}
	quantity, err := repo.ParseQuantity(c.quantity)
	if err != nil {
		return repo.SaleRequest{}, err
	}
	price, err := repo.ParseSalePrice(c.price)
	if err != nil {
		return repo.SaleRequest{}, err
	}
	return repo.SaleRequest{ItemID: cardID, SupplierID: supplierID, Quantity: quantity, Price: price}, nil
}

// --- Delete Sale Command ---

type deleteSaleCmd struct {
	app *App
	id  string
}

func (*deleteSaleCmd) Name() string     { return "delete-sale" }
func (*deleteSaleCmd) Synopsis() string { return "delete a sale and return its cards to stock" }
func (*deleteSaleCmd) Usage() string {
	return `delete-sale -id <sale>
`
}

func (c *deleteSaleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Sale id")
}

func (c *deleteSaleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := repo.ParseID("sale id", c.id)
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	if err := ledger.DeleteSale(ctx, id); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Sale %d deleted\n", id)
	return subcommands.ExitSuccess
}

// --- Sales Report Command ---

type salesCmd struct {
	app      *App
	supplier string
	from     string
	to       string
}

func (*salesCmd) Name() string     { return "sales" }
func (*salesCmd) Synopsis() string { return "report sales, newest first" }
func (*salesCmd) Usage() string {
	return `sales [-s <supplier name>] [-from <YYYY-MM-DD>] [-to <YYYY-MM-DD>]

  Lists sales with their totals. Dates are inclusive.
`
}

func (c *salesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.supplier, "s", "", "Only sales through this supplier (by name)")
	f.StringVar(&c.from, "from", "", "First day of the report")
	f.StringVar(&c.to, "to", "", "Last day of the report")
}

func (c *salesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, err := repo.ParseDate("from", c.from)
	if err != nil {
		return c.app.fail(err)
	}
	to, err := repo.ParseDate("to", c.to)
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	report, err := ledger.ListSales(ctx, repo.SalesFilter{SupplierName: c.supplier, From: from, To: to})
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(c.app.renderSales(report))
	return subcommands.ExitSuccess
}

// --- Stock Movements Command ---

type movementsCmd struct {
	app  *App
	card string
}

func (*movementsCmd) Name() string     { return "movements" }
func (*movementsCmd) Synopsis() string { return "show the stock journal of a card" }
func (*movementsCmd) Usage() string {
	return `movements -card <card>
`
}

func (c *movementsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.card, "card", "", "Card id")
}

func (c *movementsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cardID, err := repo.ParseID("card id", c.card)
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	movements, err := ledger.StockMovements(ctx, cardID)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(renderMovements(cardID, movements))
	return subcommands.ExitSuccess
}

// --- Stats Command ---

type statsCmd struct {
	app *App
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "summarise the ledger" }
func (*statsCmd) Usage() string {
	return `stats
`
}

func (c *statsCmd) SetFlags(*flag.FlagSet) {}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	stats, err := ledger.Stats(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(renderStats(stats))
	return subcommands.ExitSuccess
}
