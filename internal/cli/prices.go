package cli

import (
	"context"
	"flag"

	"github.com/cardvault/cardledger/internal/repo"
	"github.com/google/subcommands"
)

type recordPriceCmd struct {
	app      *App
	supplier string
	card     string
	price    string
}

func (*recordPriceCmd) Name() string     { return "record-price" }
func (*recordPriceCmd) Synopsis() string { return "record a supplier's price for a card" }
func (*recordPriceCmd) Usage() string {
	return `record-price -s <supplier> -card <card> -p <price>

  Stores the supplier's current price for the card, dated today. A later
  price for the same supplier and card replaces the earlier one.
`
}

func (c *recordPriceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.supplier, "s", "", "Supplier id")
	f.StringVar(&c.card, "card", "", "Card id")
	f.StringVar(&c.price, "p", "", "Price")
}

func (c *recordPriceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	supplierID, err := repo.ParseID("supplier id", c.supplier)
	if err != nil {
		return c.app.fail(err)
	}
	cardID, err := repo.ParseID("card id", c.card)
	if err != nil {
		return c.app.fail(err)
	}
	price, err := repo.ParsePrice(c.price)
	if err != nil {
		return c.app.fail(err)
	}

	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	quote, err := ledger.RecordPrice(ctx, supplierID, cardID, price)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Price %s recorded for card %d on %s\n", c.app.formatMoney(quote.Price), cardID, quote.LastUpdated)
	return subcommands.ExitSuccess
}

type comparePricesCmd struct {
	app  *App
	card string
}

func (*comparePricesCmd) Name() string     { return "compare-prices" }
func (*comparePricesCmd) Synopsis() string { return "compare supplier prices for a card" }
func (*comparePricesCmd) Usage() string {
	return `compare-prices -card <card>

  Lists every supplier quote for the card, cheapest first.
`
}

func (c *comparePricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.card, "card", "", "Card id")
}

func (c *comparePricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cardID, err := repo.ParseID("card id", c.card)
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	item, err := ledger.GetItem(ctx, cardID)
	if err != nil {
		return c.app.fail(err)
	}
	rows, err := ledger.ComparePrices(ctx, cardID)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(c.app.renderComparison(item.Name, rows))
	return subcommands.ExitSuccess
}
