package cli

import (
	"context"
	"flag"
	"strconv"

	"github.com/cardvault/cardledger/internal/repo"
	"github.com/google/subcommands"
)

// --- Add Card Command ---

type addItemCmd struct {
	app      *App
	name     string
	category string
	rarity   string
	value    string
	quantity string
}

func (*addItemCmd) Name() string     { return "add-card" }
func (*addItemCmd) Synopsis() string { return "add a card to the inventory" }
func (*addItemCmd) Usage() string {
	return `add-card -n <name> [-c <category>] [-r <rarity>] -v <value> -q <quantity>

  Adds a card to the inventory and prints its id.
`
}

func (c *addItemCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "n", "", "Card name")
	f.StringVar(&c.category, "c", "", "Category")
	f.StringVar(&c.rarity, "r", "", "Rarity")
	f.StringVar(&c.value, "v", "0", "Unit value")
	f.StringVar(&c.quantity, "q", "0", "Quantity on hand")
}

func (c *addItemCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fields, err := itemFields(c.name, c.category, c.rarity, c.value, c.quantity)
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}

	id, err := ledger.AddItem(ctx, fields)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Card %d added\n", id)
	return subcommands.ExitSuccess
}

// --- Update Card Command ---

type updateItemCmd struct {
	app      *App
	id       string
	name     string
	category string
	rarity   string
	value    string
	quantity string
}

func (*updateItemCmd) Name() string     { return "update-card" }
func (*updateItemCmd) Synopsis() string { return "change a card's details" }
func (*updateItemCmd) Usage() string {
	return `update-card -id <card> [-n <name>] [-c <category>] [-r <rarity>] [-v <value>] [-q <quantity>]

  Rewrites a card. Fields without a flag keep their current value.
`
}

func (c *updateItemCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Card id")
	f.StringVar(&c.name, "n", "", "Card name")
	f.StringVar(&c.category, "c", "", "Category")
	f.StringVar(&c.rarity, "r", "", "Rarity")
	f.StringVar(&c.value, "v", "", "Unit value")
	f.StringVar(&c.quantity, "q", "", "Quantity on hand")
}

func (c *updateItemCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := repo.ParseID("card id", c.id)
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	current, err := ledger.GetItem(ctx, id)
	if err != nil {
		return c.app.fail(err)
	}

	name, category, rarity := current.Name, current.Category, current.Rarity
	value, quantity := current.Value.String(), strconv.Itoa(current.Quantity)
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "n":
			name = c.name
		case "c":
			category = c.category
		case "r":
			rarity = c.rarity
		case "v":
			value = c.value
		case "q":
			quantity = c.quantity
		}
	})

	fields, err := itemFields(name, category, rarity, value, quantity)
	if err != nil {
		return c.app.fail(err)
	}
	if err := ledger.UpdateItem(ctx, id, fields); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Card %d updated\n", id)
	return subcommands.ExitSuccess
}

// --- Delete Card Command ---

type deleteItemCmd struct {
	app *App
	id  string
}

func (*deleteItemCmd) Name() string     { return "delete-card" }
func (*deleteItemCmd) Synopsis() string { return "remove a card that has no sales" }
func (*deleteItemCmd) Usage() string {
	return `delete-card -id <card>

  Removes a card and its supplier quotes. Cards with recorded sales cannot be removed.
`
}

func (c *deleteItemCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Card id")
}

func (c *deleteItemCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := repo.ParseID("card id", c.id)
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	if err := ledger.DeleteItem(ctx, id); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Card %d deleted\n", id)
	return subcommands.ExitSuccess
}

// --- List Cards Command ---

type itemsCmd struct {
	app *App
}

func (*itemsCmd) Name() string     { return "cards" }
func (*itemsCmd) Synopsis() string { return "list the inventory" }
func (*itemsCmd) Usage() string {
	return `cards

  Lists every card with its value and quantity on hand.
`
}

func (c *itemsCmd) SetFlags(*flag.FlagSet) {}

func (c *itemsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	items, err := ledger.ListItems(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(c.app.renderItems(items))
	return subcommands.ExitSuccess
}

func itemFields(name, category, rarity, value, quantity string) (repo.ItemFields, error) {
	v, err := repo.ParseValue(value)
	if err != nil {
		return repo.ItemFields{}, err
	}
	q, err := repo.ParseQuantity(quantity)
	if err != nil {
		return repo.ItemFields{}, err
	}
	return repo.ItemFields{Name: name, Category: category, Rarity: rarity, Value: v, Quantity: q}, nil
}
