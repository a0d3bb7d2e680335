package cli

import (
	"context"
	"flag"

	"github.com/cardvault/cardledger/internal/repo"
	"github.com/google/subcommands"
)

type addSupplierCmd struct {
	app     *App
	name    string
	contact string
	email   string
	phone   string
}

func (*addSupplierCmd) Name() string     { return "add-supplier" }
func (*addSupplierCmd) Synopsis() string { return "add a supplier contact" }
func (*addSupplierCmd) Usage() string {
	return `add-supplier -n <name> [-contact <person>] [-email <address>] [-phone <number>]
`
}

func (c *addSupplierCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "n", "", "Supplier name")
	f.StringVar(&c.contact, "contact", "", "Contact person")
	f.StringVar(&c.email, "email", "", "Email address")
	f.StringVar(&c.phone, "phone", "", "Phone number")
}

func (c *addSupplierCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	id, err := ledger.AddSupplier(ctx, repo.SupplierFields{Name: c.name, Contact: c.contact, Email: c.email, Phone: c.phone})
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Supplier %d added\n", id)
	return subcommands.ExitSuccess
}

type updateSupplierCmd struct {
	app     *App
	id      string
	name    string
	contact string
	email   string
	phone   string
}

func (*updateSupplierCmd) Name() string     { return "update-supplier" }
func (*updateSupplierCmd) Synopsis() string { return "change a supplier's details" }
func (*updateSupplierCmd) Usage() string {
	return `update-supplier -id <supplier> [-n <name>] [-contact <person>] [-email <address>] [-phone <number>]

  Rewrites a supplier. Fields without a flag keep their current value.
`
}

func (c *updateSupplierCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Supplier id")
	f.StringVar(&c.name, "n", "", "Supplier name")
	f.StringVar(&c.contact, "contact", "", "Contact person")
	f.StringVar(&c.email, "email", "", "Email address")
	f.StringVar(&c.phone, "phone", "", "Phone number")
}

func (c *updateSupplierCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := repo.ParseID("supplier id", c.id)
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	current, err := ledger.GetSupplier(ctx, id)
	if err != nil {
		return c.app.fail(err)
	}

	fields := repo.SupplierFields{Name: current.Name, Contact: current.Contact, Email: current.Email, Phone: current.Phone}
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "n":
			fields.Name = c.name
		case "contact":
			fields.Contact = c.contact
		case "email":
			fields.Email = c.email
		case "phone":
			fields.Phone = c.phone
		}
	})

	if err := ledger.UpdateSupplier(ctx, id, fields); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Supplier %d updated\n", id)
	return subcommands.ExitSuccess
}

type deleteSupplierCmd struct {
	app *App
	id  string
}

func (*deleteSupplierCmd) Name() string     { return "delete-supplier" }
func (*deleteSupplierCmd) Synopsis() string { return "remove a supplier with no sales or quotes" }
func (*deleteSupplierCmd) Usage() string {
	return `delete-supplier -id <supplier>
`
}

func (c *deleteSupplierCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Supplier id")
}

func (c *deleteSupplierCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := repo.ParseID("supplier id", c.id)
	if err != nil {
		return c.app.fail(err)
	}
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	if err := ledger.DeleteSupplier(ctx, id); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Supplier %d deleted\n", id)
	return subcommands.ExitSuccess
}

type suppliersCmd struct {
	app *App
}

func (*suppliersCmd) Name() string     { return "suppliers" }
func (*suppliersCmd) Synopsis() string { return "list suppliers" }
func (*suppliersCmd) Usage() string {
	return `suppliers
`
}

func (c *suppliersCmd) SetFlags(*flag.FlagSet) {}

func (c *suppliersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	suppliers, err := ledger.ListSuppliers(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printMarkdown(renderSuppliers(suppliers))
	return subcommands.ExitSuccess
}
