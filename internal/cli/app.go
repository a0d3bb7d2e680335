// Package cli implements the command-line front end of the card ledger.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Rhymond/go-money"
	"github.com/cardvault/cardledger/internal/metrics"
	"github.com/cardvault/cardledger/internal/repo"
	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// App carries what every command needs. The ledger is opened on first use
// so that help and usage never touch the store.
type App struct {
	Open        func() (*repo.LedgerRepository, error)
	Metrics     *metrics.Metrics
	MetricsFile string
	Currency    string
	Plain       bool
	Out         io.Writer
	Err         io.Writer

	ledger *repo.LedgerRepository
}

// Register the subcommands.
// A main package will call Register() and then Execute() on the commander.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&addItemCmd{app: app}, "cards")
	c.Register(&updateItemCmd{app: app}, "cards")
	c.Register(&deleteItemCmd{app: app}, "cards")
	c.Register(&itemsCmd{app: app}, "cards")

	c.Register(&addSupplierCmd{app: app}, "suppliers")
	c.Register(&updateSupplierCmd{app: app}, "suppliers")
	c.Register(&deleteSupplierCmd{app: app}, "suppliers")
	c.Register(&suppliersCmd{app: app}, "suppliers")

	c.Register(&recordPriceCmd{app: app}, "prices")
	c.Register(&comparePricesCmd{app: app}, "prices")

	c.Register(&recordSaleCmd{app: app}, "sales")
	c.Register(&deleteSaleCmd{app: app}, "sales")
	c.Register(&salesCmd{app: app}, "sales")
	c.Register(&movementsCmd{app: app}, "sales")

	c.Register(&statsCmd{app: app}, "")
	c.Register(&checkCmd{app: app}, "")
}

// Ledger returns the ledger, opening it on first call.
func (a *App) Ledger() (*repo.LedgerRepository, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	l, err := a.Open()
	if err != nil {
		return nil, err
	}
	a.ledger = l
	return l, nil
}

// ExportMetrics refreshes the ledger gauges and writes the metrics textfile.
// It does nothing when no command opened the ledger or no file is configured.
func (a *App) ExportMetrics(ctx context.Context) error {
	if a.ledger == nil || a.Metrics == nil || a.MetricsFile == "" {
		return nil
	}
	stats, err := a.ledger.Stats(ctx)
	if err != nil {
		return err
	}
	a.Metrics.SetStats(stats.Items, stats.Suppliers, stats.Sales, stats.UnitsOnHand)
	return a.Metrics.WriteTextfile(a.MetricsFile)
}

func (a *App) stdout() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) stderr() io.Writer {
	if a.Err == nil {
		return os.Stderr
	}
	return a.Err
}

// printMarkdown renders markdown for the terminal unless plain output was asked for.
func (a *App) printMarkdown(s string) {
	if !a.Plain {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err == nil {
			if out, err := r.Render(s); err == nil {
				s = out
			}
		}
	}
	fmt.Fprint(a.stdout(), s)
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.stdout(), format, args...)
}

// fail reports err and picks the exit status: bad input is a usage error,
// everything else a failure.
func (a *App) fail(err error) subcommands.ExitStatus {
	var short *repo.InsufficientStockError
	if errors.As(err, &short) {
		fmt.Fprintf(a.stderr(), "Error: insufficient quantity available. Current stock: %d\n", short.Current)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(a.stderr(), "Error: %v\n", err)
	if repo.ErrorKind(err) == repo.KindValidation {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// formatMoney displays an amount in the configured currency.
func (a *App) formatMoney(amount decimal.Decimal) string {
	code := a.Currency
	if code == "" {
		code = money.USD
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := amount.Mul(factor).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}
