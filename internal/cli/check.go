package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

type checkCmd struct {
	app *App
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "check that the store is reachable" }
func (*checkCmd) Usage() string {
	return `check

  Opens the store, runs migrations and verifies the connection.
  Exits non-zero when the store is unhealthy.
`
}

func (c *checkCmd) SetFlags(*flag.FlagSet) {}

func (c *checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := c.app.Ledger()
	if err != nil {
		return c.app.fail(err)
	}
	if err := ledger.Health(ctx); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("healthy\n")
	return subcommands.ExitSuccess
}
