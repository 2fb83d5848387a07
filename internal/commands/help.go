package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdash/internal/backend"
	"taskdash/internal/config"
	"taskdash/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	// Registry lists the commands to describe. Nil uses DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "taskdash help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, be *backend.Backend, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	cmds := reg.All()

	fmt.Fprintln(out, "Usage:")
	for _, cmd := range cmds {
		fmt.Fprintf(out, "  %s\n", cmd.Usage())
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range cmds {
		fmt.Fprintf(out, "  %-9s %s\n", cmd.Name(), cmd.Synopsis())
	}
	fmt.Fprint(out, commonFlagsText)
	return exitcode.Success
}

const commonFlagsText = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Enable debug logging
`
