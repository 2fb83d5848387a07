package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdash/internal/backend"
	"taskdash/internal/config"
	"taskdash/internal/exitcode"
	"taskdash/internal/output"
)

func init() {
	Register(&VerifyCmd{})
}

// VerifyCmd checks a bearer token against the configured identity provider.
type VerifyCmd struct{}

func (c *VerifyCmd) Name() string       { return "verify" }
func (c *VerifyCmd) Aliases() []string  { return nil }
func (c *VerifyCmd) Synopsis() string   { return "Verify a bearer token and print its identity" }
func (c *VerifyCmd) Usage() string      { return "taskdash verify [common flags] <token>" }
func (c *VerifyCmd) NeedsBackend() bool { return true }

func (c *VerifyCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *VerifyCmd) Run(ctx context.Context, cfg *config.Config, be *backend.Backend, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: token required")
		return exitcode.UserError
	}

	// accept a pasted Authorization header value as well
	token := strings.TrimSpace(strings.TrimPrefix(args[0], "Bearer "))
	if token == "" {
		fmt.Fprintln(errOut, "error: token required")
		return exitcode.UserError
	}

	id, err := be.Verifier.Verify(ctx, token)
	if err != nil {
		fmt.Fprintf(errOut, "error: token rejected: %v\n", err)
		return exitcode.FromError(err)
	}

	output.FormatIdentity(out, id)
	return exitcode.Success
}
