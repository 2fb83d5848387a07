// Package commands provides the operator command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"taskdash/internal/backend"
	"taskdash/internal/config"
)

// Command defines the interface for taskdash commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsBackend returns true if the command needs the store and verifier.
	NeedsBackend() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always loaded and validated.
	// be is nil if NeedsBackend() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, be *backend.Backend, args []string, out, errOut io.Writer) int
}
