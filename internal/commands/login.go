package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"taskdash/internal/backend"
	"taskdash/internal/config"
	"taskdash/internal/exitcode"
	"taskdash/internal/output"
	"taskdash/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd signs in with Google and prints the ID token, for use as a
// bearer token against the API. The token is not saved.
type LoginCmd struct {
	// signIn runs the browser flow and returns the ID token.
	signIn func(ctx context.Context, clientJSON []byte, prompt io.Writer) (string, error)
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Sign in with Google and print the ID token" }
func (c *LoginCmd) Usage() string      { return "taskdash login [common flags]" }
func (c *LoginCmd) NeedsBackend() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, be *backend.Backend, args []string, out, errOut io.Writer) int {
	if !cfg.HasOAuthClient() {
		fmt.Fprintf(errOut, "error: %s not found in %s\n\n", config.OAuthClientFile, cfg.Dir)
		fmt.Fprintln(errOut, "To sign in with Google, you need OAuth credentials:")
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
		fmt.Fprintln(errOut, "2. Create OAuth 2.0 credentials of type 'Desktop app'")
		fmt.Fprintln(errOut, "3. Download the JSON file and save it as:")
		fmt.Fprintf(errOut, "   %s\n", cfg.OAuthClientPath())
		return exitcode.AuthError
	}

	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read %s: %v\n", config.OAuthClientFile, err)
		return exitcode.AuthError
	}

	signIn := c.signIn
	if signIn == nil {
		signIn = googleSignIn
	}
	token, err := signIn(ctx, clientJSON, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: sign-in failed: %v\n", err)
		return exitcode.AuthError
	}

	id, err := session.NewManager().SignIn(ctx, token)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if cfg.Quiet {
		fmt.Fprintln(out, token)
		return exitcode.Success
	}
	output.FormatIdentity(out, id)
	fmt.Fprintf(out, "token:        %s\n", token)
	return exitcode.Success
}

func googleSignIn(ctx context.Context, clientJSON []byte, prompt io.Writer) (string, error) {
	g, err := session.NewGoogleSignIn(clientJSON, prompt)
	if err != nil {
		return "", err
	}
	return g.IDToken(ctx)
}
