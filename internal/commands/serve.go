package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"taskdash/internal/api"
	"taskdash/internal/backend"
	"taskdash/internal/config"
	"taskdash/internal/exitcode"
	"taskdash/internal/logging"
	"taskdash/internal/output"
	"taskdash/internal/tasks"
)

// Graceful shutdown deadline
const shutdownTimeout = 10 * time.Second

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command.
type ServeCmd struct {
	addr string

	// onListen is called once the listener is bound.
	onListen func(net.Addr)
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Run the task API server" }
func (c *ServeCmd) Usage() string      { return "taskdash serve [common flags] [--addr <host:port>]" }
func (c *ServeCmd) NeedsBackend() bool { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, be *backend.Backend, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	logger := logging.New(errOut, cfg)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := api.NewServer(api.Options{
		Tasks:            tasks.NewManager(be.Store),
		Verifier:         be.Verifier,
		Logger:           logger,
		StrictValidation: cfg.Server.StrictValidation,
		CORSOrigins:      cfg.Server.CORSOrigins,
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	addr := c.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: could not listen on %s: %v\n", addr, err)
		return exitcode.UserError
	}

	httpServer := &http.Server{
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if !cfg.Quiet {
		output.FormatListening(out, ln.Addr().String())
	}
	logger.Info("server started",
		"addr", ln.Addr().String(),
		"store", cfg.Store.Driver,
		"auth", cfg.Auth.Provider,
		"strict", cfg.Server.StrictValidation,
	)
	if c.onListen != nil {
		c.onListen(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "err", err)
		fmt.Fprintf(errOut, "error: server error: %v\n", err)
		return exitcode.BackendError
	}
	logger.Info("server stopped")
	return exitcode.Success
}
