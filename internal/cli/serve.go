package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PiazzaSanPietro/agvn/internal/config"
	"github.com/PiazzaSanPietro/agvn/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string

	// Ready, when set, receives the server before it starts listening
	// (for testing).
	Ready func(*server.Server)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API used by the visual novel frontend.

POST /generate?index=N generates the next chapter. The read-only endpoints
under /api expose the stored story. Without GOOGLE_API_KEY the server still
starts, but generation requests are answered with 503.

Example:
  agvn serve
  agvn serve --addr :9000 --log-format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $AGVN_HTTP_ADDR or :8000)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger, err := opts.logger(cmd)
	if err != nil {
		return err
	}

	addr := opts.Addr
	if addr == "" {
		addr = opts.Config.HTTPAddr
	}
	if addr == "" {
		addr = ":8000"
	}

	logger.Info().Str("path", opts.databasePath()).Msg("opening database")
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("error closing database")
		}
	}()

	deps := server.Deps{
		Store:          st,
		AllowedOrigins: opts.Config.AllowedOrigins,
		Logger:         logger,
	}
	wf, err := opts.newWorkflow(st, logger)
	switch {
	case errors.Is(err, config.ErrMissingAPIKey):
		logger.Warn().Err(err).Msg("generation disabled")
	case err != nil:
		return WrapExitError(ExitCommandError, "failed to set up generation", err)
	default:
		deps.Generator = wf
	}

	srv := server.New(deps)
	if opts.Ready != nil {
		opts.Ready(srv)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", addr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := srv.Run(ctx, addr); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	return nil
}
