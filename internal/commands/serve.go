package commands

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/reconciliation-bot/internal/api"
	"github.com/insightdelivered/reconciliation-bot/internal/buildinfo"
	"github.com/insightdelivered/reconciliation-bot/internal/extractor"
	"github.com/insightdelivered/reconciliation-bot/internal/logger"
	"github.com/insightdelivered/reconciliation-bot/internal/parser"
	"github.com/insightdelivered/reconciliation-bot/internal/pipeline"
)

func newServeCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, st)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Bool("include-uncategorized", true, "default for requests that do not set include_uncategorized")
	cmd.Flags().Bool("debug", false, "default for requests that do not set debug")
	return cmd
}

func runServe(ctx context.Context, st *state) error {
	cfg := st.cfg
	h := &api.Handler{
		Engine:               pipeline.NewFromConfig(cfg),
		IncludeUncategorized: cfg.IncludeUncategorized,
		Debug:                cfg.Debug,
	}
	log := logger.WithFields(st.log, map[string]interface{}{
		"addr":    cfg.Server.Addr,
		"version": buildinfo.Version,
	})
	warnMissingTools(log, pipeline.ParserOptions(cfg))
	app := api.NewApp(h, log, api.ServerOptions{BodyLimitMB: cfg.Server.BodyLimitMB})

	errCh := make(chan error, 1)
	go func() {
		color.New(color.FgGreen).Printf("Listening on %s\n", cfg.Server.Addr)
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// warnMissingTools logs the external binaries image and PDF fallback
// extraction will not find. The server still starts.
func warnMissingTools(log zerolog.Logger, opts parser.Options) bool {
	ok := true
	if tess, isTess := opts.OCR.(extractor.Tesseract); isTess && !tess.Available() {
		log.Warn().Str("binary", tess.Binary).Msg("tesseract not found; image statements will fail")
		ok = false
	}
	if opts.PDF.Pdftotext {
		if _, err := exec.LookPath("pdftotext"); err != nil {
			log.Warn().Msg("pdftotext not found; PDF extraction uses the library only")
			ok = false
		}
	}
	return ok
}
