package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rumor-ml/ledgerecon/internal/config"
	"github.com/rumor-ml/ledgerecon/internal/domain"
	"github.com/rumor-ml/ledgerecon/internal/engine"
	"github.com/rumor-ml/ledgerecon/internal/logger"
	"github.com/rumor-ml/ledgerecon/internal/server"
	"github.com/rumor-ml/ledgerecon/internal/store"
	"github.com/rumor-ml/ledgerecon/internal/ui"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")
	configFile  = flag.String("config", "", "YAML config file (defaults apply when omitted)")

	// Serve mode
	serveMode = flag.Bool("serve", false, "Run the HTTP API server")

	// One-shot CLI mode
	inputFile = flag.String("input", "", "Statement file to preview or import")
	doImport  = flag.Bool("import", false, "Confirm the import instead of only previewing")
	ownerType = flag.String("owner-type", "user", "Owner type: user or group")
	ownerID   = flag.String("owner-id", "", "Owner ID (required for preview/import)")
	billID    = flag.String("bill-payment", "", "Bill payment transaction to expand (overrides the matched candidate)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `ledgerecon - Credit card statement reconciliation and categorization

Usage:
  ledgerecon [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Run the HTTP API
  ledgerecon -serve -config ledgerecon.yaml

  # Preview a statement against recorded bill payments
  ledgerecon -input statement.txt -owner-id user-1

  # Confirm the import
  ledgerecon -input statement.txt -owner-id user-1 -import

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("ledgerecon version %s\n", version)
		os.Exit(0)
	}

	if !*serveMode && *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Error: either -serve or -input is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New()
	ctx = logger.WithContext(ctx, log)

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	var owner domain.Owner
	if !*serveMode {
		owner = domain.Owner{Type: domain.OwnerType(*ownerType), ID: *ownerID}
		if err := owner.Validate(); err != nil {
			return fmt.Errorf("invalid owner flags: %w", err)
		}
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	e := engine.New(cfg, st)

	if *serveMode {
		return serve(ctx, cfg, e, log)
	}
	return runStatement(ctx, e, owner)
}

// serve runs the HTTP API until the context is cancelled.
func serve(ctx context.Context, cfg config.Config, e *engine.Engine, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(e).Handler(),
		// Carries the logger into request contexts.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// runStatement previews (and optionally imports) one statement file.
func runStatement(ctx context.Context, e *engine.Engine, owner domain.Owner) error {
	raw, err := os.ReadFile(*inputFile)
	if err != nil {
		return fmt.Errorf("failed to read statement file %s: %w", *inputFile, err)
	}

	preview, err := e.Preview(ctx, owner, string(raw))
	if err != nil {
		return err
	}
	ui.RenderPreview(*preview)

	if !*doImport {
		return nil
	}

	target := *billID
	if target == "" {
		if preview.Candidate == nil {
			return fmt.Errorf("no matching bill payment found; pass -bill-payment to choose one explicitly")
		}
		target = preview.Candidate.ID
	}

	result, err := e.Import(ctx, owner, string(raw), target)
	if err != nil {
		var dup *engine.DuplicateImportError
		if errors.As(err, &dup) {
			ui.Warning(err.Error())
			return nil
		}
		return err
	}

	ui.RenderImportResult(result.CreatedCount, result.CategorizedCount, preview.NetTotal)
	return nil
}
