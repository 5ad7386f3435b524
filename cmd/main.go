// cmd/main.go is the application entry point.
// It wires together all layers behind a cobra CLI: serve, migrate, audit, token.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/clock"
	"github.com/Shivanand-hulikatti/event-ledger/internal/config"
	"github.com/Shivanand-hulikatti/event-ledger/internal/handler"
	"github.com/Shivanand-hulikatti/event-ledger/internal/logging"
	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/Shivanand-hulikatti/event-ledger/internal/service"
	"github.com/Shivanand-hulikatti/event-ledger/internal/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg *config.Config
		log *slog.Logger
	)

	rootCmd := &cobra.Command{
		Use:           "event-ledger",
		Short:         "Capacity-gated event registration service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			log = logging.New(cfg.Log)
			slog.SetDefault(log)
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Migrate the store and start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogged(log, "serve", func() error { return serve(cmd.Context(), cfg, log) })
		},
	}
	rootCmd.AddCommand(serveCmd)
	// Running the binary without a subcommand serves.
	rootCmd.RunE = serveCmd.RunE

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogged(log, "migrate", func() error {
				b, err := openBackend(cmd.Context(), cfg, log)
				if err != nil {
					return err
				}
				b.close()
				return nil
			})
		},
	})

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Report events whose seat count drifted from their confirmed registrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			eventIDs, _ := cmd.Flags().GetStringSlice("event")
			return runLogged(log, "audit", func() error {
				return audit(cmd, cfg, log, eventIDs)
			})
		},
	}
	auditCmd.Flags().StringSlice("event", nil, "Event id to audit (repeatable); audits every event when omitted")
	rootCmd.AddCommand(auditCmd)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")
			role, _ := cmd.Flags().GetString("role")
			email, _ := cmd.Flags().GetString("email")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if cfg.Auth.JWTSecret == "" {
				return errors.New("AUTH_JWT_SECRET is required")
			}
			tok, err := handler.IssueToken([]byte(cfg.Auth.JWTSecret), model.Identity{
				UserID: user,
				Role:   model.Role(strings.ToUpper(role)),
				Email:  email,
			}, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	tokenCmd.Flags().String("user", "", "User id carried in the token")
	tokenCmd.Flags().String("role", string(model.RoleUser), "Role: USER|ORGANIZER")
	tokenCmd.Flags().String("email", "", "Email carried in the token")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)

	return rootCmd
}

func runLogged(log *slog.Logger, name string, fn func() error) error {
	if err := fn(); err != nil {
		log.Error(name+" failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// serve runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests before closing the store.
func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Tracing ────────────────────────────────────────────────────────
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()

	// ── 2. Store ──────────────────────────────────────────────────────────
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	// ── 3. Wire up layers ────────────────────────────────────────────────
	clk := clock.NewSystem()
	h := handler.New(
		service.NewEventService(b.stores, clk, cfg.Ledger, log),
		service.NewLedger(b.stores, clk, cfg.Ledger, log),
		service.NewQueryService(b.stores),
		b.ping,
		log,
	)
	router := handler.NewRouter(h, handler.RouterConfig{
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Log:         log,
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening",
			slog.String("addr", cfg.HTTP.Addr),
			slog.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

var errDrift = errors.New("seat count drift")

// audit prints one line per event and fails when any counter drifted.
func audit(cmd *cobra.Command, cfg *config.Config, log *slog.Logger, eventIDs []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	q := service.NewQueryService(b.stores)

	var audits []model.SeatAudit
	if len(eventIDs) == 0 {
		if audits, err = q.AuditAll(ctx); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
	} else {
		audits = make([]model.SeatAudit, len(eventIDs))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, id := range eventIDs {
			g.Go(func() error {
				a, err := q.AuditSeatCount(gctx, strings.TrimSpace(id))
				if err != nil {
					return fmt.Errorf("audit %s: %w", id, err)
				}
				audits[i] = a
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tTITLE\tSEAT_COUNT\tCONFIRMED\tSTATUS")
	drifted := 0
	for _, a := range audits {
		status := "ok"
		if !a.Consistent() {
			status = "DRIFT"
			drifted++
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", a.EventID, a.Title, a.SeatCount, a.Confirmed, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if drifted > 0 {
		return fmt.Errorf("%w in %d of %d event(s)", errDrift, drifted, len(audits))
	}
	log.Info("audit clean", slog.Int("events", len(audits)))
	return nil
}
