package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/WattMatt/greencalc-sa-sub011/internal/api"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	srvAddr        string
	srvCORSOrigins []string
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API used by the column-mapping UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ServeAddr
		if cmd.Flags().Changed("addr") && srvAddr != "" {
			addr = srvAddr
		}
		origins := cfg.CORSOrigins
		if cmd.Flags().Changed("cors-origin") {
			origins = srvCORSOrigins
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}

		opts := api.Options{
			Defaults: analysis.Config{
				VoltageV:    cfg.VoltageV,
				PowerFactor: cfg.PowerFactor,
			},
			Validator:   analysis.Validator{MaxPeakKW: cfg.MaxPeakKW},
			CORSOrigins: origins,
			Logger:      logger,
		}
		if u, err := analysis.ParseUnit(cfg.ValueUnit); err == nil {
			opts.Defaults.ValueUnit = u
		}
		if o, err := analysis.ParseDateOrder(cfg.DateOrder); err == nil {
			opts.Defaults.DateOrder = o
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, addr, api.Handler(opts), cmd)
	},
}

func serve(ctx context.Context, addr string, h http.Handler, cmd *cobra.Command) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on %s\n", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server.stopped", "addr", addr)
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringSliceVar(&srvCORSOrigins, "cors-origin", nil, "allowed CORS origin (repeatable, overrides config)")
}
