// Command fula-gateway runs the S3-compatible content-addressed
// storage gateway.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/functionland/fula-gateway/internal/config"
	"github.com/functionland/fula-gateway/internal/gateway"
	"github.com/functionland/fula-gateway/internal/gwlog"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "fula-gateway",
		Short: "S3-compatible gateway over a content-addressed block store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}

	if err := config.BindFlags(cmd, v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	log := gwlog.New(false)
	cfg, err := config.Load(v, log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Debug {
		log = gwlog.New(true)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	state, err := gateway.NewState(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize gateway: %w", err)
	}

	go state.RunRegistryWatcher(ctx)
	go state.RunMultipartExpiry(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: state.Server(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Print(gwlog.LevelInfo, "gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Print(gwlog.LevelInfo, "shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err.Error()).Print(gwlog.LevelError, "graceful shutdown failed")
	}
	state.PersistOnShutdown(shutdownCtx)

	return nil
}
