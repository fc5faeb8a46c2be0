package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukaszraczylo/idptest/internal/cleanup"
	"github.com/lukaszraczylo/idptest/internal/sandbox"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = time.Minute
)

func (a *App) sandboxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sandbox",
		Short: "Serve a local console API for trying the connection test",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serveSandbox(ctx)
		},
	}
}

func (a *App) serveSandbox(ctx context.Context) error {
	log := a.log("sandbox")
	sc := a.cfg.Sandbox

	cfg := sandbox.DefaultConfig()
	cfg.Secret = sc.Secret
	cfg.APIPath = a.cfg.Server.APIPath
	cfg.ResultTTL = sc.ResultTTL
	cfg.RPS = sc.RPS
	cfg.Burst = sc.Burst

	srv, err := sandbox.New(cfg, log)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              sc.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper := cleanup.NewBackgroundTask("sandbox-sweep", sweepInterval, func(context.Context) {
		if n := srv.Sweep(); n > 0 {
			log.Debugf("Evicted %d expired debug sessions", n)
		}
	}, log)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	fmt.Fprintf(a.out, "Sandbox listening on http://%s\n", sc.Addr)
	fmt.Fprintf(a.out, "Get a console session cookie from http://%s/sandbox/login\n", sc.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Infof("Shutting down sandbox")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
