// Package server provides the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Server timeouts.
const (
	readHeaderTimeout = 1 * time.Second
	readTimeout       = 5 * time.Second
	writeTimeout      = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Run listens on addr and serves srv until the context is canceled, then
// shuts the server down gracefully within a bounded timeout. The server is
// configured with standard timeouts. Use "127.0.0.1:0" for a random
// available port; the bound address is logged once listening.
func Run(ctx context.Context, logger *slog.Logger, srv *http.Server, addr string) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	srv.ReadHeaderTimeout = readHeaderTimeout
	srv.ReadTimeout = readTimeout
	srv.WriteTimeout = writeTimeout

	logger.InfoContext(ctx,
		"starting web server...",
		slog.String("address", listener.Addr().String()),
	)

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		err := srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	grp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return grp.Wait()
}
