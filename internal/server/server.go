package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"todo-web/internal/config"
	"todo-web/internal/logging"
	"todo-web/internal/tls"

	"golang.org/x/sync/errgroup"
)

// Run serves handler until ctx is cancelled, then shuts down gracefully.
// With TLS enabled it serves HTTPS on cfg.TLS.Port and, when configured, a
// redirect on cfg.TLS.HTTPPort.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	// Request contexts derive from base so open event streams end on shutdown
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	var servers []*http.Server
	newServer := func(addr string, h http.Handler) *http.Server {
		srv := &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return base },
		}
		servers = append(servers, srv)
		return srv
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.TLS.Enabled {
		tlsConfig, err := cfg.TLS.ServerTLSConfig()
		if err != nil {
			return fmt.Errorf("failed to configure TLS: %w", err)
		}

		httpsServer := newServer(":"+cfg.TLS.Port, handler)
		httpsServer.TLSConfig = tlsConfig
		g.Go(func() error {
			logging.Logger.Infof("Starting HTTPS server on port %s...", cfg.TLS.Port)
			return ignoreClosed(httpsServer.ListenAndServeTLS("", ""))
		})

		if cfg.TLS.RedirectHTTP {
			redirectServer := newServer(":"+cfg.TLS.HTTPPort, tls.HTTPSRedirectHandler(cfg.TLS.Port))
			g.Go(func() error {
				logging.Logger.Infof("Redirecting HTTP on port %s to HTTPS", cfg.TLS.HTTPPort)
				return ignoreClosed(redirectServer.ListenAndServe())
			})
		}
	} else {
		httpServer := newServer(":"+cfg.Port, handler)
		g.Go(func() error {
			logging.Logger.Infof("Starting server on port %s...", cfg.Port)
			return ignoreClosed(httpServer.ListenAndServe())
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logging.Logger.Info("Shutting down server...")
		cancelBase()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
