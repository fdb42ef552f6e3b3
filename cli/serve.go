package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ytlists/internal/logging"
	"ytlists/server"
)

const shutdownTimeout = 10 * time.Second

func (r *runtime) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON API",
		Long: `Serves the session, the subscription catalog and the lists over HTTP
for a front end running on this machine. The catalog is fetched once at
start when signed in, and again on POST /subscriptions/refresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = r.cfg.ListenAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			log := logging.For("serve")
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.NewServer(a.Session, a.Fetcher, a.Catalog, a.Lists).Router(),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			if _, signedIn := a.Session.Credential(); signedIn {
				go func() {
					if err := a.Fetcher.FetchAll(ctx); err != nil {
						log.Warn().Err(upstreamError(err)).Msg("initial catalog fetch failed")
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from listen_addr)")
	return cmd
}
