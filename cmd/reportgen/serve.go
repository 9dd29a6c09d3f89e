package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/reportgen/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API, previews and exports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = fmt.Sprintf(":%d", a.cfg.Port)
			}

			opts := []server.Options{server.WithLogger(a.logger)}
			if a.fetcher != nil {
				opts = append(opts, server.WithImageFetcher(a.fetcher))
			}
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.New(a.svc, opts...),
				ReadHeaderTimeout: 10 * time.Second,
				// a generation request holds the connection for the whole cycle
				WriteTimeout: a.cfg.AIRequestTimeout + 30*time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting server", "addr", addr, "provider", a.cfg.AIProvider, "history", a.cfg.HistoryBackend)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			a.logger.Info("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return httpServer.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: :$PORT)")
	return cmd
}
