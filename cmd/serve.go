package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shelfpoint/scanbridge/internal/books"
	"github.com/shelfpoint/scanbridge/internal/clock"
	"github.com/shelfpoint/scanbridge/internal/config"
	"github.com/shelfpoint/scanbridge/internal/debounce"
	"github.com/shelfpoint/scanbridge/internal/delivery"
	"github.com/shelfpoint/scanbridge/internal/handlers"
	"github.com/shelfpoint/scanbridge/internal/journal"
	"github.com/shelfpoint/scanbridge/internal/resolver"
	"github.com/shelfpoint/scanbridge/internal/session"
	"github.com/shelfpoint/scanbridge/internal/storage"
	"github.com/shelfpoint/scanbridge/internal/vision"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scan intake server",
		Long: `Starts the Scanbridge intake server on the specified port.

The server accepts raw barcode detections, manual code entries, and cover
captures, and delivers debounced scan events to the configured webhook.`,
		Example: `  # Start server on default port 8888
  scanbridge serve

  # Start server on custom port
  scanbridge serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			setupLogging(cfg)

			booksClient, err := books.NewClient(cmd.Context(), cfg.BooksAPIURL)
			if err != nil {
				return err
			}
			visionClient := vision.NewClient(cfg.VisionAPIURL, cfg.NetworkTimeout())

			jrnl, err := journal.Open(cfg.JournalPath)
			if err != nil {
				return err
			}
			defer jrnl.Close()

			store := storage.New()
			gate := debounce.NewGate(cfg.ScanCooldown())
			deliverer := delivery.NewClient(cfg.WebhookURL, cfg.MaxRetries, cfg.RetryDelay(), cfg.NetworkTimeout())
			identifier := resolver.New(visionClient, booksClient)
			coordinator := session.New(cfg, gate, deliverer, identifier, store, jrnl, clock.New())

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go coordinator.Run(runCtx)

			handler := handlers.New(cfg, coordinator, store)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/scan", handler.HandleScan)
			mux.HandleFunc("/api/scan/manual", handler.HandleManualScan)
			mux.HandleFunc("/api/cover", handler.HandleCover)
			mux.HandleFunc("/api/sessions", handler.HandleSessions)
			mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Scanbridge intake available", "addr", addr, "session_id", coordinator.SessionID())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelShutdown()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
