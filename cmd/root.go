package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/shelfpoint/scanbridge/internal/config"
	"github.com/spf13/cobra"
)

// setupLogging applies the configured verbosity to the default logger.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.DebugMode {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "scanbridge",
		Short: "Barcode scan-event pipeline with book cover identification",
		Long: `Scanbridge debounces raw barcode detections, delivers clean scan events
to a webhook sink, and identifies book covers through an image-recognition
fallback chain (web detection ISBN, OCR title, web entity).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (env vars override)")

	// Add subcommands
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newIdentifyCmd(&configPath))
	cmd.AddCommand(newSendCmd(&configPath))

	return cmd
}
