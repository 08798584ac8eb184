package cmd

import (
	"fmt"

	"github.com/shelfpoint/scanbridge/internal/clock"
	"github.com/shelfpoint/scanbridge/internal/config"
	"github.com/shelfpoint/scanbridge/internal/debounce"
	"github.com/shelfpoint/scanbridge/internal/delivery"
	"github.com/shelfpoint/scanbridge/internal/session"
	"github.com/spf13/cobra"
)

func newSendCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <code>",
		Short: "Deliver a single code to the event sink",
		Long: `Submits one code through the same validate+debounce+deliver path the
server uses. Useful for testing the webhook wiring.`,
		Example: `  scanbridge send 9780134190440`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			setupLogging(cfg)

			gate := debounce.NewGate(cfg.ScanCooldown())
			deliverer := delivery.NewClient(cfg.WebhookURL, cfg.MaxRetries, cfg.RetryDelay(), cfg.NetworkTimeout())
			coordinator := session.New(cfg, gate, deliverer, nil, nil, nil, clock.New())

			result := coordinator.SubmitManual(cmd.Context(), args[0], "scanbridge-cli")
			switch result.Status {
			case session.StatusDelivered:
				fmt.Printf("Delivered %s (sink status %d, session %s)\n", args[0], result.SinkStatus, coordinator.SessionID())
				return nil
			case session.StatusInvalid:
				return fmt.Errorf("invalid code %q: must be 8-14 digits", args[0])
			default:
				if result.Err != nil {
					return result.Err
				}
				return fmt.Errorf("delivery failed with sink status %d", result.SinkStatus)
			}
		},
	}

	return cmd
}
