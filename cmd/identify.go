package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shelfpoint/scanbridge/internal/books"
	"github.com/shelfpoint/scanbridge/internal/config"
	"github.com/shelfpoint/scanbridge/internal/resolver"
	"github.com/shelfpoint/scanbridge/internal/vision"
	"github.com/spf13/cobra"
)

func newIdentifyCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identify <image-file>",
		Short: "Identify a book from a cover image",
		Long: `Runs the cover identification chain on an image file and prints the
resolved book metadata as JSON. Exits non-zero only on a service failure;
"no book identified" is reported in the output, not as an error.`,
		Example: `  scanbridge identify cover.jpg`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateVision(); err != nil {
				return err
			}
			setupLogging(cfg)

			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image %s: %w", args[0], err)
			}

			booksClient, err := books.NewClient(cmd.Context(), cfg.BooksAPIURL)
			if err != nil {
				return err
			}
			visionClient := vision.NewClient(cfg.VisionAPIURL, cfg.NetworkTimeout())
			r := resolver.New(visionClient, booksClient)

			book, err := r.Identify(cmd.Context(), image)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(book, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	return cmd
}
