package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photoloader",
		Short: "Flickr photo ingestion for static sites",
		Long: `Photoloader pulls a Flickr photoset or photostream, enriches every photo
with camera EXIF data and a reverse-geocoded place name, and publishes
normalized, schema-checked records to a content store.

Records are only rewritten when their content digest changes.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newInspectCmd())

	return cmd
}
