package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/photoloader/internal/config"
	"github.com/lehigh-university-libraries/photoloader/internal/ingest"
	"github.com/lehigh-university-libraries/photoloader/internal/store"
)

func newIngestCmd() *cobra.Command {
	var configPath string
	var username string
	var photosetID string
	var source string
	var albumsIn []string
	var albumsExclude []string
	var withPhotos bool
	var storeKind string
	var outPath string
	var exifSource string
	var batchSize int
	var reportPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch, enrich and publish photos",
		Long: `Runs one ingestion against the Flickr API.

Credentials come from the config file, the environment (FLICKR_API_KEY,
MAPBOX_ACCESS_TOKEN, PHOTOLOADER_*) or a .env file. Geocoding is skipped
when no Mapbox token is set.`,
		Example: `  # Publish a photoset as one JSON file per photo
  photoloader ingest --username someone --photoset 72157600000000000 --out content/photos

  # Publish the whole photostream to a parquet snapshot
  photoloader ingest --username someone --store parquet --out photos.parquet

  # Publish one record per album, each with its photos
  photoloader ingest --username someone --source albums --with-photos --out content/albums

  # Use a config file and keep a run report
  photoloader ingest --config photoloader.yaml --report reports/latest.yaml --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbose)
			slog.SetDefault(logger)

			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("username") {
				cfg.Flickr.Username = username
			}
			if flags.Changed("photoset") {
				cfg.Flickr.PhotosetID = photosetID
			}
			if flags.Changed("source") {
				cfg.Flickr.Source = source
			}
			if flags.Changed("album") {
				cfg.Flickr.Albums.In = albumsIn
			}
			if flags.Changed("exclude-album") {
				cfg.Flickr.Albums.Exclude = albumsExclude
			}
			if flags.Changed("with-photos") {
				cfg.Flickr.Albums.WithPhotos = withPhotos
			}
			if flags.Changed("store") {
				cfg.Store.Kind = storeKind
			}
			if flags.Changed("out") {
				cfg.Store.Path = outPath
			}
			if flags.Changed("exif") {
				cfg.Enrich.ExifSource = exifSource
			}
			if flags.Changed("batch-size") {
				cfg.Enrich.BatchSize = batchSize
			}

			return executeIngest(cmd.Context(), cfg, logger, reportPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Flickr username to ingest")
	cmd.Flags().StringVar(&photosetID, "photoset", "", "Photoset (album) id; the photostream is used when empty")
	cmd.Flags().StringVar(&source, "source", config.SourcePhotos, "What to publish: photos or albums")
	cmd.Flags().StringSliceVar(&albumsIn, "album", nil, "Only publish these album ids (albums source, repeatable)")
	cmd.Flags().StringSliceVar(&albumsExclude, "exclude-album", nil, "Skip these album ids (albums source, repeatable)")
	cmd.Flags().BoolVar(&withPhotos, "with-photos", false, "Embed each album's photos in its record")
	cmd.Flags().StringVar(&storeKind, "store", config.StoreFile, "Content store: file, parquet, memory, s3, postgres, mongo")
	cmd.Flags().StringVarP(&outPath, "out", "o", "content/photos", "Output directory (file) or snapshot path (parquet)")
	cmd.Flags().StringVar(&exifSource, "exif", config.ExifAPI, "EXIF source: api, image or none")
	cmd.Flags().IntVar(&batchSize, "batch-size", 10, "Photos enriched concurrently per batch")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML run report to this path")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	return cmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func executeIngest(ctx context.Context, cfg *config.Config, logger *slog.Logger, reportPath string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Kind, err)
	}

	pipeline, err := ingest.New(cfg, ingest.Options{Store: st, Logger: logger})
	if err != nil {
		_ = st.Close(ctx)
		return err
	}

	summary, runErr := pipeline.Run(ctx)

	// Close with a fresh context so an interrupted run still flushes what it has
	closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := st.Close(closeCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to close store: %w", err))
	}

	if summary != nil {
		printSummary(summary)
		if reportPath != "" {
			if err := summary.SaveYAML(reportPath); err != nil {
				return errors.Join(runErr, err)
			}
			fmt.Printf("\nRun report saved to: %s\n", reportPath)
		}
	}

	return runErr
}

func printSummary(s *ingest.Summary) {
	count := func(n int) string { return humanize.Comma(int64(n)) }

	fmt.Println()
	fmt.Printf("Run %s (%s)\n", s.RunID, s.Source)
	fmt.Printf("  Listed:     %s records on %s pages\n", count(s.Listed), count(s.Pages))
	if s.Filtered > 0 {
		fmt.Printf("  Filtered:   %s\n", count(s.Filtered))
	}
	fmt.Printf("  Published:  %s\n", count(s.Published))
	fmt.Printf("  Unchanged:  %s\n", count(s.Unchanged))
	fmt.Printf("  Skipped:    %s\n", count(s.Skipped))
	fmt.Printf("  Invalid:    %s\n", count(s.Invalid))
	fmt.Printf("  Failed:     %s\n", count(s.Failed))
	if s.ExifDegraded > 0 || s.GeocodeDegraded > 0 {
		fmt.Printf("  Degraded:   %s without EXIF, %s without location\n", count(s.ExifDegraded), count(s.GeocodeDegraded))
	}
	fmt.Printf("  Took:       %s\n", s.Duration().Round(time.Millisecond))
}
