package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/photoloader/internal/photos"
	"github.com/lehigh-university-libraries/photoloader/internal/store"
)

func newInspectCmd() *cobra.Command {
	var path string
	var limit int
	var showExif bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List published photos and albums with their digests",
		Long: `Inspect records in a file store directory or a parquet snapshot.

Useful for checking what a run published and which digest each record
was stored with.`,
		Example: `  # First 10 records of a content directory
  photoloader inspect --path content/photos

  # Every record of a parquet snapshot, with EXIF
  photoloader inspect --path photos.parquet --limit 0 --exif`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("--path is required")
			}
			return executeInspect(cmd.Context(), path, limit, showExif)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "File store directory or .parquet snapshot (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to show (0 for all)")
	cmd.Flags().BoolVar(&showExif, "exif", false, "Show EXIF values")

	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func loadEntries(ctx context.Context, path string) ([]store.Entry, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return store.ReadParquet(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is neither a directory nor a .parquet file", path)
	}

	fs, err := store.NewFile(path)
	if err != nil {
		return nil, err
	}
	return fs.List(ctx)
}

func executeInspect(ctx context.Context, path string, limit int, showExif bool) error {
	entries, err := loadEntries(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	fmt.Printf("Loaded %s records from %s\n", humanize.Comma(int64(len(entries))), path)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	for i, entry := range entries {
		select {
		case <-ctx.Done():
			fmt.Println("\nInspection interrupted.")
			return nil
		default:
		}

		var kind struct {
			Primary string `json:"primary"`
		}
		if err := json.Unmarshal(entry.Data, &kind); err != nil {
			fmt.Printf("RECORD %d: %s (undecodable: %v)\n\n", i+1, entry.ID, err)
			continue
		}

		fmt.Printf("RECORD %d/%d\n", i+1, len(entries))
		fmt.Println(strings.Repeat("-", 80))
		fmt.Printf("ID:         %s\n", entry.ID)
		fmt.Printf("Digest:     %s\n", entry.Digest)
		fmt.Printf("Size:       %s\n", humanize.Bytes(uint64(len(entry.Data))))

		var err error
		if kind.Primary != "" {
			err = printAlbum(entry.Data)
		} else {
			err = printPhoto(entry.Data, showExif)
		}
		if err != nil {
			fmt.Printf("(undecodable: %v)\n", err)
		}
		fmt.Println()
	}

	return nil
}

func printMetadata(metadata map[string]string) {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("Meta:       %s = %s\n", k, metadata[k])
	}
}

func printPhoto(data []byte, showExif bool) error {
	var p photos.Photo
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	fmt.Printf("Title:      %s\n", p.Title)
	fmt.Printf("Taken:      %s\n", p.DateTaken.Format("2006-01-02 15:04:05"))
	if p.LocationName != "" {
		fmt.Printf("Location:   %s\n", p.LocationName)
	}
	if len(p.Tags) > 0 {
		fmt.Printf("Tags:       %s\n", strings.Join(p.Tags, ", "))
	}
	printMetadata(p.Metadata)
	if original, ok := p.Original(); ok {
		fmt.Printf("Original:   %dx%d %s\n", original.Width, original.Height, original.Orientation)
	}
	fmt.Printf("Variants:   %d\n", len(p.ImageURLs))
	if p.Camera != nil {
		fmt.Printf("Camera:     %s %s\n", p.Camera.Model, p.Camera.Lens)
	}
	if showExif {
		tags := make([]string, 0, len(p.Exif))
		for tag := range p.Exif {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			fmt.Printf("  %-24s %s\n", tag, p.Exif[tag].Value)
		}
	}
	return nil
}

func printAlbum(data []byte) error {
	var a photos.Album
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	fmt.Printf("Album:      %s\n", a.Title)
	fmt.Printf("Primary:    %s\n", a.Primary)
	fmt.Printf("Counts:     %s photos, %s videos, %s views\n",
		humanize.Comma(int64(a.PhotoCount)), humanize.Comma(int64(a.VideoCount)), humanize.Comma(int64(a.Views)))
	if a.DateCreate != nil {
		fmt.Printf("Created:    %s\n", a.DateCreate.Format("2006-01-02"))
	}
	printMetadata(a.Metadata)
	if len(a.Photos) > 0 {
		fmt.Printf("Embedded:   %d photos\n", len(a.Photos))
	}
	return nil
}
