package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/lehigh-university-libraries/photoloader/internal/config"
	"github.com/lehigh-university-libraries/photoloader/internal/flickr"
	"github.com/lehigh-university-libraries/photoloader/internal/photos"
)

// albumFilter applies the in / nin photoset id lists
type albumFilter struct {
	in      []string
	exclude []string
}

func newAlbumFilter(cfg config.Albums) albumFilter {
	return albumFilter{in: cfg.In, exclude: cfg.Exclude}
}

func (f albumFilter) keep(id string) bool {
	if len(f.in) > 0 && !slices.Contains(f.in, id) {
		return false
	}
	return !slices.Contains(f.exclude, id)
}

// runAlbums publishes one record per photoset. Albums are not enriched; with
// WithPhotos each record embeds its normalized photos as listed.
func (p *Pipeline) runAlbums(ctx context.Context, logger *slog.Logger, userID string, summary *Summary) error {
	summary.Source = "albums"
	params := flickr.ListParams{
		UserID:  userID,
		PerPage: p.cfg.Flickr.PerPage,
		Extras:  p.cfg.Flickr.Extras,
	}

	pages, err := flickr.Paginate(ctx, func(ctx context.Context, page int) (*flickr.Listing, error) {
		listing, err := p.client.Photosets(ctx, params, page)
		if err != nil {
			return nil, err
		}
		logger.Info("Fetched albums page", "page", page, "pages", listing.Pages, "items", len(listing.Items))
		return listing, nil
	})
	if err != nil {
		return fmt.Errorf("failed to list albums: %w", err)
	}
	summary.Pages = len(pages)

	raw := flickr.Flatten(pages)
	summary.Listed = len(raw)
	filter := newAlbumFilter(p.cfg.Flickr.Albums)

	for _, item := range raw {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}

		album, err := photos.NormalizeAlbum(item)
		if err != nil {
			summary.skip(item.ID(), err)
			logger.Warn("Skipping album", "id", item.ID(), "error", err)
			continue
		}
		if !filter.keep(album.ID) {
			summary.Filtered++
			logger.Debug("Album filtered out", "id", album.ID)
			continue
		}

		if p.cfg.Flickr.Albums.WithPhotos {
			members, err := p.albumPhotos(ctx, logger, album.ID, params)
			if err != nil {
				if ctx.Err() != nil {
					return fmt.Errorf("run interrupted: %w", ctx.Err())
				}
				summary.fail(album.ID, err)
				logger.Error("Failed to list album photos", "id", album.ID, "error", err)
				continue
			}
			album.Photos = members
		}

		if err := photos.ValidateAlbum(album); err != nil {
			summary.invalid(album.ID, err)
			logger.Error("Dropping invalid album", "id", album.ID, "error", err)
			continue
		}

		result, err := p.publisher.PublishAlbum(ctx, album)
		settle(logger, summary, album.ID, result, err)
	}

	logger.Info("Finished album ingestion",
		"listed", summary.Listed,
		"filtered", summary.Filtered,
		"published", summary.Published,
		"unchanged", summary.Unchanged,
		"invalid", summary.Invalid,
		"failed", summary.Failed)

	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d albums failed", ErrIncompletePublish, summary.Failed, summary.Listed-summary.Filtered)
	}
	return nil
}

// albumPhotos lists and normalizes the photos of one album. Photos that
// cannot be normalized are left out of the album.
func (p *Pipeline) albumPhotos(ctx context.Context, logger *slog.Logger, albumID string, params flickr.ListParams) ([]*photos.Photo, error) {
	pages, err := flickr.Paginate(ctx, func(ctx context.Context, page int) (*flickr.Listing, error) {
		return p.client.PhotosetPhotos(ctx, albumID, params, page)
	})
	if err != nil {
		return nil, err
	}

	var members []*photos.Photo
	for _, item := range flickr.Flatten(pages) {
		photo, err := p.normalizer.Normalize(item)
		if err != nil {
			logger.Warn("Leaving photo out of album", "album", albumID, "id", item.ID(), "error", err)
			continue
		}
		members = append(members, photo)
	}
	return members, nil
}
