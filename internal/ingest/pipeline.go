package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/photoloader/internal/config"
	"github.com/lehigh-university-libraries/photoloader/internal/enrich"
	"github.com/lehigh-university-libraries/photoloader/internal/flickr"
	"github.com/lehigh-university-libraries/photoloader/internal/photos"
	"github.com/lehigh-university-libraries/photoloader/internal/publish"
	"github.com/lehigh-university-libraries/photoloader/internal/store"
)

// ErrIncompletePublish is returned after a run in which at least one store
// write failed. Every other record was still attempted.
var ErrIncompletePublish = errors.New("some records could not be published")

// Options are the host collaborators of a run
type Options struct {
	// Store receives published records. Required.
	Store  store.Store
	Logger *slog.Logger
	Parse  publish.ParseFunc
	Digest publish.DigestFunc

	// ParseAlbum is the host hook for album records
	ParseAlbum publish.AlbumParseFunc

	// HTTPClient is shared by every upstream call. Defaults to a client with
	// the configured timeout.
	HTTPClient *http.Client
	// Now supplies dateTaken for photos without one
	Now func() time.Time

	// Exif and Geocoder override the sources built from the configuration
	Exif     enrich.ExifSource
	Geocoder enrich.Geocoder
}

// Pipeline runs one ingestion: list, normalize, enrich, validate, publish
type Pipeline struct {
	cfg        *config.Config
	client     *flickr.Client
	normalizer *photos.Normalizer
	engine     *enrich.Engine
	publisher  *publish.Publisher
	logger     *slog.Logger
}

// New checks the configuration and wires the run. A configuration problem is
// returned as a *config.Error and nothing is fetched.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, &config.Error{Field: "store", Reason: "is required"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	client := flickr.NewClient(cfg.Flickr.APIKey, flickr.Options{
		BaseURL:        cfg.Flickr.BaseURL,
		MaxAttempts:    cfg.Flickr.MaxAttempts,
		RetryDelay:     cfg.Flickr.RetryDelay,
		PermanentCodes: cfg.Flickr.PermanentCodes,
		HTTPClient:     httpClient,
	})

	exifSource := opts.Exif
	if exifSource == nil {
		switch cfg.Enrich.ExifSource {
		case config.ExifAPI:
			exifSource = &enrich.APIExif{Client: client}
		case config.ExifImage:
			exifSource = &enrich.ImageExif{HTTPClient: httpClient}
		}
	}

	geocoder := opts.Geocoder
	if geocoder == nil && cfg.Mapbox.AccessToken != "" {
		g := enrich.NewMapboxGeocoder(cfg.Mapbox.AccessToken, httpClient)
		if cfg.Mapbox.BaseURL != "" {
			g.BaseURL = cfg.Mapbox.BaseURL
		}
		geocoder = g
	}

	normalizer := photos.NewNormalizer()
	if opts.Now != nil {
		normalizer.Now = opts.Now
	}

	publisher := publish.New(opts.Store, opts.Parse, opts.Digest)
	publisher.ParseAlbum = opts.ParseAlbum

	return &Pipeline{
		cfg:        cfg,
		client:     client,
		normalizer: normalizer,
		engine: &enrich.Engine{
			Exif:      exifSource,
			Geocoder:  geocoder,
			BatchSize: cfg.Enrich.BatchSize,
			Logger:    logger,
		},
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Run executes the pipeline once. User lookup and listing failures abort the
// run before anything is published; per-record failures never do.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Username:  p.cfg.Flickr.Username,
	}
	logger := p.logger.With("run_id", summary.RunID)
	defer func() { summary.FinishedAt = time.Now().UTC() }()

	logger.Info("Starting ingestion", "username", p.cfg.Flickr.Username, "photoset", p.cfg.Flickr.PhotosetID)

	userID, err := p.client.FindUserID(ctx, p.cfg.Flickr.Username)
	if err != nil {
		return summary, fmt.Errorf("failed to resolve user %s: %w", p.cfg.Flickr.Username, err)
	}
	logger.Debug("Resolved user", "username", p.cfg.Flickr.Username, "user_id", userID)

	if p.cfg.Flickr.Source == config.SourceAlbums {
		return summary, p.runAlbums(ctx, logger, userID, summary)
	}

	raw, err := p.list(ctx, logger, userID, summary)
	if err != nil {
		return summary, err
	}
	summary.Listed = len(raw)

	records := make([]*photos.Photo, 0, len(raw))
	for _, item := range raw {
		photo, err := p.normalizer.Normalize(item)
		if err != nil {
			summary.skip(item.ID(), err)
			logger.Warn("Skipping photo", "id", item.ID(), "error", err)
			continue
		}
		records = append(records, photo)
	}
	logger.Info("Normalized photos", "usable", len(records), "skipped", summary.Skipped)

	for i, batch := range enrich.Batches(records, p.cfg.Enrich.BatchSize) {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("run interrupted before batch %d: %w", i+1, err)
		}

		logger.Debug("Enriching batch", "batch", i+1, "size", len(batch))
		for _, r := range p.engine.EnrichBatch(ctx, batch) {
			if r.Exif.Degraded() {
				summary.ExifDegraded++
			}
			if r.Location.Degraded() {
				summary.GeocodeDegraded++
			}
		}

		// Lookups cut short by cancellation look like degraded enrichment.
		// Publishing them would overwrite complete records.
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("run interrupted during batch %d: %w", i+1, err)
		}

		for _, photo := range batch {
			p.publishOne(ctx, logger, photo, summary)
		}
	}

	logger.Info("Finished ingestion",
		"listed", summary.Listed,
		"published", summary.Published,
		"unchanged", summary.Unchanged,
		"skipped", summary.Skipped,
		"invalid", summary.Invalid,
		"failed", summary.Failed)

	if summary.Failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d records failed", ErrIncompletePublish, summary.Failed, len(records))
	}
	return summary, nil
}

// list drives the paginator over the configured photoset, or the user's
// photostream when no photoset is set
func (p *Pipeline) list(ctx context.Context, logger *slog.Logger, userID string, summary *Summary) ([]flickr.RawPhoto, error) {
	params := flickr.ListParams{
		UserID:  userID,
		PerPage: p.cfg.Flickr.PerPage,
		Extras:  p.cfg.Flickr.Extras,
	}

	fetch := func(ctx context.Context, page int) (*flickr.Listing, error) {
		var (
			listing *flickr.Listing
			err     error
		)
		if p.cfg.Flickr.PhotosetID != "" {
			listing, err = p.client.PhotosetPhotos(ctx, p.cfg.Flickr.PhotosetID, params, page)
		} else {
			listing, err = p.client.PeoplePhotos(ctx, params, page)
		}
		if err != nil {
			return nil, err
		}
		logger.Info("Fetched page", "page", page, "pages", listing.Pages, "items", len(listing.Items))
		return listing, nil
	}

	summary.Source = "photostream"
	if p.cfg.Flickr.PhotosetID != "" {
		summary.Source = "photoset:" + p.cfg.Flickr.PhotosetID
	}

	pages, err := flickr.Paginate(ctx, fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", summary.Source, err)
	}
	summary.Pages = len(pages)
	return flickr.Flatten(pages), nil
}

func (p *Pipeline) publishOne(ctx context.Context, logger *slog.Logger, photo *photos.Photo, summary *Summary) {
	if err := photos.Validate(photo); err != nil {
		summary.invalid(photo.ID, err)
		logger.Error("Dropping invalid photo", "id", photo.ID, "error", err)
		return
	}

	result, err := p.publisher.Publish(ctx, photo)
	settle(logger, summary, photo.ID, result, err)
}

// settle records the outcome of one publish
func settle(logger *slog.Logger, summary *Summary, id string, result publish.Result, err error) {
	switch {
	case errors.Is(err, publish.ErrParse):
		summary.invalid(id, err)
		logger.Error("Host rejected record", "id", id, "error", err)
	case err != nil:
		summary.fail(id, err)
		logger.Error("Failed to publish record", "id", id, "error", err)
	case result == publish.Unchanged:
		summary.record(id, StatusUnchanged, nil)
		summary.Unchanged++
		logger.Debug("Record unchanged", "id", id)
	default:
		summary.record(id, StatusPublished, nil)
		summary.Published++
		logger.Debug("Published record", "id", id)
	}
}
