package enrich

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/photoloader/internal/photos"
)

// DefaultBatchSize is how many records are enriched concurrently
const DefaultBatchSize = 10

// Report records what enrichment did for one photo
type Report struct {
	ID       string
	Exif     Outcome[map[string]photos.ExifValue]
	Location Outcome[string]
}

// Engine adds EXIF data and a place name to normalized photos
type Engine struct {
	// Exif is required; a nil source skips EXIF entirely
	Exif ExifSource
	// Geocoder is optional; nil disables reverse geocoding
	Geocoder  Geocoder
	BatchSize int
	Logger    *slog.Logger
}

// Batches splits records into consecutive groups of at most size records
func Batches(records []*photos.Photo, size int) [][]*photos.Photo {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]*photos.Photo
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}

// Enrich processes records batch by batch. Records are mutated in place.
func (e *Engine) Enrich(ctx context.Context, records []*photos.Photo) []Report {
	reports := make([]Report, 0, len(records))
	for _, batch := range Batches(records, e.BatchSize) {
		reports = append(reports, e.EnrichBatch(ctx, batch)...)
	}
	return reports
}

// EnrichBatch fetches EXIF and location for every record of the batch
// concurrently and returns once all of them have settled. Failures degrade
// the record; they are never returned.
func (e *Engine) EnrichBatch(ctx context.Context, batch []*photos.Photo) []Report {
	reports := make([]Report, len(batch))

	var g errgroup.Group
	for i, p := range batch {
		reports[i].ID = p.ID

		g.Go(func() error {
			reports[i].Exif = e.fetchExif(ctx, p)
			return nil
		})
		g.Go(func() error {
			reports[i].Location = e.fetchLocation(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range batch {
		e.merge(p, reports[i])
	}
	return reports
}

func (e *Engine) fetchExif(ctx context.Context, p *photos.Photo) Outcome[map[string]photos.ExifValue] {
	if e.Exif == nil {
		return skipped[map[string]photos.ExifValue]()
	}
	return outcomeOf(e.Exif.Exif(ctx, p))
}

func (e *Engine) fetchLocation(ctx context.Context, p *photos.Photo) Outcome[string] {
	if e.Geocoder == nil || !p.HasCoordinates() {
		return skipped[string]()
	}
	return outcomeOf(e.Geocoder.ReverseGeocode(ctx, p.Latitude, p.Longitude))
}

func (e *Engine) merge(p *photos.Photo, r Report) {
	logger := e.logger()

	if values, ok := r.Exif.Get(); ok && len(values) > 0 {
		p.Exif = values
		p.Camera = CameraSummary(values)
	} else if r.Exif.Degraded() {
		logger.Warn("Failed to fetch EXIF, continuing without it", "id", p.ID, "error", r.Exif.Err)
	}

	if name, ok := r.Location.Get(); ok && name != "" {
		p.LocationName = name
	} else if r.Location.Degraded() {
		logger.Warn("Failed to reverse geocode", "id", p.ID, "lat", p.Latitude, "lon", p.Longitude, "error", r.Location.Err)
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
