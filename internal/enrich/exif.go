package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/lehigh-university-libraries/photoloader/internal/flickr"
	"github.com/lehigh-university-libraries/photoloader/internal/photos"
)

// ExifSource looks up the camera EXIF tags of a photo, keyed by tag name
type ExifSource interface {
	Exif(ctx context.Context, p *photos.Photo) (map[string]photos.ExifValue, error)
}

// APIExif reads EXIF through flickr.photos.getExif
type APIExif struct {
	Client *flickr.Client
}

// Exif implements ExifSource
func (a *APIExif) Exif(ctx context.Context, p *photos.Photo) (map[string]photos.ExifValue, error) {
	entries, err := a.Client.Exif(ctx, p.ID, p.Secret)
	if err != nil {
		return nil, err
	}

	values := make(map[string]photos.ExifValue, len(entries))
	for _, e := range entries {
		if e.Tag == "" {
			continue
		}
		values[e.Tag] = exifValue(e.Clean, e.Raw)
	}
	return values, nil
}

// exifValue prefers the clean form, then the raw form
func exifValue(clean, raw string) photos.ExifValue {
	v := photos.ExifValue{Clean: clean, Raw: raw}
	switch {
	case clean != "":
		v.Value = clean
	case raw != "":
		v.Value = raw
	}
	return v
}

// maxImageBytes bounds how much of an original is read while looking for EXIF
const maxImageBytes = 64 << 20

// goexif field names that differ from the tag names Flickr reports
var imageTagNames = map[exif.FieldName]string{
	exif.ISOSpeedRatings: "ISO",
	exif.LensModel:       "Lens",
}

// ImageExif downloads the original variant and decodes its EXIF block locally.
// Useful for accounts that hide EXIF from the API.
type ImageExif struct {
	HTTPClient *http.Client
}

// NewImageExif creates an ImageExif with a 30 second download timeout
func NewImageExif() *ImageExif {
	return &ImageExif{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Exif implements ExifSource
func (s *ImageExif) Exif(ctx context.Context, p *photos.Photo) (map[string]photos.ExifValue, error) {
	original, ok := p.Original()
	if !ok {
		return nil, photos.ErrMissingOriginalImage
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, original.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch original: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("original image returned status %d", resp.StatusCode)
	}

	x, err := exif.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode exif: %w", err)
	}

	values := make(map[string]photos.ExifValue)
	if err := x.Walk(tagCollector(values)); err != nil {
		return nil, fmt.Errorf("failed to walk exif: %w", err)
	}
	return values, nil
}

type tagCollector map[string]photos.ExifValue

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	key := string(name)
	if renamed, ok := imageTagNames[name]; ok {
		key = renamed
	}

	raw := strings.Trim(tag.String(), `"`)
	clean := ""
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			raw = strings.TrimRight(s, "\x00 ")
		}
	} else if tag.Format() == tiff.RatVal && tag.Count == 1 {
		clean = cleanRational(name, tag)
	}

	if raw == "" && clean == "" {
		return nil
	}
	c[key] = exifValue(clean, raw)
	return nil
}

// cleanRational renders the rationals the site shows the way Flickr cleans them
func cleanRational(name exif.FieldName, tag *tiff.Tag) string {
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return ""
	}
	switch name {
	case exif.ExposureTime:
		if num == 1 || num > den {
			return fmt.Sprintf("%g sec (%d/%d)", float64(num)/float64(den), num, den)
		}
		return fmt.Sprintf("%d/%d", num, den)
	case exif.FNumber:
		return fmt.Sprintf("f/%.1f", float64(num)/float64(den))
	case exif.FocalLength:
		return fmt.Sprintf("%.1f mm", float64(num)/float64(den))
	}
	return ""
}

// CameraSummary picks the values shown next to a photo out of its EXIF map.
// It returns nil when none of them are present.
func CameraSummary(values map[string]photos.ExifValue) *photos.Camera {
	if len(values) == 0 {
		return nil
	}

	clean := func(tags ...string) string {
		for _, tag := range tags {
			v, ok := values[tag]
			if !ok {
				continue
			}
			if v.Clean != "" {
				return v.Clean
			}
			if v.Value != "" {
				return v.Value
			}
		}
		return ""
	}
	raw := func(tag string) string {
		v := values[tag]
		if v.Raw != "" {
			return v.Raw
		}
		return v.Value
	}

	c := &photos.Camera{
		Model:        clean("Model"),
		Lens:         clean("Lens", "LensModel"),
		ExposureTime: raw("ExposureTime"),
		FNumber:      clean("FNumber"),
		FocalLength:  clean("FocalLength"),
		ISO:          clean("ISO"),
	}
	if *c == (photos.Camera{}) {
		return nil
	}
	return c
}
