package photos

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissingOriginalImage is returned when url_o, width_o or height_o is
	// missing or unusable. Such a photo cannot be published.
	ErrMissingOriginalImage = errors.New("missing required original size data")

	// ErrMissingID is returned for listing items without an id
	ErrMissingID = errors.New("missing photo id")
)

// dateLayouts are tried in order for the datetaken field
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// fieldRule copies one upstream key into the canonical record
type fieldRule struct {
	key   string
	apply func(p *Photo, v any)
}

// fieldRules is evaluated once per record, in order. Later rules win when two
// upstream keys feed the same field (count_views over views).
var fieldRules = []fieldRule{
	{"id", func(p *Photo, v any) { p.ID = stringValue(v) }},
	{"secret", func(p *Photo, v any) { p.Secret = stringValue(v) }},
	{"owner", func(p *Photo, v any) { p.Owner = stringValue(v) }},
	{"title", func(p *Photo, v any) { p.Title = contentValue(v) }},
	{"description", func(p *Photo, v any) { p.Description = contentValue(v) }},
	{"datetaken", func(p *Photo, v any) { p.DateTaken = parseDate(stringValue(v)) }},
	{"latitude", func(p *Photo, v any) { p.Latitude, _ = floatValue(v) }},
	{"longitude", func(p *Photo, v any) { p.Longitude, _ = floatValue(v) }},
	{"tags", func(p *Photo, v any) { p.Tags = strings.Fields(stringValue(v)) }},
	{"media", func(p *Photo, v any) { p.Media = stringValue(v) }},
	{"views", func(p *Photo, v any) { p.Views, _ = intValue(v) }},
	{"count_views", func(p *Photo, v any) { p.Views, _ = intValue(v) }},
	{"ispublic", func(p *Photo, v any) { p.IsPublic = flagValue(v) }},
	{"isfriend", func(p *Photo, v any) { p.IsFriend = flagValue(v) }},
	{"isfamily", func(p *Photo, v any) { p.IsFamily = flagValue(v) }},
	{"lastupdate", func(p *Photo, v any) { p.LastUpdate = epochValue(v) }},
}

// Normalizer maps raw listing items onto the canonical Photo
type Normalizer struct {
	// Now supplies dateTaken when the upstream value is absent or unparseable
	Now func() time.Time
}

// NewNormalizer creates a normalizer using the wall clock
func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize converts one raw listing item. It performs no I/O.
func (n *Normalizer) Normalize(raw map[string]any) (*Photo, error) {
	p := &Photo{}
	for _, rule := range fieldRules {
		if v, ok := raw[rule.key]; ok && v != nil {
			rule.apply(p, v)
		}
	}

	if p.ID == "" {
		return nil, ErrMissingID
	}

	if p.DateTaken.IsZero() {
		p.DateTaken = n.now()
	}

	p.ImageURLs = imageURLs(raw)
	if _, ok := p.ImageURLs[OriginalSize]; !ok {
		return nil, fmt.Errorf("photo %s: %w", p.ID, ErrMissingOriginalImage)
	}

	description, metadata := ParseMetadata(p.Description)
	p.Description = description
	if len(metadata) > 0 {
		p.Metadata = metadata
	}

	return p, nil
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now().UTC()
	}
	return n.Now().UTC()
}

// imageURLs assembles every size variant that has a url, a width and a height.
// A variant with a non-numeric dimension is dropped on its own.
func imageURLs(raw map[string]any) map[string]ImageURL {
	urls := make(map[string]ImageURL)
	for _, size := range Sizes {
		url := stringValue(raw["url_"+size.Code])
		width, okWidth := intValue(raw["width_"+size.Code])
		height, okHeight := intValue(raw["height_"+size.Code])
		if url == "" || !okWidth || !okHeight || width <= 0 || height <= 0 {
			continue
		}
		urls[size.Name] = ImageURL{
			URL:         url,
			Width:       width,
			Height:      height,
			Orientation: OrientationOf(width, height),
		}
	}
	return urls
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// contentValue unwraps Flickr's {"_content": "..."} wrapper or returns a bare string
func contentValue(v any) string {
	if m, ok := v.(map[string]any); ok {
		return stringValue(m["_content"])
	}
	return stringValue(v)
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// flagValue maps Flickr's 0/1 integer flags onto an optional boolean
func flagValue(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	n, ok := intValue(v)
	if !ok {
		return nil
	}
	b := n == 1
	return &b
}

// epochValue parses unix seconds, as sent in lastupdate
func epochValue(v any) *time.Time {
	secs, ok := intValue(v)
	if !ok || secs <= 0 {
		return nil
	}
	t := time.Unix(int64(secs), 0).UTC()
	return &t
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
