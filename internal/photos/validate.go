package photos

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError lists every schema problem found on a record
type ValidationError struct {
	// Kind is "photo" when empty
	Kind     string
	ID       string
	Problems []string
}

func (e *ValidationError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "photo"
	}
	return fmt.Sprintf("%s %s failed validation: %s", kind, e.ID, strings.Join(e.Problems, "; "))
}

// Validate checks a fully enriched record against the published schema
func Validate(p *Photo) error {
	if p == nil {
		return &ValidationError{Problems: []string{"record is nil"}}
	}

	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(p.ID) == "" {
		addf("id is required")
	}
	if p.DateTaken.IsZero() {
		addf("dateTaken is required")
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		addf("latitude %v out of range", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		addf("longitude %v out of range", p.Longitude)
	}

	if _, ok := p.ImageURLs[OriginalSize]; !ok {
		addf("imageUrls.original is required")
	}

	names := make([]string, 0, len(p.ImageURLs))
	for name := range p.ImageURLs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		img := p.ImageURLs[name]
		if !IsSizeName(name) {
			addf("imageUrls.%s is not a known size", name)
			continue
		}
		if img.URL == "" {
			addf("imageUrls.%s.url is empty", name)
		}
		if img.Width <= 0 || img.Height <= 0 {
			addf("imageUrls.%s has invalid dimensions %dx%d", name, img.Width, img.Height)
			continue
		}
		switch img.Orientation {
		case Landscape, Portrait, Square:
		default:
			addf("imageUrls.%s.orientation %q is not one of landscape, portrait, square", name, img.Orientation)
			continue
		}
		if want := OrientationOf(img.Width, img.Height); img.Orientation != want {
			addf("imageUrls.%s.orientation is %s but dimensions say %s", name, img.Orientation, want)
		}
	}

	for i, tag := range p.Tags {
		if strings.TrimSpace(tag) == "" {
			addf("tags[%d] is empty", i)
		}
	}

	for key := range p.Metadata {
		if key != strings.ToLower(key) {
			addf("metadata key %q is not lower-case", key)
		}
	}

	for tag, v := range p.Exif {
		if tag == "" {
			addf("exif has an empty tag name")
		}
		if v.Value == "" && (v.Clean != "" || v.Raw != "") {
			addf("exif.%s has no value", tag)
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return &ValidationError{ID: p.ID, Problems: problems}
	}
	return nil
}
