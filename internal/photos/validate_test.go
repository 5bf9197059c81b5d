package photos

import (
	"errors"
	"strings"
	"testing"
)

func validPhoto(t *testing.T) *Photo {
	t.Helper()
	p, err := testNormalizer().Normalize(rawPhoto())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return p
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Photo)
		problem string
	}{
		{
			name:    "valid record",
			mutate:  func(p *Photo) {},
			problem: "",
		},
		{
			name:    "missing id",
			mutate:  func(p *Photo) { p.ID = "" },
			problem: "id is required",
		},
		{
			name:    "missing original",
			mutate:  func(p *Photo) { delete(p.ImageURLs, OriginalSize) },
			problem: "imageUrls.original is required",
		},
		{
			name: "unknown size",
			mutate: func(p *Photo) {
				p.ImageURLs["4k"] = ImageURL{URL: "u", Width: 1, Height: 1, Orientation: Square}
			},
			problem: "imageUrls.4k is not a known size",
		},
		{
			name: "bad orientation",
			mutate: func(p *Photo) {
				img := p.ImageURLs[OriginalSize]
				img.Orientation = "diagonal"
				p.ImageURLs[OriginalSize] = img
			},
			problem: `orientation "diagonal"`,
		},
		{
			name: "orientation disagrees with dimensions",
			mutate: func(p *Photo) {
				img := p.ImageURLs[OriginalSize]
				img.Orientation = Portrait
				p.ImageURLs[OriginalSize] = img
			},
			problem: "dimensions say landscape",
		},
		{
			name:    "empty tag",
			mutate:  func(p *Photo) { p.Tags = append(p.Tags, " ") },
			problem: "tags[3] is empty",
		},
		{
			name:    "upper-case metadata key",
			mutate:  func(p *Photo) { p.Metadata["Roll"] = "x" },
			problem: `metadata key "Roll"`,
		},
		{
			name:    "latitude out of range",
			mutate:  func(p *Photo) { p.Latitude = 123 },
			problem: "latitude 123 out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPhoto(t)
			tt.mutate(p)

			err := Validate(p)
			if tt.problem == "" {
				if err != nil {
					t.Errorf("Expected valid record, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *ValidationError, got %v", err)
			}
			if !strings.Contains(verr.Error(), tt.problem) {
				t.Errorf("Expected problem containing %q, got %q", tt.problem, verr.Error())
			}
		})
	}
}
