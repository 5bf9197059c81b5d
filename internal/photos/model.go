package photos

import "time"

// Orientation of an image variant
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
	Square    Orientation = "square"
)

// OrientationOf derives the orientation from the pixel dimensions
func OrientationOf(width, height int) Orientation {
	switch {
	case width == height:
		return Square
	case width > height:
		return Landscape
	default:
		return Portrait
	}
}

// ImageURL is one size variant of a photo
type ImageURL struct {
	URL         string      `json:"url"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Orientation Orientation `json:"orientation"`
}

// ExifValue is a camera attribute. Value is the clean form when Flickr has one,
// else the raw form.
type ExifValue struct {
	Value string `json:"value"`
	Clean string `json:"clean,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// Camera holds the handful of EXIF values the site shows next to a photo
type Camera struct {
	Model        string `json:"model,omitempty"`
	Lens         string `json:"lens,omitempty"`
	ExposureTime string `json:"exposureTime,omitempty"`
	FNumber      string `json:"fNumber,omitempty"`
	FocalLength  string `json:"focalLength,omitempty"`
	ISO          string `json:"iso,omitempty"`
}

// Photo is the canonical, published photo record
type Photo struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description,omitempty"`
	DateTaken    time.Time            `json:"dateTaken"`
	Latitude     float64              `json:"latitude"`
	Longitude    float64              `json:"longitude"`
	Tags         []string             `json:"tags,omitempty"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
	ImageURLs    map[string]ImageURL  `json:"imageUrls"`
	Exif         map[string]ExifValue `json:"exif,omitempty"`
	Camera       *Camera              `json:"camera,omitempty"`
	LocationName string               `json:"locationName,omitempty"`

	Owner      string     `json:"owner,omitempty"`
	Media      string     `json:"media,omitempty"`
	Views      int        `json:"views,omitempty"`
	IsPublic   *bool      `json:"isPublic,omitempty"`
	IsFriend   *bool      `json:"isFriend,omitempty"`
	IsFamily   *bool      `json:"isFamily,omitempty"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`

	// Secret is needed to look up EXIF data and is never published
	Secret string `json:"-"`
}

// HasCoordinates reports whether the photo is geotagged. 0,0 means "absent".
func (p *Photo) HasCoordinates() bool {
	return p.Latitude != 0 && p.Longitude != 0
}

// Original returns the mandatory original size variant
func (p *Photo) Original() (ImageURL, bool) {
	img, ok := p.ImageURLs[OriginalSize]
	return img, ok
}
