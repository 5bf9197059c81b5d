package photos

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Album is the published record of a photoset
type Album struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Owner          string            `json:"owner,omitempty"`
	Username       string            `json:"username,omitempty"`
	Primary        string            `json:"primary"`
	PhotoCount     int               `json:"photoCount"`
	VideoCount     int               `json:"videoCount"`
	Views          int               `json:"views"`
	Comments       int               `json:"comments,omitempty"`
	DateCreate     *time.Time        `json:"dateCreate,omitempty"`
	DateLastUpdate *time.Time        `json:"dateLastUpdate,omitempty"`

	// Photos is only filled when albums are published with their photos
	Photos []*Photo `json:"photos,omitempty"`
}

type albumRule struct {
	key   string
	apply func(a *Album, v any)
}

// albumRules follow the same conventions as fieldRules. The count_* fields
// arrive as numbers or numeric strings depending on the account.
var albumRules = []albumRule{
	{"id", func(a *Album, v any) { a.ID = stringValue(v) }},
	{"owner", func(a *Album, v any) { a.Owner = stringValue(v) }},
	{"username", func(a *Album, v any) { a.Username = stringValue(v) }},
	{"primary", func(a *Album, v any) { a.Primary = stringValue(v) }},
	{"title", func(a *Album, v any) { a.Title = contentValue(v) }},
	{"description", func(a *Album, v any) { a.Description = contentValue(v) }},
	{"photos", func(a *Album, v any) { a.PhotoCount, _ = intValue(v) }},
	{"count_photos", func(a *Album, v any) { a.PhotoCount, _ = intValue(v) }},
	{"videos", func(a *Album, v any) { a.VideoCount, _ = intValue(v) }},
	{"count_videos", func(a *Album, v any) { a.VideoCount, _ = intValue(v) }},
	{"count_views", func(a *Album, v any) { a.Views, _ = intValue(v) }},
	{"count_comments", func(a *Album, v any) { a.Comments, _ = intValue(v) }},
	{"date_create", func(a *Album, v any) { a.DateCreate = epochValue(v) }},
	{"date_update", func(a *Album, v any) { a.DateLastUpdate = epochValue(v) }},
}

// NormalizeAlbum converts one flickr.photosets.getList item
func NormalizeAlbum(raw map[string]any) (*Album, error) {
	a := &Album{}
	for _, rule := range albumRules {
		if v, ok := raw[rule.key]; ok && v != nil {
			rule.apply(a, v)
		}
	}

	if a.ID == "" {
		return nil, ErrMissingID
	}

	description, metadata := ParseMetadata(a.Description)
	a.Description = description
	if len(metadata) > 0 {
		a.Metadata = metadata
	}

	return a, nil
}

// ValidateAlbum checks an album and every photo embedded in it
func ValidateAlbum(a *Album) error {
	if a == nil {
		return &ValidationError{Problems: []string{"record is nil"}}
	}

	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if strings.TrimSpace(a.ID) == "" {
		add("id is required")
	}
	if strings.TrimSpace(a.Primary) == "" {
		add("primary is required")
	}
	if a.PhotoCount < 0 || a.VideoCount < 0 || a.Views < 0 || a.Comments < 0 {
		add("counts must not be negative")
	}
	for key := range a.Metadata {
		if key != strings.ToLower(key) {
			add("metadata key %q is not lower-case", key)
		}
	}

	for i, p := range a.Photos {
		err := Validate(p)
		if err == nil {
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			add("photos[%d]: %v", i, err)
			continue
		}
		for _, problem := range ve.Problems {
			add("photos[%d] (%s): %s", i, ve.ID, problem)
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return &ValidationError{Kind: "album", ID: a.ID, Problems: problems}
	}
	return nil
}
