package flickr

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// RawPhoto is one listing item as Flickr sent it. Key naming and value types
// vary between methods, so it stays an untyped bag until normalization.
// Photoset (album) listings use the same bag.
type RawPhoto map[string]any

// ID returns the photo id, or "" when absent
func (r RawPhoto) ID() string {
	return r.String("id")
}

// String returns the value under key when it is a string
func (r RawPhoto) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Listing is one page of a paginated listing
type Listing struct {
	Page    int
	Pages   int
	PerPage int
	Total   int
	Items   []RawPhoto
}

// PageInfo reports the page number and the total page count
func (l *Listing) PageInfo() (page, pages int) {
	return l.Page, l.Pages
}

// ExifEntry is a single tag from flickr.photos.getExif
type ExifEntry struct {
	TagSpace string
	Tag      string
	Label    string
	Raw      string
	Clean    string
}

// flexInt accepts both 3 and "3"; Flickr uses either depending on the method
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", data, err)
	}
	*f = flexInt(n)
	return nil
}

type content struct {
	Content string `json:"_content"`
}

type page struct {
	Page    flexInt    `json:"page"`
	Pages   flexInt    `json:"pages"`
	PerPage flexInt    `json:"perpage"`
	Total   flexInt    `json:"total"`
	Photo   []RawPhoto `json:"photo"`
}

func (p page) listing() *Listing {
	return &Listing{
		Page:    int(p.Page),
		Pages:   int(p.Pages),
		PerPage: int(p.PerPage),
		Total:   int(p.Total),
		Items:   p.Photo,
	}
}

// FindUserID resolves a username to the account's NSID
func (c *Client) FindUserID(ctx context.Context, username string) (string, error) {
	var resp struct {
		User struct {
			ID   string `json:"id"`
			NSID string `json:"nsid"`
		} `json:"user"`
	}

	params := url.Values{"username": {username}}
	if err := c.Call(ctx, "flickr.people.findByUsername", params, &resp); err != nil {
		return "", err
	}

	id := resp.User.NSID
	if id == "" {
		id = resp.User.ID
	}
	if id == "" {
		return "", fmt.Errorf("no user id returned for username %q", username)
	}

	return id, nil
}

// ListParams are the common listing parameters
type ListParams struct {
	UserID  string
	PerPage int
	Extras  string
}

func (p ListParams) values(page int) url.Values {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	extras := p.Extras
	if extras == "" {
		extras = DefaultExtras
	}
	return url.Values{
		"user_id":  {p.UserID},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
		"extras":   {extras},
	}
}

// PhotosetPhotos fetches one page of flickr.photosets.getPhotos
func (c *Client) PhotosetPhotos(ctx context.Context, photosetID string, params ListParams, pageNum int) (*Listing, error) {
	var resp struct {
		Photoset page `json:"photoset"`
	}

	values := params.values(pageNum)
	values.Set("photoset_id", photosetID)
	if err := c.Call(ctx, "flickr.photosets.getPhotos", values, &resp); err != nil {
		return nil, err
	}

	return resp.Photoset.listing(), nil
}

// PeoplePhotos fetches one page of a user's photostream (flickr.people.getPhotos)
func (c *Client) PeoplePhotos(ctx context.Context, params ListParams, pageNum int) (*Listing, error) {
	var resp struct {
		Photos page `json:"photos"`
	}

	if err := c.Call(ctx, "flickr.people.getPhotos", params.values(pageNum), &resp); err != nil {
		return nil, err
	}

	return resp.Photos.listing(), nil
}

// Photosets fetches one page of the user's albums (flickr.photosets.getList).
// Extras do not apply to this method and are not sent.
func (c *Client) Photosets(ctx context.Context, params ListParams, pageNum int) (*Listing, error) {
	var resp struct {
		Photosets struct {
			page
			Photoset []RawPhoto `json:"photoset"`
		} `json:"photosets"`
	}

	values := params.values(pageNum)
	values.Del("extras")
	if err := c.Call(ctx, "flickr.photosets.getList", values, &resp); err != nil {
		return nil, err
	}

	listing := resp.Photosets.listing()
	listing.Items = resp.Photosets.Photoset
	return listing, nil
}

// Exif fetches the EXIF tags of a photo
func (c *Client) Exif(ctx context.Context, photoID, secret string) ([]ExifEntry, error) {
	var resp struct {
		Photo struct {
			Exif []struct {
				TagSpace string   `json:"tagspace"`
				Tag      string   `json:"tag"`
				Label    string   `json:"label"`
				Raw      *content `json:"raw"`
				Clean    *content `json:"clean"`
			} `json:"exif"`
		} `json:"photo"`
	}

	params := url.Values{"photo_id": {photoID}}
	if secret != "" {
		params.Set("secret", secret)
	}
	if err := c.Call(ctx, "flickr.photos.getExif", params, &resp); err != nil {
		return nil, err
	}

	entries := make([]ExifEntry, 0, len(resp.Photo.Exif))
	for _, e := range resp.Photo.Exif {
		entry := ExifEntry{TagSpace: e.TagSpace, Tag: e.Tag, Label: e.Label}
		if e.Raw != nil {
			entry.Raw = e.Raw.Content
		}
		if e.Clean != nil {
			entry.Clean = e.Clean.Content
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
