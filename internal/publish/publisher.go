package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/photoloader/internal/photos"
	"github.com/lehigh-university-libraries/photoloader/internal/store"
)

// ParseFunc lets the host re-validate or reshape a record before it is
// stored. It is always called, even for records that passed validation.
type ParseFunc func(ctx context.Context, id string, p *photos.Photo) (*photos.Photo, error)

// AlbumParseFunc is the album counterpart of ParseFunc
type AlbumParseFunc func(ctx context.Context, id string, a *photos.Album) (*photos.Album, error)

// DigestFunc computes the content digest of a parsed record
type DigestFunc func(v any) (string, error)

// Result says what Publish did with a record
type Result int

const (
	Published Result = iota
	Unchanged
)

func (r Result) String() string {
	switch r {
	case Published:
		return "published"
	case Unchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// ErrParse wraps failures of the host ParseFunc
var ErrParse = errors.New("host rejected record")

// Publisher hands validated records to a store
type Publisher struct {
	Store  store.Store
	Parse  ParseFunc
	Digest DigestFunc

	// ParseAlbum is optional; albums pass through unchanged when nil
	ParseAlbum AlbumParseFunc
}

// New creates a publisher. A nil parse passes records through unchanged and a
// nil digest uses Digest.
func New(s store.Store, parse ParseFunc, digest DigestFunc) *Publisher {
	if parse == nil {
		parse = func(ctx context.Context, id string, p *photos.Photo) (*photos.Photo, error) {
			return p, nil
		}
	}
	if digest == nil {
		digest = Digest
	}
	return &Publisher{Store: s, Parse: parse, Digest: digest}
}

// Publish parses, digests and stores one record. When the store already
// holds the same digest nothing is written and Unchanged is returned.
func (p *Publisher) Publish(ctx context.Context, photo *photos.Photo) (Result, error) {
	parsed, err := p.Parse(ctx, photo.ID, photo)
	if err != nil {
		return Published, fmt.Errorf("%w %s: %w", ErrParse, photo.ID, err)
	}
	if parsed == nil {
		parsed = photo
	}
	return p.put(ctx, "photo", parsed.ID, parsed)
}

// PublishAlbum is Publish for photoset records
func (p *Publisher) PublishAlbum(ctx context.Context, album *photos.Album) (Result, error) {
	parsed := album
	if p.ParseAlbum != nil {
		var err error
		parsed, err = p.ParseAlbum(ctx, album.ID, album)
		if err != nil {
			return Published, fmt.Errorf("%w %s: %w", ErrParse, album.ID, err)
		}
		if parsed == nil {
			parsed = album
		}
	}
	return p.put(ctx, "album", parsed.ID, parsed)
}

func (p *Publisher) put(ctx context.Context, kind, id string, v any) (Result, error) {
	digest, err := p.Digest(v)
	if err != nil {
		return Published, fmt.Errorf("failed to digest %s %s: %w", kind, id, err)
	}

	if reader, ok := p.Store.(store.DigestReader); ok {
		current, found, err := reader.Digest(ctx, id)
		if err != nil {
			return Published, fmt.Errorf("failed to read stored digest for %s: %w", id, err)
		}
		if found && current == digest {
			return Unchanged, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Published, fmt.Errorf("failed to encode %s %s: %w", kind, id, err)
	}

	if err := p.Store.Set(ctx, store.Entry{ID: id, Data: data, Digest: digest}); err != nil {
		return Published, fmt.Errorf("failed to store %s %s: %w", kind, id, err)
	}
	return Published, nil
}
