package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/photoloader/internal/config"
)

// Entry is one published record
type Entry struct {
	ID     string
	Data   []byte
	Digest string
}

// Store is the content store records are published to
type Store interface {
	Set(ctx context.Context, entry Entry) error
	Close(ctx context.Context) error
}

// DigestReader is implemented by stores that can report the digest of the
// record they currently hold, which lets unchanged records skip the write
type DigestReader interface {
	Digest(ctx context.Context, id string) (digest string, ok bool, err error)
}

// Lister is implemented by stores whose content can be read back
type Lister interface {
	List(ctx context.Context) ([]Entry, error)
}

// ErrInvalidID is returned for ids that cannot be used as a key
var ErrInvalidID = errors.New("invalid record id")

func checkID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Open creates the store selected by cfg.Kind
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return NewMemory(), nil
	case config.StoreFile, "":
		return NewFile(cfg.Path)
	case config.StoreParquet:
		return OpenParquet(cfg.Path)
	case config.StoreS3:
		return OpenS3(ctx, cfg)
	case config.StorePostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case config.StoreMongo:
		return OpenMongo(ctx, cfg.DSN, cfg.Database, cfg.Collection)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}
