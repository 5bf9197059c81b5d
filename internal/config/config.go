package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store kinds
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreParquet  = "parquet"
	StoreS3       = "s3"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Listing sources
const (
	SourcePhotos = "photos"
	SourceAlbums = "albums"
)

// ExifSource kinds
const (
	ExifAPI   = "api"
	ExifImage = "image"
	ExifNone  = "none"
)

// Config holds everything a run needs
type Config struct {
	Flickr Flickr `yaml:"flickr"`
	Mapbox Mapbox `yaml:"mapbox"`
	Enrich Enrich `yaml:"enrich"`
	Store  Store  `yaml:"store"`
	HTTP   HTTP   `yaml:"http"`
}

// Flickr selects the account and listing to ingest
type Flickr struct {
	APIKey     string `yaml:"api_key"`
	Username   string `yaml:"username"`
	// Source is photos (a photoset, or the photostream when PhotosetID is
	// empty) or albums (the user's photosets themselves)
	Source     string `yaml:"source"`
	PhotosetID string `yaml:"photoset_id"`
	Albums     Albums `yaml:"albums"`
	BaseURL    string `yaml:"base_url"`
	PerPage    int    `yaml:"per_page"`
	Extras     string `yaml:"extras"`

	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	PermanentCodes []int         `yaml:"permanent_codes"`
}

// Albums narrows and shapes an albums run
type Albums struct {
	// In keeps only these photoset ids when set
	In []string `yaml:"in"`
	// Exclude drops these photoset ids
	Exclude []string `yaml:"nin"`
	// WithPhotos embeds each album's photos in its record
	WithPhotos bool `yaml:"with_photos"`
}

// Mapbox configures reverse geocoding; an empty token disables it
type Mapbox struct {
	AccessToken string `yaml:"access_token"`
	BaseURL     string `yaml:"base_url"`
}

// Enrich tunes the enrichment engine
type Enrich struct {
	BatchSize  int    `yaml:"batch_size"`
	ExifSource string `yaml:"exif_source"`
}

// Store selects and configures the content store
type Store struct {
	Kind string `yaml:"kind"`

	// file and parquet
	Path string `yaml:"path"`

	// s3
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`

	// postgres and mongo
	DSN        string `yaml:"dsn"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// HTTP configures the clients shared by every upstream call
type HTTP struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Error reports a configuration problem. The run never starts.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Default returns a configuration with every optional value filled in
func Default() *Config {
	return &Config{
		Flickr: Flickr{
			Source:      SourcePhotos,
			PerPage:     300,
			MaxAttempts: 3,
			RetryDelay:  time.Second,
		},
		Enrich: Enrich{
			BatchSize:  10,
			ExifSource: ExifAPI,
		},
		Store: Store{
			Kind:       StoreFile,
			Path:       "content/photos",
			Prefix:     "photos/",
			Collection: "photos",
		},
		HTTP: HTTP{Timeout: 30 * time.Second},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides credentials and store settings from the environment.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	str("FLICKR_API_KEY", &c.Flickr.APIKey)
	str("FLICKR_USERNAME", &c.Flickr.Username)
	str("FLICKR_PHOTOSET_ID", &c.Flickr.PhotosetID)
	str("PHOTOLOADER_SOURCE", &c.Flickr.Source)
	str("MAPBOX_ACCESS_TOKEN", &c.Mapbox.AccessToken)

	str("PHOTOLOADER_STORE", &c.Store.Kind)
	str("PHOTOLOADER_STORE_PATH", &c.Store.Path)
	str("PHOTOLOADER_S3_ENDPOINT", &c.Store.Endpoint)
	str("PHOTOLOADER_S3_BUCKET", &c.Store.Bucket)
	str("PHOTOLOADER_S3_ACCESS_KEY", &c.Store.AccessKey)
	str("PHOTOLOADER_S3_SECRET_KEY", &c.Store.SecretKey)
	str("PHOTOLOADER_S3_REGION", &c.Store.Region)
	str("PHOTOLOADER_DSN", &c.Store.DSN)
	str("PHOTOLOADER_DATABASE", &c.Store.Database)

	if v, ok := lookup("PHOTOLOADER_S3_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &Error{Field: "PHOTOLOADER_S3_USE_SSL", Reason: fmt.Sprintf("is not a boolean: %q", v)}
		}
		c.Store.UseSSL = b
	}
	if v, ok := lookup("PHOTOLOADER_BATCH_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &Error{Field: "PHOTOLOADER_BATCH_SIZE", Reason: fmt.Sprintf("is not an integer: %q", v)}
		}
		c.Enrich.BatchSize = n
	}

	return nil
}

// Validate checks that a run can start. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error
	missing := func(field string) {
		errs = append(errs, &Error{Field: field, Reason: "is required"})
	}

	if strings.TrimSpace(c.Flickr.APIKey) == "" {
		missing("flickr.api_key")
	}
	if strings.TrimSpace(c.Flickr.Username) == "" {
		missing("flickr.username")
	}
	if c.Enrich.BatchSize <= 0 {
		errs = append(errs, &Error{Field: "enrich.batch_size", Reason: "must be positive"})
	}
	if c.Flickr.MaxAttempts <= 0 {
		errs = append(errs, &Error{Field: "flickr.max_attempts", Reason: "must be positive"})
	}

	switch c.Flickr.Source {
	case SourcePhotos, SourceAlbums:
	default:
		errs = append(errs, &Error{Field: "flickr.source", Reason: fmt.Sprintf("must be photos or albums; got %q", c.Flickr.Source)})
	}

	switch c.Enrich.ExifSource {
	case ExifAPI, ExifImage, ExifNone:
	default:
		errs = append(errs, &Error{Field: "enrich.exif_source", Reason: fmt.Sprintf("must be one of api, image, none; got %q", c.Enrich.ExifSource)})
	}

	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile, StoreParquet:
		if c.Store.Path == "" {
			missing("store.path")
		}
	case StoreS3:
		if c.Store.Endpoint == "" {
			missing("store.endpoint")
		}
		if c.Store.Bucket == "" {
			missing("store.bucket")
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			missing("store.dsn")
		}
	case StoreMongo:
		if c.Store.DSN == "" {
			missing("store.dsn")
		}
		if c.Store.Database == "" {
			missing("store.database")
		}
	default:
		errs = append(errs, &Error{Field: "store.kind", Reason: fmt.Sprintf("unknown store %q", c.Store.Kind)})
	}

	return errors.Join(errs...)
}
