package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photoloader.yaml")
	content := `
flickr:
  api_key: abc
  username: someone
  photoset_id: "72157600000000000"
  retry_delay: 250ms
  permanent_codes: [100]
  albums:
    nin: ["721"]
    with_photos: true
enrich:
  batch_size: 5
store:
  kind: parquet
  path: out/photos.parquet
http:
  timeout: 10s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Flickr.APIKey != "abc" || cfg.Flickr.Username != "someone" {
		t.Errorf("Unexpected flickr config: %+v", cfg.Flickr)
	}
	if cfg.Flickr.RetryDelay != 250*time.Millisecond {
		t.Errorf("Expected retry delay 250ms, got %s", cfg.Flickr.RetryDelay)
	}
	if len(cfg.Flickr.PermanentCodes) != 1 || cfg.Flickr.PermanentCodes[0] != 100 {
		t.Errorf("Expected permanent codes [100], got %v", cfg.Flickr.PermanentCodes)
	}
	if cfg.Flickr.Source != SourcePhotos {
		t.Errorf("Expected default photos source, got %q", cfg.Flickr.Source)
	}
	if len(cfg.Flickr.Albums.Exclude) != 1 || !cfg.Flickr.Albums.WithPhotos {
		t.Errorf("Unexpected albums config: %+v", cfg.Flickr.Albums)
	}
	if cfg.Flickr.MaxAttempts != 3 {
		t.Errorf("Expected default max attempts 3, got %d", cfg.Flickr.MaxAttempts)
	}
	if cfg.Enrich.BatchSize != 5 {
		t.Errorf("Expected batch size 5, got %d", cfg.Enrich.BatchSize)
	}
	if cfg.Enrich.ExifSource != ExifAPI {
		t.Errorf("Expected default exif source, got %s", cfg.Enrich.ExifSource)
	}
	if cfg.Store.Kind != StoreParquet || cfg.Store.Path != "out/photos.parquet" {
		t.Errorf("Unexpected store config: %+v", cfg.Store)
	}
	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %s", cfg.HTTP.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FLICKR_API_KEY":         "from-env",
		"FLICKR_USERNAME":        "env-user",
		"MAPBOX_ACCESS_TOKEN":    "pk.env",
		"PHOTOLOADER_STORE":      "s3",
		"PHOTOLOADER_S3_BUCKET":  "photos",
		"PHOTOLOADER_S3_USE_SSL": "true",
		"PHOTOLOADER_BATCH_SIZE": "20",
		"FLICKR_PHOTOSET_ID":     "",
		"PHOTOLOADER_SOURCE":     "albums",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	cfg := Default()
	cfg.Flickr.PhotosetID = "keep-me"
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Flickr.APIKey != "from-env" || cfg.Flickr.Username != "env-user" {
		t.Errorf("Unexpected flickr config: %+v", cfg.Flickr)
	}
	if cfg.Flickr.Source != SourceAlbums {
		t.Errorf("Expected albums source, got %q", cfg.Flickr.Source)
	}
	if cfg.Flickr.PhotosetID != "keep-me" {
		t.Errorf("Expected empty env value to be ignored, got %q", cfg.Flickr.PhotosetID)
	}
	if cfg.Mapbox.AccessToken != "pk.env" {
		t.Errorf("Expected mapbox token, got %q", cfg.Mapbox.AccessToken)
	}
	if cfg.Store.Kind != StoreS3 || cfg.Store.Bucket != "photos" || !cfg.Store.UseSSL {
		t.Errorf("Unexpected store config: %+v", cfg.Store)
	}
	if cfg.Enrich.BatchSize != 20 {
		t.Errorf("Expected batch size 20, got %d", cfg.Enrich.BatchSize)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "PHOTOLOADER_BATCH_SIZE" {
			return "lots", true
		}
		return "", false
	}

	err := Default().ApplyEnv(lookup)
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if cfgErr.Field != "PHOTOLOADER_BATCH_SIZE" {
		t.Errorf("Expected field PHOTOLOADER_BATCH_SIZE, got %s", cfgErr.Field)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		fields []string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name: "missing credentials",
			mutate: func(c *Config) {
				c.Flickr.APIKey = ""
				c.Flickr.Username = " "
			},
			fields: []string{"flickr.api_key", "flickr.username"},
		},
		{
			name:   "unknown store",
			mutate: func(c *Config) { c.Store.Kind = "ftp" },
			fields: []string{"store.kind"},
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Store.Kind = StoreS3
				c.Store.Endpoint = "localhost:9000"
			},
			fields: []string{"store.bucket"},
		},
		{
			name: "mongo without database",
			mutate: func(c *Config) {
				c.Store.Kind = StoreMongo
				c.Store.DSN = "mongodb://localhost"
			},
			fields: []string{"store.database"},
		},
		{
			name:   "bad exif source",
			mutate: func(c *Config) { c.Enrich.ExifSource = "guess" },
			fields: []string{"enrich.exif_source"},
		},
		{
			name:   "albums source",
			mutate: func(c *Config) { c.Flickr.Source = SourceAlbums },
		},
		{
			name:   "unknown source",
			mutate: func(c *Config) { c.Flickr.Source = "favorites" },
			fields: []string{"flickr.source"},
		},
		{
			name:   "zero batch size",
			mutate: func(c *Config) { c.Enrich.BatchSize = 0 },
			fields: []string{"enrich.batch_size"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Flickr.APIKey = "key"
			cfg.Flickr.Username = "user"
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.fields) == 0 {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}

			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			for _, field := range tt.fields {
				if !strings.Contains(err.Error(), field) {
					t.Errorf("Expected error mentioning %s, got %v", field, err)
				}
			}
		})
	}
}
