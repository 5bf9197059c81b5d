package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/photoloader/internal/config"
)

type digestStore interface {
	Store
	DigestReader
	Lister
}

func TestStores(t *testing.T) {
	tests := []struct {
		name string
		open func(t *testing.T) digestStore
	}{
		{
			name: "memory",
			open: func(t *testing.T) digestStore { return NewMemory() },
		},
		{
			name: "file",
			open: func(t *testing.T) digestStore {
				s, err := NewFile(filepath.Join(t.TempDir(), "photos"))
				if err != nil {
					t.Fatalf("NewFile failed: %v", err)
				}
				return s
			},
		},
		{
			name: "parquet",
			open: func(t *testing.T) digestStore {
				s, err := OpenParquet(filepath.Join(t.TempDir(), "photos.parquet"))
				if err != nil {
					t.Fatalf("OpenParquet failed: %v", err)
				}
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := tt.open(t)

			if _, ok, err := s.Digest(ctx, "1"); err != nil || ok {
				t.Fatalf("Expected no digest for unknown id, got ok=%v err=%v", ok, err)
			}

			entries := []Entry{
				{ID: "2", Data: []byte(`{"id":"2"}`), Digest: "bbb"},
				{ID: "1", Data: []byte(`{"id":"1"}`), Digest: "aaa"},
			}
			for _, e := range entries {
				if err := s.Set(ctx, e); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
			}
			if err := s.Set(ctx, Entry{ID: "1", Data: []byte(`{"id":"1","title":"x"}`), Digest: "ccc"}); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			digest, ok, err := s.Digest(ctx, "1")
			if err != nil || !ok {
				t.Fatalf("Expected digest, got ok=%v err=%v", ok, err)
			}
			if digest != "ccc" {
				t.Errorf("Expected overwritten digest ccc, got %s", digest)
			}

			listed, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(listed) != 2 {
				t.Fatalf("Expected 2 entries, got %d", len(listed))
			}
			if listed[0].ID != "1" || listed[1].ID != "2" {
				t.Errorf("Expected entries sorted by id, got %s, %s", listed[0].ID, listed[1].ID)
			}
			if string(listed[0].Data) != `{"id":"1","title":"x"}` {
				t.Errorf("Unexpected data %s", listed[0].Data)
			}

			if err := s.Close(ctx); err != nil {
				t.Errorf("Close failed: %v", err)
			}
		})
	}
}

func TestSetRejectsBadIDs(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if err := s.Set(context.Background(), Entry{ID: id, Data: []byte(`{}`)}); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Expected ErrInvalidID for %q, got %v", id, err)
		}
	}
}

func TestParquetSnapshotSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "photos.parquet")

	s, err := OpenParquet(path)
	if err != nil {
		t.Fatalf("OpenParquet failed: %v", err)
	}
	if err := s.Set(ctx, Entry{ID: "53012345678", Data: []byte(`{"id":"53012345678"}`), Digest: "d1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Expected temporary file to be gone, got %v", err)
	}

	reopened, err := OpenParquet(path)
	if err != nil {
		t.Fatalf("OpenParquet failed: %v", err)
	}
	digest, ok, err := reopened.Digest(ctx, "53012345678")
	if err != nil || !ok || digest != "d1" {
		t.Errorf("Expected digest d1 after reopen, got %q ok=%v err=%v", digest, ok, err)
	}

	rows, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet failed: %v", err)
	}
	if len(rows) != 1 || string(rows[0].Data) != `{"id":"53012345678"}` {
		t.Errorf("Unexpected rows %+v", rows)
	}
}

func TestFileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if err := s.Set(context.Background(), Entry{ID: "42", Data: []byte(`{"id":"42"}`), Digest: "abc"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*"))
	if len(matches) != 1 || filepath.Base(matches[0]) != "42.json" {
		t.Errorf("Expected only 42.json, got %v", matches)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Store{Kind: config.StoreMemory})
	if err != nil {
		t.Fatalf("Open memory failed: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("Expected *Memory, got %T", s)
	}

	s, err = Open(ctx, config.Store{Kind: config.StoreFile, Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Open file failed: %v", err)
	}
	if _, ok := s.(DigestReader); !ok {
		t.Errorf("Expected file store to implement DigestReader")
	}

	if _, err := Open(ctx, config.Store{Kind: "ftp"}); err == nil {
		t.Error("Expected an error for an unknown kind")
	}
}

func TestObjectKey(t *testing.T) {
	if got := objectKey("photos/", "123"); got != "photos/123.json" {
		t.Errorf("Expected photos/123.json, got %s", got)
	}
	if got := digestFromMetadata(map[string]string{"Digest": "abc"}); got != "abc" {
		t.Errorf("Expected abc, got %s", got)
	}
	if got := digestFromMetadata(nil); got != "" {
		t.Errorf("Expected empty digest, got %s", got)
	}
}

func TestNewMongoDocument(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		expectGeo bool
	}{
		{name: "geotagged", data: `{"id":"1","latitude":48.85,"longitude":2.35}`, expectGeo: true},
		{name: "zero coordinates", data: `{"id":"1","latitude":0,"longitude":0}`, expectGeo: false},
		{name: "no coordinates", data: `{"id":"1"}`, expectGeo: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := newMongoDocument(Entry{ID: "1", Data: []byte(tt.data), Digest: "d"})
			if err != nil {
				t.Fatalf("newMongoDocument failed: %v", err)
			}
			if (doc.LonLat != nil) != tt.expectGeo {
				t.Fatalf("Expected geo point %v, got %+v", tt.expectGeo, doc.LonLat)
			}
			if tt.expectGeo && (doc.LonLat.Coordinates[0] != 2.35 || doc.LonLat.Coordinates[1] != 48.85) {
				t.Errorf("Expected [lon, lat], got %v", doc.LonLat.Coordinates)
			}
		})
	}

	if _, err := newMongoDocument(Entry{ID: "1", Data: []byte(`not json`)}); err == nil {
		t.Error("Expected an error for invalid JSON")
	}
}
