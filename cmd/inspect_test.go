package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/photoloader/internal/photos"
	"github.com/lehigh-university-libraries/photoloader/internal/store"
)

func samplePhoto(id string) []byte {
	p := photos.Photo{
		ID:        id,
		Title:     "Lake at dusk",
		DateTaken: time.Date(2023, 6, 1, 19, 30, 0, 0, time.UTC),
		Metadata:  map[string]string{"location": "Bethlehem"},
		ImageURLs: map[string]photos.ImageURL{
			"original": {URL: "https://live.staticflickr.com/o.jpg", Width: 4000, Height: 3000, Orientation: photos.Landscape},
		},
	}
	data, _ := json.Marshal(p)
	return data
}

func sampleAlbum(id string) []byte {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	a := photos.Album{ID: id, Title: "Paris", Primary: "1", PhotoCount: 2, Views: 1200, DateCreate: &created}
	data, _ := json.Marshal(a)
	return data
}

func TestLoadEntries(t *testing.T) {
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "content")
	fs, err := store.NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	parquetPath := filepath.Join(t.TempDir(), "photos.parquet")
	ps, err := store.OpenParquet(parquetPath)
	if err != nil {
		t.Fatalf("OpenParquet failed: %v", err)
	}

	entries := []store.Entry{
		{ID: "2", Data: samplePhoto("2"), Digest: "d2"},
		{ID: "1", Data: samplePhoto("1"), Digest: "d1"},
		{ID: "721", Data: sampleAlbum("721"), Digest: "d721"},
	}
	for _, entry := range entries {
		if err := fs.Set(ctx, entry); err != nil {
			t.Fatalf("file Set failed: %v", err)
		}
		if err := ps.Set(ctx, entry); err != nil {
			t.Fatalf("parquet Set failed: %v", err)
		}
	}
	if err := ps.Close(ctx); err != nil {
		t.Fatalf("parquet Close failed: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "file store directory", path: dir},
		{name: "parquet snapshot", path: parquetPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := loadEntries(ctx, tt.path)
			if err != nil {
				t.Fatalf("loadEntries failed: %v", err)
			}
			if len(entries) != 3 {
				t.Fatalf("Expected 3 entries, got %d", len(entries))
			}
			if err := executeInspect(ctx, tt.path, 0, true); err != nil {
				t.Errorf("Expected inspect to succeed, got %v", err)
			}
		})
	}
}

func TestPrintRecordKinds(t *testing.T) {
	if err := printAlbum(sampleAlbum("721")); err != nil {
		t.Errorf("Expected album to print, got %v", err)
	}
	if err := printPhoto(samplePhoto("1"), true); err != nil {
		t.Errorf("Expected photo to print, got %v", err)
	}
	if err := printAlbum([]byte(`{"photoCount":"many"}`)); err == nil {
		t.Error("Expected an error for an undecodable album")
	}
}

func TestLoadEntriesRejectsPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := loadEntries(context.Background(), path); err == nil {
		t.Error("Expected an error for a plain file")
	}
	if _, err := loadEntries(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected an error for a missing path")
	}
}
