package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File writes one <id>.json document per record under a directory, the layout
// a static-site content collection reads
type File struct {
	dir string
}

// fileDocument is the on-disk shape of one record
type fileDocument struct {
	ID     string          `json:"id"`
	Digest string          `json:"digest"`
	Data   json.RawMessage `json:"data"`
}

// NewFile creates the directory if needed
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("file store needs a path")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

// Set writes the record through a temporary file so readers never see a
// partial document
func (f *File) Set(ctx context.Context, entry Entry) error {
	if err := checkID(entry.ID); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+entry.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create record file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	doc := fileDocument{ID: entry.ID, Digest: entry.Digest, Data: entry.Data}
	if err := encoder.Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode record %s: %w", entry.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close record file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path(entry.ID)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", entry.ID, err)
	}
	return nil
}

func (f *File) load(id string) (*fileDocument, error) {
	file, err := os.Open(f.path(id))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var doc fileDocument
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}

	// the document is written indented; hand back the compact form
	var compact bytes.Buffer
	if err := json.Compact(&compact, doc.Data); err == nil {
		doc.Data = compact.Bytes()
	}
	return &doc, nil
}

// Digest implements DigestReader
func (f *File) Digest(ctx context.Context, id string) (string, bool, error) {
	if err := checkID(id); err != nil {
		return "", false, err
	}
	doc, err := f.load(id)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return doc.Digest, true, nil
}

// List implements Lister
func (f *File) List(ctx context.Context) ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	sort.Strings(matches)

	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		name := filepath.Base(m)
		if strings.HasPrefix(name, ".") {
			continue
		}
		doc, err := f.load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{ID: doc.ID, Data: doc.Data, Digest: doc.Digest})
	}
	return entries, nil
}

func (f *File) Close(ctx context.Context) error {
	return nil
}
