package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/parquet-go/parquet-go"
)

// ParquetRow is the column layout of a snapshot file
type ParquetRow struct {
	ID     string `parquet:"id"`
	Digest string `parquet:"digest"`
	Data   string `parquet:"data"`
}

// Parquet keeps the whole record set in memory and writes a single snapshot
// file on Close. An existing snapshot is loaded on open so digests carry over
// between runs.
type Parquet struct {
	path    string
	entries map[string]Entry
	mu      sync.RWMutex
}

// OpenParquet loads path when it exists
func OpenParquet(path string) (*Parquet, error) {
	if path == "" {
		return nil, errors.New("parquet store needs a path")
	}

	p := &Parquet{path: path, entries: make(map[string]Entry)}

	entries, err := ReadParquet(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		p.entries[e.ID] = e
	}
	return p, nil
}

// ReadParquet reads every row of a snapshot file
func ReadParquet(path string) ([]Entry, error) {
	slog.Debug("Opening Parquet file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[ParquetRow](pf)
	defer reader.Close()

	var entries []Entry
	rows := make([]ParquetRow, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			entries = append(entries, Entry{ID: row.ID, Digest: row.Digest, Data: []byte(row.Data)})
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return entries, nil
}

func (p *Parquet) Set(ctx context.Context, entry Entry) error {
	if err := checkID(entry.ID); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entry.Data = append([]byte(nil), entry.Data...)
	p.entries[entry.ID] = entry
	return nil
}

// Digest implements DigestReader
func (p *Parquet) Digest(ctx context.Context, id string) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[id]
	return entry.Digest, ok, nil
}

// List implements Lister
func (p *Parquet) List(ctx context.Context) ([]Entry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Close writes the snapshot, sorted by id
func (p *Parquet) Close(ctx context.Context) error {
	entries, _ := p.List(ctx)

	rows := make([]ParquetRow, len(entries))
	for i, e := range entries {
		rows[i] = ParquetRow{ID: e.ID, Digest: e.Digest, Data: string(e.Data)}
	}

	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmp := p.path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write parquet snapshot: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("failed to replace parquet snapshot: %w", err)
	}

	slog.Debug("Wrote Parquet snapshot", "path", p.path, "rows", len(rows))
	return nil
}
