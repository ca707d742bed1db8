// Package crossover persists a day's crossover records as parquet files.
package crossover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/record"
)

const fileExt = ".parquet"

// Repo stores crossover files under <dir>/<version>/<sources>/<YYYY>/.
type Repo struct {
	dir string
}

// New creates a crossover file repository rooted at dir.
func New(dir string) *Repo {
	return &Repo{dir: dir}
}

// Path returns the absolute location of a day's file.
func (r *Repo) Path(key record.FileKey) string {
	return filepath.Join(r.dir, filepath.FromSlash(key.Dir()), key.Name()+fileExt)
}

// Write replaces the day's file with records and meta. An empty record set still produces a file.
// The file is written next to its destination and renamed into place.
func (r *Repo) Write(ctx context.Context, key record.FileKey, records []record.Record, meta record.Metadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := r.Path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+key.Name()+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := parquet.NewGenericWriter[record.Record](tmp, metadataOptions(meta)...)
	if _, err := w.Write(records); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write records: %w", err)
	}
	if err := w.Close(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("close writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}
	return dst, nil
}

// metadataOptions orders the header keys so identical inputs give identical files.
func metadataOptions(meta record.Metadata) []parquet.WriterOption {
	kv := meta.KeyValues()
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]parquet.WriterOption, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, parquet.KeyValueMetadata(k, kv[k]))
	}
	return opts
}

// Read loads a day's records and header. A missing file yields domain.ErrNotFound.
func (r *Repo) Read(_ context.Context, key record.FileKey) ([]record.Record, record.Metadata, error) {
	path := r.Path(key)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, record.Metadata{}, fmt.Errorf("%s: %w", key.Name(), domain.ErrNotFound)
		}
		return nil, record.Metadata{}, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, record.Metadata{}, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, record.Metadata{}, fmt.Errorf("open parquet: %w", err)
	}

	kv := make(map[string]string)
	for k := range (record.Metadata{}).KeyValues() {
		if v, ok := pf.Lookup(k); ok {
			kv[k] = v
		}
	}
	meta, err := record.MetadataFromKeyValues(kv)
	if err != nil {
		return nil, record.Metadata{}, err
	}

	rows := make([]record.Record, pf.NumRows())
	if len(rows) == 0 {
		return rows, meta, nil
	}
	reader := parquet.NewGenericReader[record.Record](f)
	defer func() { _ = reader.Close() }()
	// reads may stop at row group boundaries
	n := 0
	for n < len(rows) {
		got, err := reader.Read(rows[n:])
		n += got
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, record.Metadata{}, fmt.Errorf("read records: %w", err)
		}
		if got == 0 {
			break
		}
	}
	return rows[:n], meta, nil
}

// Check verifies that the root directory exists and is writable.
func (r *Repo) Check(_ context.Context) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(r.dir, ".health-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
