package stage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/xover/internal/db"
	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/job"
)

// store is the consumer interface for stage operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Store keeps the processing stage of every (sources, day) in one hash per stage name:
// HSET <prefix>stage:<name> <sources>_<date> Complete|Failed.
type Store struct {
	store  store
	prefix string
}

// New creates a stage store. prefix is prepended to every key, e.g. "xover:".
func New(s store, prefix string) *Store {
	return &Store{store: s, prefix: prefix}
}

// Set records the stage of one field.
func (s *Store) Set(ctx context.Context, name, field string, stage job.Stage) error {
	key := s.key(name)
	if err := s.store.HSet(ctx, key, map[string]string{field: string(stage)}); err != nil {
		return fmt.Errorf("stage HSET %s %s: %w", key, field, err)
	}
	return nil
}

// Get returns every recorded field of a stage. A stage that was never written yields ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (map[string]job.Stage, error) {
	key := s.key(name)
	raw, err := s.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("stage %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("stage HGETALL %s: %w", key, err)
	}

	out := make(map[string]job.Stage, len(raw))
	for field, v := range raw {
		out[field] = job.Stage(v)
	}
	return out, nil
}

// Names lists the stage names that have at least one recorded field, sorted.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	keys, err := s.store.Scan(ctx, s.key("*"))
	if err != nil {
		return nil, fmt.Errorf("stage SCAN: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, s.key("")))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) key(name string) string {
	return s.prefix + "stage:" + name
}
