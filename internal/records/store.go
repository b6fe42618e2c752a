package records

import (
	"context"
	"io"
	"sync"

	"github.com/jonathan/provider-matcher/internal/types"
	"golang.org/x/sync/errgroup"
)

// Load reads both sources concurrently and returns the eligible pools.
// Any failure on either source yields a *LoadError and no data.
func Load(ctx context.Context, directors, nurses Source) (*types.Dataset, error) {
	var dataset types.Dataset

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := readSource(gctx, directors, decodeDirectors)
		if err != nil {
			return err
		}
		dataset.Directors = rows
		return nil
	})
	g.Go(func() error {
		rows, err := readSource(gctx, nurses, decodeNurses)
		if err != nil {
			return err
		}
		dataset.Nurses = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dataset, nil
}

func readSource[T any](ctx context.Context, src Source, decode func(io.Reader) ([]T, error)) ([]T, error) {
	if src == nil {
		return nil, &LoadError{Source: "(nil)", Message: "source is not configured"}
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &LoadError{Source: src.Name(), Message: "failed to open source", Cause: err}
	}
	defer func() { _ = rc.Close() }()

	rows, err := decode(rc)
	if err != nil {
		return nil, &LoadError{Source: src.Name(), Message: "failed to decode source", Cause: err}
	}
	return rows, nil
}

// Store owns the dataset for one session. The first call to Dataset loads
// both sources; every later call returns the same dataset or the same error.
type Store struct {
	directors Source
	nurses    Source

	once    sync.Once
	dataset *types.Dataset
	err     error
}

// NewStore creates a Store over the given sources. Nothing is read until Dataset is called.
func NewStore(directors, nurses Source) *Store {
	return &Store{directors: directors, nurses: nurses}
}

// NewStaticStore creates a Store that serves an already-loaded dataset.
func NewStaticStore(dataset *types.Dataset) *Store {
	s := &Store{dataset: dataset}
	s.once.Do(func() {})
	return s
}

// Dataset returns the cached dataset, loading it on first use.
func (s *Store) Dataset(ctx context.Context) (*types.Dataset, error) {
	s.once.Do(func() {
		s.dataset, s.err = Load(ctx, s.directors, s.nurses)
	})
	return s.dataset, s.err
}
