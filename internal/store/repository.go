// Package store persists the indent stylesheet cache between sessions.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tabsync/internal/indent"
)

const (
	RepositoryBackendFile  = "file"
	RepositoryBackendBbolt = "bbolt"
)

var ErrInvalidCache = errors.New("invalid indent cache")

// IndentCacheStore keeps one indent cache per window.
type IndentCacheStore interface {
	// Load returns nil without error when nothing is stored for windowID.
	Load(ctx context.Context, windowID int) (*indent.Cache, error)
	Save(ctx context.Context, windowID int, cache indent.Cache) error
	Delete(ctx context.Context, windowID int) error
	List(ctx context.Context) (map[int]indent.Cache, error)
	Backend() string
	Close() error
}

// Open returns the store for backend at path.
func Open(backend, path string) (IndentCacheStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", RepositoryBackendBbolt:
		return NewBboltIndentCacheStore(path)
	case RepositoryBackendFile:
		return NewFileIndentCacheStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// validateCache rejects blobs that cannot have been produced by the
// generator. The definition is only checked when present, since a cache
// without text is regenerated from its parameters.
func validateCache(cache indent.Cache) error {
	if cache.LastMaxLevel < -1 {
		return fmt.Errorf("%w: last max level %d", ErrInvalidCache, cache.LastMaxLevel)
	}
	if cache.Definition == "" {
		return nil
	}
	if err := indent.Validate(cache.Definition); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCache, err)
	}
	return nil
}
