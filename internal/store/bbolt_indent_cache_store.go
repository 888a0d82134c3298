package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"tabsync/internal/indent"
)

var bucketIndentCache = []byte("indent_cache")

type BboltIndentCacheStore struct {
	db *bolt.DB
}

func NewBboltIndentCacheStore(path string) (*BboltIndentCacheStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketIndentCache)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BboltIndentCacheStore{db: db}, nil
}

func windowKey(windowID int) []byte {
	return []byte(strconv.Itoa(windowID))
}

func (s *BboltIndentCacheStore) Load(ctx context.Context, windowID int) (*indent.Cache, error) {
	var cache *indent.Cache
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIndentCache)
		if b == nil {
			return nil
		}
		raw := b.Get(windowKey(windowID))
		if len(raw) == 0 {
			return nil
		}
		decoded := indent.Cache{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCache, err)
		}
		cache = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return nil, nil
	}
	if err := validateCache(*cache); err != nil {
		return nil, err
	}
	return cache, nil
}

func (s *BboltIndentCacheStore) Save(ctx context.Context, windowID int, cache indent.Cache) error {
	if err := validateCache(cache); err != nil {
		return err
	}
	raw, err := json.Marshal(cache)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIndentCache)
		if b == nil {
			return errors.New("indent cache bucket missing")
		}
		return b.Put(windowKey(windowID), raw)
	})
}

func (s *BboltIndentCacheStore) Delete(ctx context.Context, windowID int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIndentCache)
		if b == nil {
			return nil
		}
		return b.Delete(windowKey(windowID))
	})
}

func (s *BboltIndentCacheStore) List(ctx context.Context) (map[int]indent.Cache, error) {
	out := map[int]indent.Cache{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIndentCache)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			windowID, err := strconv.Atoi(string(k))
			if err != nil {
				return fmt.Errorf("%w: window key %q", ErrInvalidCache, k)
			}
			var cache indent.Cache
			if err := json.Unmarshal(v, &cache); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidCache, err)
			}
			out[windowID] = cache
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BboltIndentCacheStore) Backend() string {
	return RepositoryBackendBbolt
}

func (s *BboltIndentCacheStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
