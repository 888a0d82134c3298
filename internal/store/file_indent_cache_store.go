package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"tabsync/internal/indent"
)

type indentCacheFile struct {
	Windows map[string]indent.Cache `json:"windows"`
}

// FileIndentCacheStore keeps every window's cache in one JSON document.
type FileIndentCacheStore struct {
	path string
	mu   sync.Mutex
}

func NewFileIndentCacheStore(path string) (*FileIndentCacheStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache file path is required")
	}
	return &FileIndentCacheStore{path: path}, nil
}

func (s *FileIndentCacheStore) Load(ctx context.Context, windowID int) (*indent.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return nil, err
	}
	cache, ok := file.Windows[strconv.Itoa(windowID)]
	if !ok {
		return nil, nil
	}
	if err := validateCache(cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

func (s *FileIndentCacheStore) Save(ctx context.Context, windowID int, cache indent.Cache) error {
	if err := validateCache(cache); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}
	file.Windows[strconv.Itoa(windowID)] = cache
	return writeJSONAtomic(s.path, file)
}

func (s *FileIndentCacheStore) Delete(ctx context.Context, windowID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}
	key := strconv.Itoa(windowID)
	if _, ok := file.Windows[key]; !ok {
		return nil
	}
	delete(file.Windows, key)
	return writeJSONAtomic(s.path, file)
}

func (s *FileIndentCacheStore) List(ctx context.Context) (map[int]indent.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make(map[int]indent.Cache, len(file.Windows))
	for key, cache := range file.Windows {
		windowID, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: window key %q", ErrInvalidCache, key)
		}
		out[windowID] = cache
	}
	return out, nil
}

func (s *FileIndentCacheStore) Backend() string {
	return RepositoryBackendFile
}

func (s *FileIndentCacheStore) Close() error {
	return nil
}

func (s *FileIndentCacheStore) read() (*indentCacheFile, error) {
	file := &indentCacheFile{}
	if err := readJSON(s.path, file); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
	}
	if file.Windows == nil {
		file.Windows = map[string]indent.Cache{}
	}
	return file, nil
}
