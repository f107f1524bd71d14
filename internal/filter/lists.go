package filter

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ListStore serves the named value lists referenced by "is in list"
// elements. Lists are read lazily from dir, one literal per line, and kept
// until Reload is called.
type ListStore struct {
	dir   string
	mu    sync.RWMutex
	lists map[string]map[string]struct{}
	group singleflight.Group
}

// NewListStore returns a store reading lists from dir.
func NewListStore(dir string) *ListStore {
	return &ListStore{dir: dir, lists: make(map[string]map[string]struct{})}
}

// Dir returns the directory lists are read from.
func (s *ListStore) Dir() string { return s.dir }

// Get returns the set of literals in the named list. Concurrent first loads
// of the same list share one read.
func (s *ListStore) Get(name string) (map[string]struct{}, error) {
	if err := validateListName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	set, ok := s.lists[name]
	s.mu.RUnlock()
	if ok {
		return set, nil
	}

	v, err, _ := s.group.Do(name, func() (interface{}, error) {
		set, err := readList(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.lists[name] = set
		s.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]struct{}), nil
}

// Reload drops every cached list; the next Get reads from disk again.
func (s *ListStore) Reload() {
	s.mu.Lock()
	s.lists = make(map[string]map[string]struct{})
	s.mu.Unlock()
}

// Names lists the files available in the list directory.
func (s *ListStore) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read list directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func readList(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrListNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("open list: %w", err)
	}
	defer f.Close()

	set := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		set[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return set, nil
}
