package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/markusbegerow/feeddeck/pkg/domain"
)

// document file names inside the data directory
const (
	docProjects  = "projects.json"
	docRead      = "read.json"
	docReadLog   = "read_log.json"
	docSeen      = "seen.json"
	docOGCache   = "cache_og.json"
	docLanguages = "languages.json"
)

// Store persists named JSON documents in a single data directory. Documents
// are whole-file read-modify-write units with no merge logic; callers own a
// document for the duration of an update. A read failure (missing or corrupt
// file) degrades to an empty document so the application keeps running.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Projects returns the project-name to feed-URL-list mapping.
func (s *Store) Projects() map[string][]string {
	res := map[string][]string{}
	s.load(docProjects, &res)
	return res
}

// SaveProjects persists the whole projects document.
func (s *Store) SaveProjects(projects map[string][]string) error {
	return s.save(docProjects, projects)
}

// ReadState returns the article-key to read-flag mapping.
func (s *Store) ReadState() map[string]bool {
	res := map[string]bool{}
	s.load(docRead, &res)
	return res
}

// SaveReadState persists the whole read-state document.
func (s *Store) SaveReadState(read map[string]bool) error {
	return s.save(docRead, read)
}

// ReadLog returns the article-key to read-record mapping.
func (s *Store) ReadLog() map[string]domain.ReadRecord {
	res := map[string]domain.ReadRecord{}
	s.load(docReadLog, &res)
	return res
}

// SaveReadLog persists the whole read-log document.
func (s *Store) SaveReadLog(records map[string]domain.ReadRecord) error {
	return s.save(docReadLog, records)
}

// SeenState returns the feed-URL to last-seen-timestamp mapping. Timestamps
// are RFC3339 strings.
func (s *Store) SeenState() map[string]string {
	res := map[string]string{}
	s.load(docSeen, &res)
	return res
}

// SaveSeenState persists the whole seen-state document.
func (s *Store) SaveSeenState(seen map[string]string) error {
	return s.save(docSeen, seen)
}

// OGCache returns the article-link to preview-image-URL mapping.
func (s *Store) OGCache() map[string]string {
	res := map[string]string{}
	s.load(docOGCache, &res)
	return res
}

// SaveOGCache persists the whole image cache document.
func (s *Store) SaveOGCache(cache map[string]string) error {
	return s.save(docOGCache, cache)
}

// Languages returns the static translation table. It is read-only input and
// never written by the core.
func (s *Store) Languages() map[string]map[string]string {
	res := map[string]map[string]string{}
	s.load(docLanguages, &res)
	return res
}

// load reads a document into v. Missing files are normal (first run); corrupt
// files are logged and treated as empty.
func (s *Store) load(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name)) //nolint:gosec // names are package constants
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] failed to read %s: %v", name, err)
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("[WARN] corrupt document %s, starting empty: %v", name, err)
	}
}

// save writes a document atomically via temp file and rename.
func (s *Store) save(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
