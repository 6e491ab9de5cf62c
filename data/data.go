package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileName is the cache file kept next to the manifest.
const FileName = "zine-data.json"

// ErrMalformed reports a cache file that exists but cannot be decoded.
var ErrMalformed = errors.New("malformed zine data")

// Preview is the metadata shown for an external link.
type Preview struct {
	Title       string
	Description string
}

// MarshalJSON encodes the preview as a [title, description] pair.
func (p Preview) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Title, p.Description})
}

// UnmarshalJSON decodes a [title, description] pair.
func (p *Preview) UnmarshalJSON(raw []byte) error {
	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("preview must have 2 elements, got %d", len(pair))
	}
	p.Title = pair[0]
	p.Description = pair[1]
	return nil
}

// Data is the persisted payload. It is only reachable through Store.
type Data struct {
	URLPreviews map[string]Preview `json:"urlPreviews"`
}

func newData() *Data {
	return &Data{URLPreviews: make(map[string]Preview)}
}

// IsEmpty reports whether there is nothing worth persisting.
func (d *Data) IsEmpty() bool {
	return len(d.URLPreviews) == 0
}

// InsertURLPreview upserts the preview for url.
func (d *Data) InsertURLPreview(url string, preview Preview) {
	d.URLPreviews[url] = preview
}

// snapshot returns a copy of the preview mapping.
func (d *Data) snapshot() map[string]Preview {
	out := make(map[string]Preview, len(d.URLPreviews))
	for k, v := range d.URLPreviews {
		out[k] = v
	}
	return out
}

// URLs lists the cached URLs in lexicographic order.
func (d *Data) URLs() []string {
	keys := make([]string, 0, len(d.URLPreviews))
	for k := range d.URLPreviews {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store guards a Data value shared by every part of one build.
type Store struct {
	mu   sync.RWMutex
	data *Data
}

// Open reads <dir>/zine-data.json. A missing file yields an empty store.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, FileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Store{data: newData()}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	d := newData()
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	if d.URLPreviews == nil {
		d.URLPreviews = make(map[string]Preview)
	}
	return &Store{data: d}, nil
}

// Update runs fn with exclusive access to the data.
func (s *Store) Update(fn func(*Data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

// View runs fn with shared read access. fn must not mutate the data.
func (s *Store) View(fn func(*Data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// InsertURLPreview upserts a single preview. Last writer wins.
func (s *Store) InsertURLPreview(url string, preview Preview) {
	s.Update(func(d *Data) {
		d.InsertURLPreview(url, preview)
	})
}

// URLPreview looks up the cached preview for url.
func (s *Store) URLPreview(url string) (Preview, bool) {
	var (
		preview Preview
		ok      bool
	)
	s.View(func(d *Data) {
		preview, ok = d.URLPreviews[url]
	})
	return preview, ok
}

// URLPreviews returns a snapshot of all cached previews.
func (s *Store) URLPreviews() map[string]Preview {
	var out map[string]Preview
	s.View(func(d *Data) {
		out = d.snapshot()
	})
	return out
}

// Export writes the store to <dir>/zine-data.json.
// An empty store never touches the filesystem, so a previously exported
// file is left as it is.
func (s *Store) Export(dir string) error {
	var (
		payload []byte
		err     error
		empty   bool
	)
	s.View(func(d *Data) {
		if d.IsEmpty() {
			empty = true
			return
		}
		payload, err = json.MarshalIndent(d, "", "  ")
	})
	if empty {
		return nil
	}
	if err != nil {
		return fmt.Errorf("encode zine data: %w", err)
	}
	return writeAtomic(filepath.Join(dir, FileName), payload)
}

func writeAtomic(dest string, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".zine-data-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	return nil
}

// Loader hands out a single Store per process. The first Load decides the
// source directory; later calls return the same store and error.
type Loader struct {
	once  sync.Once
	store *Store
	err   error
}

// Load opens the store on first use.
func (l *Loader) Load(dir string) (*Store, error) {
	l.once.Do(func() {
		l.store, l.err = Open(dir)
	})
	return l.store, l.err
}
