// Package store persists CRC32 checksums between runs so unchanged ROMs are
// not re-read.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultDataFile = ".retroarch-playlist-cache.json"
	dataVersion     = 1
)

// Manager handles checksum cache operations
type Manager struct {
	dataPath string
	data     *CacheData
	dirty    bool
	mu       sync.RWMutex
}

// DefaultPath returns the cache file location used when none is given
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultDataFile), nil
}

// NewManager creates a cache manager backed by dataPath (or DefaultPath when
// empty), loading existing entries if the file exists
func NewManager(dataPath string) (*Manager, error) {
	if dataPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		dataPath = p
	}

	m := &Manager{
		dataPath: dataPath,
		data:     newData(),
	}

	if err := m.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load checksum cache: %w", err)
	}

	return m, nil
}

func newData() *CacheData {
	return &CacheData{
		Version: dataVersion,
		Entries: make(map[string]Entry),
	}
}

// Path returns the backing file path
func (m *Manager) Path() string {
	return m.dataPath
}

// load loads cache data from file
func (m *Manager) load() error {
	data, err := os.ReadFile(m.dataPath)
	if err != nil {
		return err
	}

	loaded := newData()
	if err := json.Unmarshal(data, loaded); err != nil {
		return err
	}
	if loaded.Entries == nil {
		loaded.Entries = make(map[string]Entry)
	}
	m.data = loaded
	return nil
}

// Save writes cache data to file if anything changed
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	data, err := json.MarshalIndent(m.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checksum cache: %w", err)
	}

	if err := os.WriteFile(m.dataPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write checksum cache: %w", err)
	}
	m.dirty = false
	return nil
}

// Lookup returns the cached checksum for key if size and modTime still match
func (m *Manager) Lookup(key string, size int64, modTime time.Time) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.data.Entries[key]
	if !ok {
		return "", false
	}
	if entry.Size != size || !entry.ModTime.Equal(modTime) {
		return "", false
	}
	return entry.CRC32, true
}

// Put records a checksum for key
func (m *Manager) Put(key, path string, size int64, modTime time.Time, crc32 string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.Entries[key] = Entry{
		Path:      path,
		Size:      size,
		ModTime:   modTime,
		CRC32:     crc32,
		CheckedAt: time.Now(),
	}
	m.dirty = true
}

// Remove deletes an entry and reports whether it existed
func (m *Manager) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.Entries[key]; !ok {
		return false
	}
	delete(m.data.Entries, key)
	m.dirty = true
	return true
}

// Entries returns all entries sorted by key
func (m *Manager) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data.Entries))
	for k := range m.data.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, m.data.Entries[k])
	}
	return entries
}

// Prune removes entries whose file no longer exists on disk and returns them
func (m *Manager) Prune() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []Entry
	for key, entry := range m.data.Entries {
		if _, err := os.Stat(entry.Path); os.IsNotExist(err) {
			removed = append(removed, entry)
			delete(m.data.Entries, key)
		}
	}
	if len(removed) > 0 {
		m.dirty = true
	}
	sort.Slice(removed, func(i, j int) bool {
		return removed[i].Path < removed[j].Path
	})
	return removed
}

// Clear drops every entry and deletes the cache file
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = newData()
	m.dirty = false
	if err := os.Remove(m.dataPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove checksum cache: %w", err)
	}
	return nil
}
