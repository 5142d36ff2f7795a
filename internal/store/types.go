package store

import "time"

// Entry is a cached checksum for one file or archive member
type Entry struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	CRC32     string    `json:"crc32"`
	CheckedAt time.Time `json:"checked_at"`
}

// CacheData is the on-disk layout of the cache file
type CacheData struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"` // key is the file path, or "<zip>#<member-select>" for archives
}
