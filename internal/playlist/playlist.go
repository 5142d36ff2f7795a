package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/fileutil"
)

const (
	// Version is the playlist format version written to every file
	Version = "1.0"
	// Detect tells the launcher to resolve a field at load time
	Detect = "DETECT"
	// Extension is the file extension of playlist files
	Extension = ".lpl"
)

var (
	// ErrWriteFailure is returned when the playlist file cannot be written
	ErrWriteFailure = errors.New("write failure")
	// ErrInvalidCRC32 is returned when an item's crc32 is neither a checksum nor DETECT
	ErrInvalidCRC32 = errors.New("invalid crc32 value")
)

// Playlist is the top-level .lpl document. Field order matches the files
// RetroArch writes.
type Playlist struct {
	Version            string `json:"version"`
	DefaultCorePath    string `json:"default_core_path"`
	DefaultCoreName    string `json:"default_core_name"`
	LabelDisplayMode   int    `json:"label_display_mode"`
	RightThumbnailMode int    `json:"right_thumbnail_mode"`
	LeftThumbnailMode  int    `json:"left_thumbnail_mode"`
	SortMode           int    `json:"sort_mode"`
	Items              []Item `json:"items"`
}

// Item is one playlist entry
type Item struct {
	Path     string `json:"path"`
	Label    string `json:"label"`
	CorePath string `json:"core_path"`
	CoreName string `json:"core_name"`
	CRC32    string `json:"crc32"`
	DBName   string `json:"db_name"`
}

// New returns an empty playlist with the fixed metadata filled in
func New() *Playlist {
	return &Playlist{
		Version:         Version,
		DefaultCorePath: Detect,
		DefaultCoreName: Detect,
		Items:           []Item{},
	}
}

// NewItem creates an item whose core fields are left for the launcher to
// detect. An empty crc32 is stored as DETECT.
func NewItem(path, label, crc32, dbName string) Item {
	if crc32 == "" {
		crc32 = Detect
	}
	return Item{
		Path:     path,
		Label:    label,
		CorePath: Detect,
		CoreName: Detect,
		CRC32:    crc32,
		DBName:   dbName,
	}
}

// ValidCRC32Field reports whether v may be stored in an item's crc32 field
func ValidCRC32Field(v string) bool {
	return v == Detect || fileutil.ValidCRC32(v)
}

// Add appends an item, keeping insertion order
func (p *Playlist) Add(item Item) error {
	if !ValidCRC32Field(item.CRC32) {
		return fmt.Errorf("%w %q for %s", ErrInvalidCRC32, item.CRC32, item.Path)
	}
	p.Items = append(p.Items, item)
	return nil
}

// Len returns the number of items
func (p *Playlist) Len() int {
	return len(p.Items)
}

// OutputPath joins dir and name, appending the .lpl extension unless name
// already carries it
func OutputPath(dir, name string) string {
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	return filepath.Join(dir, name)
}

// Marshal encodes the playlist with 4-space indentation
func Marshal(p *Playlist) ([]byte, error) {
	if p.Items == nil {
		cp := *p
		cp.Items = []Item{}
		p = &cp
	}
	return json.MarshalIndent(p, "", "    ")
}

// Write serializes the playlist to path, replacing any existing file
func Write(path string, p *Playlist) error {
	data, err := Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal playlist: %w", err)
	}

	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write playlist %s: %w: %w", path, ErrWriteFailure, err)
	}
	return nil
}

// writeAtomic writes data to a temp file beside path and renames it into
// place, so an existing playlist is either kept or fully replaced
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Read parses an existing playlist file
func Read(path string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileutil.OpenError(path, err)
	}

	p := New()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse playlist %s: %w", path, err)
	}
	if p.Items == nil {
		p.Items = []Item{}
	}
	return p, nil
}
