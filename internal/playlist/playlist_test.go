package playlist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/fileutil"
)

func TestNew(t *testing.T) {
	p := New()

	if p.Version != "1.0" {
		t.Errorf("Expected Version=1.0, got %s", p.Version)
	}
	if p.DefaultCorePath != Detect || p.DefaultCoreName != Detect {
		t.Errorf("Expected default core fields to be DETECT, got %q/%q", p.DefaultCorePath, p.DefaultCoreName)
	}
	if p.LabelDisplayMode != 0 || p.RightThumbnailMode != 0 || p.LeftThumbnailMode != 0 || p.SortMode != 0 {
		t.Error("Expected display and sort modes to be 0")
	}
	if p.Items == nil || p.Len() != 0 {
		t.Errorf("Expected empty non-nil items, got %v", p.Items)
	}
}

func TestNewItem(t *testing.T) {
	item := NewItem("/roms/game.iso", "game", "", "Sony - PlayStation 2.lpl")

	if item.CRC32 != Detect {
		t.Errorf("Expected empty crc32 to become DETECT, got %s", item.CRC32)
	}
	if item.CorePath != Detect || item.CoreName != Detect {
		t.Errorf("Expected core fields to be DETECT, got %q/%q", item.CorePath, item.CoreName)
	}
	if item.DBName != "Sony - PlayStation 2.lpl" {
		t.Errorf("Expected db_name passthrough, got %s", item.DBName)
	}
}

func TestAddKeepsOrderAndValidates(t *testing.T) {
	p := New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := p.Add(NewItem("/roms/"+name+".iso", name, "CBF43926", "db")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if got := []string{p.Items[0].Label, p.Items[1].Label, p.Items[2].Label}; strings.Join(got, ",") != "zeta,alpha,mid" {
		t.Errorf("Expected insertion order, got %v", got)
	}

	tests := []struct {
		name  string
		crc32 string
	}{
		{"lower case", "cbf43926"},
		{"short", "ABC"},
		{"other sentinel", "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Add(NewItem("/roms/bad.iso", "bad", tt.crc32, "db"))
			if !errors.Is(err, ErrInvalidCRC32) {
				t.Errorf("Expected ErrInvalidCRC32 for %q, got %v", tt.crc32, err)
			}
		})
	}
	if p.Len() != 3 {
		t.Errorf("Expected rejected items not to be added, got %d items", p.Len())
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		dir, name, expected string
	}{
		{"/out", "PS2", filepath.Join("/out", "PS2.lpl")},
		{"/out", "PS2.lpl", filepath.Join("/out", "PS2.lpl")},
		{"out", "Sony - PlayStation", filepath.Join("out", "Sony - PlayStation.lpl")},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.dir, tt.name); got != tt.expected {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.dir, tt.name, got, tt.expected)
		}
	}
}

func TestMarshalFormat(t *testing.T) {
	p := New()
	if err := p.Add(NewItem("/roms/game.iso", "game", "CBF43926", "db")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	expected := `{
    "version": "1.0",
    "default_core_path": "DETECT",
    "default_core_name": "DETECT",
    "label_display_mode": 0,
    "right_thumbnail_mode": 0,
    "left_thumbnail_mode": 0,
    "sort_mode": 0,
    "items": [
        {
            "path": "/roms/game.iso",
            "label": "game",
            "core_path": "DETECT",
            "core_name": "DETECT",
            "crc32": "CBF43926",
            "db_name": "db"
        }
    ]
}`
	if string(data) != expected {
		t.Errorf("Unexpected encoding:\n%s\nwant:\n%s", data, expected)
	}
}

func TestMarshalEmptyItems(t *testing.T) {
	p := &Playlist{Version: Version}
	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"items": []`) {
		t.Errorf("Expected empty items array, got %s", data)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := OutputPath(dir, "roundtrip")

	p := New()
	items := []Item{
		NewItem(filepath.Join(dir, "Game One.iso"), "Game One", "0A1B2C3D", "Sony - PlayStation 2.lpl"),
		NewItem(filepath.Join(dir, "Jeux é.iso"), "Jeux é", Detect, "Sony - PlayStation 2.lpl"),
		NewItem(filepath.Join(dir, "pack.zip")+"#rom.bin", "rom", "FFFFFFFF", "Sony - PlayStation 2.lpl"),
	}
	for _, item := range items {
		if err := p.Add(item); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if err := Write(path, p); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Len() != len(items) {
		t.Fatalf("Expected %d items, got %d", len(items), got.Len())
	}
	for i := range items {
		if got.Items[i] != items[i] {
			t.Errorf("Item %d: expected %+v, got %+v", i, items[i], got.Items[i])
		}
	}
	if got.Version != Version || got.DefaultCoreName != Detect {
		t.Errorf("Expected metadata to survive round trip, got %+v", got)
	}
}

func TestWriteOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := OutputPath(dir, "existing")
	if err := os.WriteFile(path, []byte(strings.Repeat("old content ", 1000)), 0o644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	if err := Write(path, New()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Len() != 0 {
		t.Errorf("Expected overwritten playlist to be empty, got %d items", got.Len())
	}
}

func TestWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "out.lpl")
	err := Write(path, New())
	if !errors.Is(err, ErrWriteFailure) {
		t.Errorf("Expected ErrWriteFailure, got %v", err)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := OutputPath(dir, "PS2")
	if err := os.WriteFile(path, []byte("previous"), 0o600); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	if err := Write(path, New()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "PS2.lpl" {
		t.Errorf("Expected only PS2.lpl in %s, got %v", dir, entries)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("Expected mode 0644, got %v", info.Mode().Perm())
	}
}

func TestWriteFailureKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	// a directory in place of the playlist makes the final rename fail
	target := filepath.Join(dir, "busy.lpl")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	err := Write(target, New())
	if !errors.Is(err, ErrWriteFailure) {
		t.Fatalf("Expected ErrWriteFailure, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected temp file to be cleaned up, got %v", entries)
	}
	if _, err := os.Stat(filepath.Join(target, "keep")); err != nil {
		t.Errorf("Expected existing target to be untouched: %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.lpl"))
	if !errors.Is(err, fileutil.ErrPathNotFound) {
		t.Errorf("Expected ErrPathNotFound, got %v", err)
	}

	bad := filepath.Join(dir, "bad.lpl")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := Read(bad); err == nil {
		t.Error("Expected parse error for malformed playlist")
	}
}
