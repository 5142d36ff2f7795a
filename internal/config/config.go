// Package config collects the settings of a playlist run into one value so
// the scanner never talks to the terminal.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/archive"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/playlist"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config holds all settings of a generate run
type Config struct {
	RomDir     string
	OutputDir  string
	OutputName string
	Extension  string
	DBName     string
	UseCRC32   bool
	HandleZip  bool

	ZipPathMode archive.PathMode
	ZipMember   archive.MemberSelect

	Workers     int
	MetricsFile string
	DryRun      bool
}

// FromEnv returns a Config seeded from RETROARCH_PLAYLIST_* variables
func FromEnv() Config {
	return Config{
		OutputDir:   os.Getenv("RETROARCH_PLAYLIST_OUTPUT_DIR"),
		DBName:      os.Getenv("RETROARCH_PLAYLIST_DB_NAME"),
		ZipPathMode: archive.PathMember,
		ZipMember:   archive.SelectFirst,
	}
}

// OutputPath returns the playlist file the run writes
func (c Config) OutputPath() string {
	return playlist.OutputPath(c.OutputDir, c.OutputName)
}

// Missing returns the names of required settings that are still empty
func (c Config) Missing() []string {
	var missing []string
	if c.RomDir == "" {
		missing = append(missing, "rom-dir")
	}
	if c.OutputDir == "" {
		missing = append(missing, "output-dir")
	}
	if c.OutputName == "" {
		missing = append(missing, "name")
	}
	if c.Extension == "" {
		missing = append(missing, "ext")
	}
	return missing
}

// Validate checks everything that must hold before traversal starts: the
// ROM directory exists, the output directory is writable and the names are
// usable. A dry run skips the output directory checks.
func (c Config) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}

	if strings.ContainsAny(c.OutputName, `/\`) {
		return fmt.Errorf("%w: output name %q must not contain path separators", ErrInvalid, c.OutputName)
	}

	if _, err := archive.ParsePathMode(string(c.ZipPathMode)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := archive.ParseMemberSelect(string(c.ZipMember)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := checkDir(c.RomDir, "ROM directory"); err != nil {
		return err
	}

	if c.DryRun {
		return nil
	}

	if err := checkDir(c.OutputDir, "output directory"); err != nil {
		return err
	}
	if err := checkWritable(c.OutputDir); err != nil {
		return err
	}
	return nil
}

func checkDir(path, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrInvalid, what, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s %s is not a directory", ErrInvalid, what, path)
	}
	return nil
}

// checkWritable probes dir by creating and removing a temporary file
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".retroarch-playlist-probe-*")
	if err != nil {
		return fmt.Errorf("%w: output directory %s is not writable: %w", ErrInvalid, dir, err)
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("failed to remove probe file %s: %w", name, err)
	}
	return nil
}
