// Package archive resolves the ROM image stored inside a zip archive.
//
// Only single-image archives are targeted: one member is selected, extracted
// next to the archive long enough to checksum it, and removed again.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/fileutil"
)

// ErrArchiveCorrupt is returned for unparseable, empty or damaged archives
var ErrArchiveCorrupt = errors.New("archive corrupt")

// PathMode selects what an archive item's playlist path points at
type PathMode string

const (
	// PathMember addresses the member inside the archive as "<zip>#<member>"
	PathMember PathMode = "member"
	// PathArchive uses the zip path itself
	PathArchive PathMode = "archive"
	// PathExtracted uses the sibling path the member was extracted to. That
	// file is deleted after checksumming, so the playlist entry will dangle.
	PathExtracted PathMode = "extracted"
)

// MemberSelect chooses which archive member represents the archive
type MemberSelect string

const (
	// SelectFirst takes the first file in the archive's own listing order
	SelectFirst MemberSelect = "first"
	// SelectMatch takes the first file ending with the target extension,
	// falling back to SelectFirst
	SelectMatch MemberSelect = "match"
	// SelectLargest takes the file with the largest uncompressed size
	SelectLargest MemberSelect = "largest"
)

// ParsePathMode validates a path mode name
func ParsePathMode(s string) (PathMode, error) {
	switch m := PathMode(strings.ToLower(s)); m {
	case PathMember, PathArchive, PathExtracted:
		return m, nil
	case "":
		return PathMember, nil
	}
	return "", fmt.Errorf("unknown zip path mode %q (must be member, archive or extracted)", s)
}

// ParseMemberSelect validates a member selection name
func ParseMemberSelect(s string) (MemberSelect, error) {
	switch m := MemberSelect(strings.ToLower(s)); m {
	case SelectFirst, SelectMatch, SelectLargest:
		return m, nil
	case "":
		return SelectFirst, nil
	}
	return "", fmt.Errorf("unknown zip member selection %q (must be first, match or largest)", s)
}

// Options configures member selection
type Options struct {
	Select MemberSelect
	// Extension is the target suffix used by SelectMatch
	Extension string
}

// Result describes the selected member of an archive
type Result struct {
	ArchivePath string
	// Member is the member name as stored in the archive
	Member string
	// ExtractedPath is where the member was written next to the archive.
	// The file no longer exists once Extract returns.
	ExtractedPath string
	Size          uint64
	// CRC32 is empty when the member was only inspected
	CRC32 string
}

// Label returns the member's base name without its extension
func (r Result) Label() string {
	return fileutil.StripExt(path.Base(r.Member))
}

// ItemPath returns the playlist path for the archive under mode
func (r Result) ItemPath(mode PathMode) string {
	switch mode {
	case PathArchive:
		return r.ArchivePath
	case PathExtracted:
		return r.ExtractedPath
	default:
		return r.ArchivePath + "#" + r.Member
	}
}

// Inspect selects the member without extracting it
func Inspect(zipPath string, opts Options) (Result, error) {
	r, err := open(zipPath)
	if err != nil {
		return Result{}, err
	}
	defer r.Close()

	f, err := selectMember(zipPath, r.File, opts)
	if err != nil {
		return Result{}, err
	}
	return newResult(zipPath, f), nil
}

// Extract selects a member, extracts it into the archive's directory,
// checksums it and removes the extracted copy
func Extract(zipPath string, opts Options) (Result, error) {
	r, err := open(zipPath)
	if err != nil {
		return Result{}, err
	}
	defer r.Close()

	f, err := selectMember(zipPath, r.File, opts)
	if err != nil {
		return Result{}, err
	}
	result := newResult(zipPath, f)

	tmpPath, err := extractMember(f, filepath.Dir(zipPath))
	if err != nil {
		return Result{}, fmt.Errorf("failed to extract %s from %s: %w", f.Name, zipPath, err)
	}

	sum, err := fileutil.CalculateCRC32(tmpPath)
	removeErr := os.Remove(tmpPath)
	if err != nil {
		return Result{}, err
	}
	if removeErr != nil {
		return Result{}, fmt.Errorf("failed to remove extracted file %s: %w", tmpPath, removeErr)
	}

	result.CRC32 = sum
	return result, nil
}

func open(zipPath string) (*zip.ReadCloser, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		if _, statErr := os.Stat(zipPath); statErr != nil {
			return nil, fileutil.OpenError(zipPath, statErr)
		}
		return nil, fmt.Errorf("failed to open archive %s: %w: %w", zipPath, ErrArchiveCorrupt, err)
	}
	return r, nil
}

func newResult(zipPath string, f *zip.File) Result {
	return Result{
		ArchivePath:   zipPath,
		Member:        f.Name,
		ExtractedPath: filepath.Join(filepath.Dir(zipPath), path.Base(f.Name)),
		Size:          f.UncompressedSize64,
	}
}

func selectMember(zipPath string, files []*zip.File, opts Options) (*zip.File, error) {
	var regular []*zip.File
	for _, f := range files {
		if !f.FileInfo().IsDir() {
			regular = append(regular, f)
		}
	}
	if len(regular) == 0 {
		return nil, fmt.Errorf("archive %s has no members: %w", zipPath, ErrArchiveCorrupt)
	}

	switch opts.Select {
	case SelectMatch:
		if opts.Extension != "" {
			for _, f := range regular {
				if strings.HasSuffix(f.Name, opts.Extension) {
					return f, nil
				}
			}
		}
	case SelectLargest:
		largest := regular[0]
		for _, f := range regular[1:] {
			if f.UncompressedSize64 > largest.UncompressedSize64 {
				largest = f
			}
		}
		return largest, nil
	}
	return regular[0], nil
}

// extractMember writes f into a temporary file in dir so that an existing
// file with the member's name is never touched
func extractMember(f *zip.File, dir string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrArchiveCorrupt, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(dir, ".extract-*-"+path.Base(f.Name))
	if err != nil {
		return "", fmt.Errorf("failed to create extraction file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(&trackedWriter{w: tmp}, rc)
	closeErr := tmp.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = &writeError{err: closeErr}
	}
	if copyErr != nil {
		os.Remove(tmpPath)
		var we *writeError
		if errors.As(copyErr, &we) {
			return "", we.err
		}
		return "", fmt.Errorf("%w: %w", ErrArchiveCorrupt, copyErr)
	}
	return tmpPath, nil
}

// trackedWriter marks write-side failures so they are not reported as a
// damaged archive
type trackedWriter struct {
	w io.Writer
}

type writeError struct {
	err error
}

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func (t *trackedWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		return n, &writeError{err: err}
	}
	return n, nil
}
