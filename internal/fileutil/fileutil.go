package fileutil

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ChunkSize is the read size used when streaming a file into the checksum
const ChunkSize = 8192

var (
	// ErrPathNotFound is returned when the file to checksum does not exist
	ErrPathNotFound = errors.New("path not found")
	// ErrNotReadable is returned when the file exists but cannot be read
	ErrNotReadable = errors.New("not readable")
)

// CalculateCRC32 calculates the CRC32 (IEEE) checksum of a file and returns it
// as an 8 character upper-case hex string
func CalculateCRC32(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", OpenError(path, err)
	}
	defer f.Close()

	sum, err := CRC32Reader(f)
	if err != nil {
		return "", fmt.Errorf("failed to calculate checksum of %s: %w: %w", path, ErrNotReadable, err)
	}
	return sum, nil
}

// CRC32Reader reads r to EOF in ChunkSize chunks and returns the checksum
func CRC32Reader(r io.Reader) (string, error) {
	var crc uint32
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			crc = crc32.Update(crc, crc32.IEEETable, buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return FormatCRC32(crc), nil
}

// FormatCRC32 formats a raw checksum the way playlists store it
func FormatCRC32(crc uint32) string {
	return fmt.Sprintf("%08X", crc&0xFFFFFFFF)
}

// ValidCRC32 reports whether s is an 8 character upper-case hex checksum
func ValidCRC32(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// StripExt returns name without its last extension. Leading dots are part of
// the name, so ".iso" and "..iso" are returned unchanged.
func StripExt(name string) string {
	trimmed := strings.TrimLeft(name, ".")
	idx := strings.LastIndex(trimmed, ".")
	if idx < 0 {
		return name
	}
	return name[:len(name)-len(trimmed)+idx]
}

// OpenError classifies an os.Open failure as ErrPathNotFound or ErrNotReadable
func OpenError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to open %s: %w: %w", path, ErrPathNotFound, err)
	}
	return fmt.Errorf("failed to open %s: %w: %w", path, ErrNotReadable, err)
}
