package scanner

import (
	"errors"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/archive"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/fileutil"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/playlist"
)

// KindOf names the error kind shown in per-file diagnostics
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, archive.ErrArchiveCorrupt):
		return "ArchiveCorrupt"
	case errors.Is(err, fileutil.ErrPathNotFound):
		return "PathNotFound"
	case errors.Is(err, fileutil.ErrNotReadable):
		return "NotReadable"
	case errors.Is(err, playlist.ErrWriteFailure):
		return "WriteFailure"
	default:
		return "Other"
	}
}
