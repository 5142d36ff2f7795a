// Package playlist builds, writes and reads RetroArch playlists (.lpl).
//
// A playlist is a JSON document with fixed top-level metadata and an ordered
// list of items. Fields the consuming launcher resolves itself hold the
// sentinel value "DETECT". Items keep insertion order, which is the order the
// scanner discovered files in.
package playlist
