// Package logging provides a small leveled logger for retroarch-playlist.
//
// Levels, from most to least verbose:
//   - DEBUG: verbose per-file detail (cache hits, member selection)
//   - INFO: run configuration and summaries
//   - WARN: skipped files and recoverable problems
//   - ERROR: failures that abort a command
//
// The level comes from the LOG_LEVEL environment variable (DEBUG=1 forces
// debug) unless SetLevel is called, which the --log-level flag does.
// Messages are written through the standard log package to stderr so they
// never mix with progress lines printed to stdout.
package logging
