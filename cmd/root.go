package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/logging"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/scanner"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/store"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/workers"
)

var (
	Version     = "dev"
	cacheFile   string
	noCache     bool
	parallelism int
	logLevel    string
)

// maxAutoWorkers caps the automatic worker count; more parallel readers
// than this rarely helps a single disk
const maxAutoWorkers = 8

var rootCmd = &cobra.Command{
	Use:     "retroarch-playlist",
	Short:   "RetroArch playlist generator",
	Version: Version,
	Long: `retroarch-playlist scans a directory of ROM files and writes a RetroArch
playlist (.lpl) for them. CRC32 checksums and single-image zip archives
are optional.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logging.SetLevel(level)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultCache := os.Getenv("RETROARCH_PLAYLIST_CACHE")

	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache-file", defaultCache, "Path to checksum cache (default: ~/.retroarch-playlist-cache.json, or set RETROARCH_PLAYLIST_CACHE)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not read or write the checksum cache")
	rootCmd.PersistentFlags().IntVarP(&parallelism, "parallelism", "p", 0, "Number of parallel checksum workers (0 = auto)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (or set LOG_LEVEL)")
}

func workerCount() int {
	return workers.Resolve(parallelism, maxAutoWorkers)
}

// openCache returns the checksum cache, or nil when caching is disabled.
// The interface value is nil, not a typed nil pointer, so callers can pass
// it straight to scanner.Options.
func openCache() (*store.Manager, scanner.Cache, error) {
	if noCache {
		return nil, nil, nil
	}
	m, err := store.NewManager(cacheFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize checksum cache: %w", err)
	}
	return m, m, nil
}
