package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/archive"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/config"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/logging"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/metrics"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/playlist"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/scanner"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/store"
)

var (
	genRomDir      string
	genOutputDir   string
	genOutputName  string
	genExtension   string
	genDBName      string
	genCRC32       bool
	genZip         bool
	genZipPath     string
	genZipMember   string
	genInteractive bool
	genMetricsFile string
	genDryRun      bool
)

// stdinIsTerminal decides whether missing settings may be prompted for
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptInput is where interactive answers are read from
var promptInput io.Reader = os.Stdin

var generateCmd = &cobra.Command{
	Use:   "generate [rom-dir]",
	Short: "Scan a ROM directory and write a playlist",
	Long: `Scan a ROM directory recursively and write <output-dir>/<name>.lpl.

Every file ending with --ext becomes a playlist item. With --crc32 each item
gets the file's CRC32, otherwise the launcher is left to DETECT it. With
--zip, zip archives are added too, using one member per archive.

--zip-path selects the path written for zip items:
  member     <zip>#<member>, RetroArch's in-archive addressing (default)
  archive    the zip file itself
  extracted  <dir>/<member>, the temporary extraction path. That file is
             removed after checksumming, so these entries point at nothing.

--zip-member selects the member: first (archive order), match (first
member ending with --ext) or largest.

Settings that are not given as flags are asked for interactively when
stdin is a terminal, or always with --interactive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	defaults := config.FromEnv()

	generateCmd.Flags().StringVarP(&genRomDir, "rom-dir", "r", "", "Root directory of your ROMs")
	generateCmd.Flags().StringVarP(&genOutputDir, "output-dir", "o", defaults.OutputDir, "Output directory for the playlist (or set RETROARCH_PLAYLIST_OUTPUT_DIR)")
	generateCmd.Flags().StringVarP(&genOutputName, "name", "n", "", "Playlist file name without extension")
	generateCmd.Flags().StringVarP(&genExtension, "ext", "e", "", "File extension to look for, e.g. .iso")
	generateCmd.Flags().StringVarP(&genDBName, "db-name", "b", defaults.DBName, "Database name stored in every item (or set RETROARCH_PLAYLIST_DB_NAME)")
	generateCmd.Flags().BoolVar(&genCRC32, "crc32", false, "Calculate CRC32 checksums")
	generateCmd.Flags().BoolVar(&genZip, "zip", false, "Handle zip archives")
	generateCmd.Flags().StringVar(&genZipPath, "zip-path", string(archive.PathMember), "Path written for zip items: member, archive or extracted")
	generateCmd.Flags().StringVar(&genZipMember, "zip-member", string(archive.SelectFirst), "Zip member selection: first, match or largest")
	generateCmd.Flags().BoolVarP(&genInteractive, "interactive", "i", false, "Prompt for settings not given as flags")
	generateCmd.Flags().StringVar(&genMetricsFile, "metrics-file", "", "Write scan metrics in Prometheus text format to this file")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Scan and print items without writing the playlist")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Fatal setup problems abort before anything is scanned
	if err := cfg.Validate(); err != nil {
		return err
	}

	var (
		cacheManager *store.Manager
		cacheOpt     scanner.Cache
	)
	if cfg.UseCRC32 {
		cacheManager, cacheOpt, err = openCache()
		if err != nil {
			return err
		}
	}

	metrics.InitializeMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(errOut, "\nInterrupted, stopping scan...")
			cancel()
		case <-ctx.Done():
		}
	}()

	s := scanner.New(scanner.Options{
		Root:        cfg.RomDir,
		Extension:   cfg.Extension,
		DBName:      cfg.DBName,
		UseCRC32:    cfg.UseCRC32,
		HandleZip:   cfg.HandleZip,
		ZipPathMode: cfg.ZipPathMode,
		ZipMember:   cfg.ZipMember,
		Workers:     cfg.Workers,
		Cache:       cacheOpt,
		Progress:    progressPrinter(out, errOut, cfg),
	})

	report, err := s.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if cacheManager != nil {
		if err := cacheManager.Save(); err != nil {
			logging.Warn("Failed to save checksum cache: %v", err)
		}
	}

	fmt.Fprintf(out, "\nScan complete:\n")
	fmt.Fprintf(out, "  Recorded: %d\n", report.Recorded)
	fmt.Fprintf(out, "  Ignored:  %d\n", report.Ignored)
	fmt.Fprintf(out, "  Failed:   %d\n", report.Failed)
	if cacheManager != nil {
		fmt.Fprintf(out, "  Cached:   %d\n", report.CacheHits)
	}

	if cfg.DryRun {
		fmt.Fprintln(out, "\nDry run - playlist not written")
		return writeMetrics(cfg.MetricsFile)
	}

	outputFile := cfg.OutputPath()
	if err := playlist.Write(outputFile, report.Playlist); err != nil {
		metrics.PlaylistWritesTotal.WithLabelValues("error").Inc()
		if mErr := writeMetrics(cfg.MetricsFile); mErr != nil {
			logging.Warn("Failed to write metrics: %v", mErr)
		}
		return err
	}
	metrics.PlaylistWritesTotal.WithLabelValues("success").Inc()
	metrics.PlaylistItems.Set(float64(report.Playlist.Len()))

	fmt.Fprintf(out, "\nPlaylist saved to %s\n", outputFile)

	return writeMetrics(cfg.MetricsFile)
}

// buildConfig merges flags, the positional argument and, when allowed,
// interactive answers into one config value
func buildConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	pathMode, err := archive.ParsePathMode(genZipPath)
	if err != nil {
		return config.Config{}, err
	}
	member, err := archive.ParseMemberSelect(genZipMember)
	if err != nil {
		return config.Config{}, err
	}

	cfg := config.Config{
		RomDir:      genRomDir,
		OutputDir:   genOutputDir,
		OutputName:  genOutputName,
		Extension:   genExtension,
		DBName:      genDBName,
		UseCRC32:    genCRC32,
		HandleZip:   genZip,
		ZipPathMode: pathMode,
		ZipMember:   member,
		Workers:     workerCount(),
		MetricsFile: genMetricsFile,
		DryRun:      genDryRun,
	}
	if len(args) > 0 {
		cfg.RomDir = args[0]
	}

	missing := cfg.Missing()
	if !genInteractive && len(missing) == 0 {
		return cfg, nil
	}

	if !genInteractive && !stdinIsTerminal() {
		return cfg, fmt.Errorf("missing required settings: --%s (run in a terminal or pass --interactive to be prompted)",
			strings.Join(missing, ", --"))
	}

	p := config.NewPrompter(promptInput, cmd.OutOrStdout())
	p.AskCRC32 = !cmd.Flags().Changed("crc32")
	p.AskZip = !cmd.Flags().Changed("zip")
	if err := p.Fill(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// progressPrinter prints one or two lines per recorded file and a
// diagnostic per failed file
func progressPrinter(out, errOut io.Writer, cfg config.Config) func(scanner.Result) {
	return func(r scanner.Result) {
		if r.Err != nil {
			fmt.Fprintf(errOut, "✗ %s: %s: %v\n", r.Path, scanner.KindOf(r.Err), r.Err)
			return
		}

		ext := cfg.Extension
		source := r.Path
		if r.Kind == scanner.KindArchive {
			ext = scanner.ZipExtension
			source = fmt.Sprintf("%s (member: %s)", r.Path, r.Member)
		}

		if !cfg.UseCRC32 {
			fmt.Fprintf(out, "Processed %s file: %s (CRC32: %s)\n", ext, source, playlist.Detect)
			return
		}

		fmt.Fprintf(out, "Processed %s file: %s\n", ext, source)
		if r.Cached {
			fmt.Fprintf(out, "CRC32 checksum: %s (cached)\n", r.Item.CRC32)
		} else {
			fmt.Fprintf(out, "CRC32 checksum: %s\n", r.Item.CRC32)
		}
	}
}

func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	return metrics.WriteTextfile(path)
}
