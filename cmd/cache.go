package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/store"
)

var cacheForce bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or maintain the checksum cache",
	Long: `The checksum cache remembers CRC32 values keyed by path, size and
modification time so unchanged ROMs are not read again on the next run.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached checksums",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries whose files no longer exist",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the checksum cache",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheClearCmd.Flags().BoolVarP(&cacheForce, "force", "f", false, "Delete without confirmation")
	cacheCmd.AddCommand(cacheListCmd, cachePruneCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func loadCache() (*store.Manager, error) {
	m, err := store.NewManager(cacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize checksum cache: %w", err)
	}
	return m, nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	m, err := loadCache()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	entries := m.Entries()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No cached checksums in %s\n", m.Path())
		return nil
	}

	fmt.Fprintf(out, "Cached checksums in %s (%d total):\n\n", m.Path(), len(entries))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CRC32\tSIZE\tCHECKED\tPATH")
	fmt.Fprintln(w, "-----\t----\t-------\t----")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.CRC32,
			formatSize(e.Size),
			e.CheckedAt.Format("2006-01-02 15:04:05"),
			e.Path,
		)
	}
	w.Flush()

	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	m, err := loadCache()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	removed := m.Prune()
	if len(removed) == 0 {
		fmt.Fprintln(out, "No stale entries found")
		return nil
	}

	for _, e := range removed {
		fmt.Fprintf(out, "  ✓ Removed %s\n", e.Path)
	}

	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to save checksum cache: %w", err)
	}

	fmt.Fprintf(out, "\nPrune complete:\n")
	fmt.Fprintf(out, "  Removed:   %d\n", len(removed))
	fmt.Fprintf(out, "  Remaining: %d\n", len(m.Entries()))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	m, err := loadCache()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !cacheForce {
		fmt.Fprintf(out, "Delete %d cached checksums in %s? [y/N]: ", len(m.Entries()), m.Path())
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Clear cancelled")
			return nil
		}
	}

	if err := m.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %s\n", m.Path())
	return nil
}
