package cmd

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/playlist"
)

var (
	showPattern string
	showLong    bool
	showVerify  bool
)

var showCmd = &cobra.Command{
	Use:   "show <playlist.lpl>",
	Short: "List the items of a playlist",
	Long: `List the items of an existing RetroArch playlist.
Optionally filter by a regex pattern matched against label and path.

Use --verify to check that every item still points at an existing file.
For in-archive paths (<zip>#<member>) the archive itself is checked.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showPattern, "pattern", "P", "", "Regex pattern to filter items")
	showCmd.Flags().BoolVarP(&showLong, "long", "l", false, "Show detailed information")
	showCmd.Flags().BoolVar(&showVerify, "verify", false, "Check that item paths exist")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	p, err := playlist.Read(args[0])
	if err != nil {
		return fmt.Errorf("failed to read playlist: %w", err)
	}

	items := p.Items
	if showPattern != "" {
		re, err := regexp.Compile(showPattern)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}

		var filtered []playlist.Item
		for _, item := range items {
			if re.MatchString(item.Label) || re.MatchString(item.Path) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	if len(items) == 0 {
		if showPattern != "" {
			fmt.Fprintf(out, "No items matching pattern '%s' in %s\n", showPattern, args[0])
		} else {
			fmt.Fprintf(out, "No items in %s\n", args[0])
		}
		return nil
	}

	fmt.Fprintf(out, "Items in %s (%d total):\n\n", args[0], len(items))

	missing := 0
	if showLong {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LABEL\tCRC32\tSIZE\tDB NAME\tPATH")
		fmt.Fprintln(w, "-----\t-----\t----\t-------\t----")
		for _, item := range items {
			size := "-"
			if info, err := os.Stat(diskPath(item.Path)); err == nil {
				size = formatSize(info.Size())
			} else if showVerify {
				size = "MISSING"
				missing++
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				item.Label,
				item.CRC32,
				size,
				item.DBName,
				item.Path,
			)
		}
		w.Flush()
	} else {
		for _, item := range items {
			marker := ""
			if showVerify {
				if _, err := os.Stat(diskPath(item.Path)); err != nil {
					marker = " (missing)"
					missing++
				}
			}
			fmt.Fprintf(out, "  %s%s\n", item.Label, marker)
		}
	}

	if showVerify {
		fmt.Fprintf(out, "\n%d of %d items point at missing files\n", missing, len(items))
	}

	return nil
}

// diskPath strips the in-archive member from a RetroArch path
func diskPath(itemPath string) string {
	if i := strings.LastIndex(itemPath, "#"); i > 0 && strings.HasSuffix(strings.ToLower(itemPath[:i]), ".zip") {
		return itemPath[:i]
	}
	return itemPath
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
