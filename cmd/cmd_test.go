package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/playlist"
)

// execute runs the root command with args and returns stdout and stderr.
// Flag values persist between runs of the same command tree, so they are
// reset first.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)
	stdinIsTerminal = func() bool { return false }
	promptInput = strings.NewReader(stdin)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func writeZip(t *testing.T, path, member, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create(member)
	if err != nil {
		t.Fatalf("Failed to add member: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finish zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
}

func romFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "game1.iso"), "123456789")
	writeFile(t, filepath.Join(dir, "game2.iso"), "a")
	writeZip(t, filepath.Join(dir, "pack.zip"), "disc.iso", "123456789")
	writeFile(t, filepath.Join(dir, "readme.txt"), "ignore me")
	return dir
}

func TestGenerateWithCRCAndZip(t *testing.T) {
	romDir := romFixture(t)
	outDir := t.TempDir()

	out, errOut, err := execute(t, "", "generate", romDir,
		"-o", outDir, "-n", "PS2", "-e", ".iso", "-b", "Sony - PlayStation 2.lpl",
		"--crc32", "--zip", "--no-cache", "-p", "1")
	if err != nil {
		t.Fatalf("generate failed: %v\nstderr: %s", err, errOut)
	}

	for _, want := range []string{
		"Processed .iso file: " + filepath.Join(romDir, "game1.iso"),
		"CRC32 checksum: CBF43926",
		"CRC32 checksum: E8B7BE43",
		"Processed .zip file: " + filepath.Join(romDir, "pack.zip") + " (member: disc.iso)",
		"Recorded: 3",
		"Ignored:  1",
		"Playlist saved to " + filepath.Join(outDir, "PS2.lpl"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	p, err := playlist.Read(filepath.Join(outDir, "PS2.lpl"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("Expected 3 items, got %d", p.Len())
	}

	expected := []struct {
		path, label, crc string
	}{
		{filepath.Join(romDir, "game1.iso"), "game1", "CBF43926"},
		{filepath.Join(romDir, "game2.iso"), "game2", "E8B7BE43"},
		{filepath.Join(romDir, "pack.zip") + "#disc.iso", "disc", "CBF43926"},
	}
	for i, e := range expected {
		item := p.Items[i]
		if item.Path != e.path || item.Label != e.label || item.CRC32 != e.crc {
			t.Errorf("Item %d: expected %s/%s/%s, got %s/%s/%s", i, e.path, e.label, e.crc, item.Path, item.Label, item.CRC32)
		}
		if item.DBName != "Sony - PlayStation 2.lpl" {
			t.Errorf("Item %d: unexpected db_name %s", i, item.DBName)
		}
	}
}

func TestGenerateWithoutCRC(t *testing.T) {
	romDir := romFixture(t)
	outDir := t.TempDir()

	out, _, err := execute(t, "", "generate", "--rom-dir", romDir,
		"-o", outDir, "-n", "plain", "-e", ".iso", "-b", "db", "--no-cache")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out, "(CRC32: DETECT)") {
		t.Errorf("Expected DETECT progress lines, got:\n%s", out)
	}

	p, err := playlist.Read(filepath.Join(outDir, "plain.lpl"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Expected zip to be ignored without --zip, got %d items", p.Len())
	}
	for _, item := range p.Items {
		if item.CRC32 != playlist.Detect {
			t.Errorf("Expected DETECT for %s, got %s", item.Path, item.CRC32)
		}
	}
}

func TestGenerateMissingSettings(t *testing.T) {
	_, _, err := execute(t, "", "generate", t.TempDir(), "--no-cache")
	if err == nil {
		t.Fatal("Expected error for missing settings")
	}
	for _, name := range []string{"--output-dir", "--name", "--ext"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Expected error to name %s, got %v", name, err)
		}
	}
}

func TestGenerateInteractive(t *testing.T) {
	romDir := romFixture(t)
	outDir := t.TempDir()

	answers := "Mine\n.iso\nMy DB\nyes\nno\n"
	out, _, err := execute(t, answers, "generate", romDir, "-o", outDir, "--interactive", "--no-cache")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out, "Enter the desired output file name (without extension): ") {
		t.Errorf("Expected name prompt, got:\n%s", out)
	}
	if strings.Contains(out, "Enter the root directory of your ROMs") {
		t.Error("Expected no prompt for a ROM directory given as argument")
	}

	p, err := playlist.Read(filepath.Join(outDir, "Mine.lpl"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Expected 2 items with zip handling declined, got %d", p.Len())
	}
	if p.Items[0].CRC32 != "CBF43926" || p.Items[0].DBName != "My DB" {
		t.Errorf("Expected answers to be applied, got %+v", p.Items[0])
	}
}

func TestGenerateDryRun(t *testing.T) {
	romDir := romFixture(t)
	outDir := t.TempDir()

	out, _, err := execute(t, "", "generate", romDir,
		"-o", outDir, "-n", "dry", "-e", ".iso", "-b", "db", "--dry-run", "--no-cache")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out, "Dry run") {
		t.Errorf("Expected dry run notice, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "dry.lpl")); !os.IsNotExist(err) {
		t.Errorf("Expected no playlist on dry run, stat err = %v", err)
	}
}

func TestGenerateMetricsFile(t *testing.T) {
	romDir := romFixture(t)
	outDir := t.TempDir()
	metricsPath := filepath.Join(outDir, "scan.prom")

	_, _, err := execute(t, "", "generate", romDir,
		"-o", outDir, "-n", "m", "-e", ".iso", "-b", "db", "--no-cache", "--metrics-file", metricsPath)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("Expected metrics file: %v", err)
	}
	if !strings.Contains(string(data), "retroarch_playlist_writes_total") {
		t.Errorf("Expected playlist write counter in metrics, got:\n%s", data)
	}
}

func TestGenerateUsesCache(t *testing.T) {
	romDir := romFixture(t)
	outDir := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	args := []string{"generate", romDir, "-o", outDir, "-n", "c", "-e", ".iso", "-b", "db",
		"--crc32", "--zip", "--cache-file", cachePath, "-p", "1"}

	if _, _, err := execute(t, "", args...); err != nil {
		t.Fatalf("first generate failed: %v", err)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("Expected cache file after first run: %v", err)
	}

	out, _, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if !strings.Contains(out, "Cached:   3") {
		t.Errorf("Expected all checksums from cache, got:\n%s", out)
	}
	if !strings.Contains(out, "CRC32 checksum: CBF43926 (cached)") {
		t.Errorf("Expected cached marker, got:\n%s", out)
	}

	out, _, err = execute(t, "", "cache", "list", "--cache-file", cachePath)
	if err != nil {
		t.Fatalf("cache list failed: %v", err)
	}
	if !strings.Contains(out, "(3 total)") || !strings.Contains(out, "E8B7BE43") {
		t.Errorf("Unexpected cache list output:\n%s", out)
	}

	if err := os.Remove(filepath.Join(romDir, "game2.iso")); err != nil {
		t.Fatalf("Failed to remove rom: %v", err)
	}
	out, _, err = execute(t, "", "cache", "prune", "--cache-file", cachePath)
	if err != nil {
		t.Fatalf("cache prune failed: %v", err)
	}
	if !strings.Contains(out, "Removed:   1") || !strings.Contains(out, "Remaining: 2") {
		t.Errorf("Unexpected prune output:\n%s", out)
	}

	out, _, err = execute(t, "n\n", "cache", "clear", "--cache-file", cachePath)
	if err != nil {
		t.Fatalf("cache clear failed: %v", err)
	}
	if !strings.Contains(out, "Clear cancelled") {
		t.Errorf("Expected clear to be cancelled, got:\n%s", out)
	}

	if _, _, err := execute(t, "", "cache", "clear", "--force", "--cache-file", cachePath); err != nil {
		t.Fatalf("cache clear failed: %v", err)
	}
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Errorf("Expected cache file to be removed, stat err = %v", err)
	}
}

func TestCRC32Command(t *testing.T) {
	romDir := romFixture(t)
	game := filepath.Join(romDir, "game1.iso")
	pack := filepath.Join(romDir, "pack.zip")
	missing := filepath.Join(romDir, "missing.iso")

	out, errOut, err := execute(t, "", "crc32", "--zip", game, pack, missing)
	if err == nil {
		t.Fatal("Expected error when a file fails")
	}
	if !strings.Contains(out, "CBF43926  "+game) {
		t.Errorf("Expected file checksum line, got:\n%s", out)
	}
	if !strings.Contains(out, "CBF43926  "+pack+"#disc.iso") {
		t.Errorf("Expected member checksum line, got:\n%s", out)
	}
	if !strings.Contains(errOut, "✗ "+missing+": PathNotFound") {
		t.Errorf("Expected failure line for missing file, got:\n%s", errOut)
	}
}

func TestCRC32MatchMember(t *testing.T) {
	dir := t.TempDir()
	pack := filepath.Join(dir, "multi.zip")
	f, err := os.Create(pack)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, m := range []struct{ name, data string }{
		{"readme.txt", "notes"},
		{"disc.iso", "123456789"},
	} {
		w, err := zw.Create(m.name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", m.name, err)
		}
		if _, err := w.Write([]byte(m.data)); err != nil {
			t.Fatalf("Failed to write %s: %v", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finish zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}

	out, _, err := execute(t, "", "crc32", "--zip", "--zip-member", "match", "--ext", ".iso", pack)
	if err != nil {
		t.Fatalf("crc32 failed: %v", err)
	}
	if !strings.Contains(out, "CBF43926  "+pack+"#disc.iso") {
		t.Errorf("Expected matched member line, got:\n%s", out)
	}

	if _, _, err := execute(t, "", "crc32", "--zip", "--zip-member", "match", pack); err == nil {
		t.Error("Expected error for match without --ext")
	}
}

func TestShowCommand(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.iso")
	writeFile(t, present, "123456789")

	p := playlist.New()
	for _, item := range []playlist.Item{
		playlist.NewItem(present, "present", "CBF43926", "db"),
		playlist.NewItem(filepath.Join(dir, "gone.iso"), "gone", playlist.Detect, "db"),
	} {
		if err := p.Add(item); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	lpl := filepath.Join(dir, "list.lpl")
	if err := playlist.Write(lpl, p); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out, _, err := execute(t, "", "show", lpl, "--long", "--verify")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"LABEL", "present", "9 B", "MISSING", "1 of 2 items point at missing files"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	out, _, err = execute(t, "", "show", lpl, "-P", "^pre")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "(1 total)") || strings.Contains(out, "gone") {
		t.Errorf("Expected pattern to filter items, got:\n%s", out)
	}
}

func TestDiskPath(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"/roms/game.iso", "/roms/game.iso"},
		{"/roms/pack.zip#disc.iso", "/roms/pack.zip"},
		{"/roms/Game #1.iso", "/roms/Game #1.iso"},
		{"/roms/PACK.ZIP#a.bin", "/roms/PACK.ZIP"},
	}
	for _, tt := range tests {
		if got := diskPath(tt.in); got != tt.expected {
			t.Errorf("diskPath(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
