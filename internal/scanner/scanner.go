// Package scanner walks a ROM directory and turns every matching file into a
// playlist item.
//
// The walk itself is sequential; checksum work for the discovered files is
// spread over a worker pool and collected back by index, so the playlist
// always lists items in discovery order regardless of the worker count.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/archive"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/fileutil"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/logging"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/metrics"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/playlist"
)

// ZipExtension is the suffix routed through the archive extractor
const ZipExtension = ".zip"

// Kind classifies a visited file
type Kind int

const (
	// KindIgnored files are neither recorded nor reported
	KindIgnored Kind = iota
	// KindDirect files match the target extension
	KindDirect
	// KindArchive files are zip archives handled through the extractor
	KindArchive
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "file"
	case KindArchive:
		return "zip"
	default:
		return "ignored"
	}
}

// Cache stores checksums between runs. *store.Manager implements it.
type Cache interface {
	Lookup(key string, size int64, modTime time.Time) (string, bool)
	Put(key, path string, size int64, modTime time.Time, crc32 string)
}

// Options configures a scan
type Options struct {
	Root      string
	Extension string
	DBName    string
	UseCRC32  bool
	HandleZip bool

	ZipPathMode archive.PathMode
	ZipMember   archive.MemberSelect

	// Workers is the number of checksum workers; values below 1 mean 1
	Workers int
	// Cache is optional
	Cache Cache
	// Progress is called once per recorded or failed file. Calls are
	// serialized but arrive in completion order when Workers > 1.
	Progress func(Result)
}

// Result is the outcome for one recorded or failed file
type Result struct {
	// Path is the file found on disk
	Path string
	Kind Kind
	Item playlist.Item
	// Member is the selected archive member for KindArchive
	Member string
	Cached bool
	Err    error
}

// Report summarizes a finished scan
type Report struct {
	Playlist *playlist.Playlist
	// Results holds recorded and failed files in discovery order
	Results   []Result
	Recorded  int
	Ignored   int
	Failed    int
	CacheHits int
	Workers   int
	Duration  time.Duration
}

// Scanner walks a ROM directory
type Scanner struct {
	opts Options
	mu   sync.Mutex
}

// New creates a scanner
func New(opts Options) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ZipPathMode == "" {
		opts.ZipPathMode = archive.PathMember
	}
	if opts.ZipMember == "" {
		opts.ZipMember = archive.SelectFirst
	}
	return &Scanner{opts: opts}
}

// Classify decides how a file name is handled. The target extension wins
// over the zip suffix, so ".zip" can itself be the target.
func Classify(name, extension string, handleZip bool) Kind {
	switch {
	case extension != "" && strings.HasSuffix(name, extension):
		return KindDirect
	case handleZip && strings.HasSuffix(name, ZipExtension):
		return KindArchive
	default:
		return KindIgnored
	}
}

// job is a file queued for checksum work
type job struct {
	path string
	kind Kind
	info fs.FileInfo
	// err is set when the walk itself failed for this path
	err error
}

// Scan walks the root and builds the playlist. Per-file failures are
// reported through Progress and counted; only a failure to start the walk
// or context cancellation return an error.
func (s *Scanner) Scan(ctx context.Context) (*Report, error) {
	start := time.Now()

	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %q: %w", s.opts.Root, err)
	}

	logging.Debug("Scanning %s for *%s (crc32: %v, zip: %v, workers: %d)",
		root, s.opts.Extension, s.opts.UseCRC32, s.opts.HandleZip, s.opts.Workers)

	jobs, ignored, err := s.discover(ctx, root)
	if err != nil {
		return nil, err
	}

	results := s.process(ctx, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		Playlist: playlist.New(),
		Results:  results,
		Ignored:  ignored,
		Workers:  s.opts.Workers,
	}
	for i := range results {
		r := &results[i]
		if r.Err == nil {
			if err := report.Playlist.Add(r.Item); err != nil {
				r.Err = err
			}
		}
		if r.Err != nil {
			report.Failed++
			continue
		}
		report.Recorded++
		if r.Cached {
			report.CacheHits++
		}
	}
	report.Duration = time.Since(start)

	metrics.ScanFilesTotal.WithLabelValues("recorded").Add(float64(report.Recorded))
	metrics.ScanFilesTotal.WithLabelValues("ignored").Add(float64(report.Ignored))
	metrics.ScanFilesTotal.WithLabelValues("failed").Add(float64(report.Failed))
	metrics.ObserveScan(report.Duration, report.Workers)

	logging.Debug("Scan complete: %d recorded, %d ignored, %d failed in %v",
		report.Recorded, report.Ignored, report.Failed, report.Duration)

	return report, nil
}

// discover walks root and returns the files to process in walk order
func (s *Scanner) discover(ctx context.Context, root string) ([]job, int, error) {
	var jobs []job
	ignored := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root {
				return err
			}
			// unreadable subdirectory or vanished entry
			jobs = append(jobs, job{path: path, kind: KindDirect, err: fileutil.OpenError(path, err)})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		kind := Classify(d.Name(), s.opts.Extension, s.opts.HandleZip)
		if kind == KindIgnored {
			ignored++
			return nil
		}

		// Stat follows symlinks so size and mtime describe the ROM itself
		info, err := os.Stat(path)
		if err != nil {
			jobs = append(jobs, job{path: path, kind: kind, err: fileutil.OpenError(path, err)})
			return nil
		}
		jobs = append(jobs, job{path: path, kind: kind, info: info})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("failed to walk directory %q: %w", s.opts.Root, err)
	}

	return jobs, ignored, nil
}

// process runs jobs on the worker pool, preserving job order in the result
func (s *Scanner) process(ctx context.Context, jobs []job) []Result {
	results := make([]Result, len(jobs))
	queue := make(chan int, len(jobs))
	var wg sync.WaitGroup

	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				if ctx.Err() != nil {
					continue
				}
				result := s.processFile(jobs[idx])
				results[idx] = result
				s.report(result)
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

func (s *Scanner) report(result Result) {
	if result.Err != nil {
		kind := KindOf(result.Err)
		metrics.ScanErrorsTotal.WithLabelValues(kind).Inc()
		logging.Debug("Skipping %s: %s: %v", result.Path, kind, result.Err)
	}
	if s.opts.Progress == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Progress(result)
}

// processFile resolves the item for one discovered file
func (s *Scanner) processFile(j job) Result {
	result := Result{Path: j.path, Kind: j.kind}
	if j.err != nil {
		result.Err = j.err
		return result
	}

	switch j.kind {
	case KindArchive:
		return s.processArchive(j, result)
	default:
		sum, cached, err := s.fileChecksum(j)
		if err != nil {
			result.Err = err
			return result
		}
		result.Cached = cached
		result.Item = playlist.NewItem(j.path, fileutil.StripExt(filepath.Base(j.path)), sum, s.opts.DBName)
		return result
	}
}

func (s *Scanner) fileChecksum(j job) (string, bool, error) {
	if !s.opts.UseCRC32 {
		return playlist.Detect, false, nil
	}

	if sum, ok := s.lookup(j.path, j.info); ok {
		return sum, true, nil
	}

	started := time.Now()
	sum, err := fileutil.CalculateCRC32(j.path)
	if err != nil {
		return "", false, err
	}
	metrics.ChecksumDuration.WithLabelValues("file").Observe(time.Since(started).Seconds())
	metrics.ChecksumBytesTotal.WithLabelValues("file").Add(float64(j.info.Size()))

	s.store(j.path, j.path, j.info, sum)
	return sum, false, nil
}

func (s *Scanner) processArchive(j job, result Result) Result {
	opts := archive.Options{Select: s.opts.ZipMember, Extension: s.opts.Extension}
	key := s.archiveKey(j.path)

	var (
		res archive.Result
		err error
	)
	if !s.opts.UseCRC32 {
		res, err = archive.Inspect(j.path, opts)
		res.CRC32 = playlist.Detect
	} else if sum, ok := s.lookup(key, j.info); ok {
		res, err = archive.Inspect(j.path, opts)
		res.CRC32 = sum
		result.Cached = true
	} else {
		started := time.Now()
		res, err = archive.Extract(j.path, opts)
		if err == nil {
			metrics.ChecksumDuration.WithLabelValues("zip").Observe(time.Since(started).Seconds())
			metrics.ChecksumBytesTotal.WithLabelValues("zip").Add(float64(res.Size))
			s.store(key, j.path, j.info, res.CRC32)
		}
	}
	if err != nil {
		result.Err = err
		result.Cached = false
		return result
	}

	logging.Debug("Archive %s: using member %s", j.path, res.Member)
	result.Member = res.Member
	result.Item = playlist.NewItem(res.ItemPath(s.opts.ZipPathMode), res.Label(), res.CRC32, s.opts.DBName)
	return result
}

// archiveKey identifies an archive checksum in the cache. The member choice
// depends on the selection mode and, for match, on the extension.
func (s *Scanner) archiveKey(path string) string {
	key := path + "#" + string(s.opts.ZipMember)
	if s.opts.ZipMember == archive.SelectMatch {
		key += ":" + s.opts.Extension
	}
	return key
}

func (s *Scanner) lookup(key string, info fs.FileInfo) (string, bool) {
	if s.opts.Cache == nil {
		return "", false
	}
	sum, ok := s.opts.Cache.Lookup(key, info.Size(), info.ModTime())
	if ok {
		metrics.ChecksumCacheHits.Inc()
		logging.Debug("Checksum cache hit for %s", key)
	} else {
		metrics.ChecksumCacheMisses.Inc()
	}
	return sum, ok
}

func (s *Scanner) store(key, path string, info fs.FileInfo, sum string) {
	if s.opts.Cache == nil {
		return
	}
	s.opts.Cache.Put(key, path, info.Size(), info.ModTime(), sum)
}
