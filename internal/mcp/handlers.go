package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/archive"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/config"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/fileutil"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/logging"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/metrics"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/playlist"
	"github.com/SeaWalks/Retroarch-Playlist-Script/internal/scanner"
)

// handleGenerate handles the generate_playlist tool
func (s *Server) handleGenerate(ctx context.Context, req *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, GenerateOutput, error) {
	output := GenerateOutput{}

	pathMode, err := archive.ParsePathMode(input.ZipPathMode)
	if err != nil {
		return nil, output, err
	}
	member, err := archive.ParseMemberSelect(input.ZipMember)
	if err != nil {
		return nil, output, err
	}

	cfg := config.Config{
		RomDir:      input.RomDir,
		OutputDir:   input.OutputDir,
		OutputName:  input.OutputName,
		Extension:   input.Extension,
		DBName:      input.DBName,
		UseCRC32:    input.UseCRC32,
		HandleZip:   input.HandleZip,
		ZipPathMode: pathMode,
		ZipMember:   member,
		Workers:     s.config.Workers,
		DryRun:      input.DryRun,
	}
	if err := cfg.Validate(); err != nil {
		return nil, output, err
	}

	report, err := scanner.New(scanner.Options{
		Root:        cfg.RomDir,
		Extension:   cfg.Extension,
		DBName:      cfg.DBName,
		UseCRC32:    cfg.UseCRC32,
		HandleZip:   cfg.HandleZip,
		ZipPathMode: cfg.ZipPathMode,
		ZipMember:   cfg.ZipMember,
		Workers:     cfg.Workers,
		Cache:       s.config.Cache,
	}).Scan(ctx)
	if err != nil {
		return nil, output, fmt.Errorf("scan failed: %w", err)
	}
	if saver, ok := s.config.Cache.(interface{ Save() error }); ok {
		if err := saver.Save(); err != nil {
			logging.Warn("Failed to save checksum cache: %v", err)
		}
	}

	output.Recorded = report.Recorded
	output.Ignored = report.Ignored
	output.Failed = report.Failed
	for _, r := range report.Results {
		if r.Err != nil {
			output.Failures = append(output.Failures, FailureInfo{
				Path:  r.Path,
				Kind:  scanner.KindOf(r.Err),
				Error: r.Err.Error(),
			})
		}
	}

	if !cfg.DryRun {
		output.OutputPath = cfg.OutputPath()
		if err := playlist.Write(output.OutputPath, report.Playlist); err != nil {
			metrics.PlaylistWritesTotal.WithLabelValues("error").Inc()
			return nil, output, err
		}
		metrics.PlaylistWritesTotal.WithLabelValues("success").Inc()
		metrics.PlaylistItems.Set(float64(report.Playlist.Len()))
		output.Written = true
	}

	var message strings.Builder
	fmt.Fprintf(&message, "Recorded %d items (%d ignored, %d failed)", output.Recorded, output.Ignored, output.Failed)
	if output.Written {
		fmt.Fprintf(&message, "\nPlaylist saved to %s", output.OutputPath)
	}
	for _, f := range output.Failures {
		fmt.Fprintf(&message, "\n✗ %s: %s: %s", f.Path, f.Kind, f.Error)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message.String()},
		},
	}, output, nil
}

// handleChecksum handles the checksum tool
func (s *Server) handleChecksum(ctx context.Context, req *mcp.CallToolRequest, input ChecksumInput) (*mcp.CallToolResult, ChecksumOutput, error) {
	output := ChecksumOutput{Path: input.Path}

	if input.Path == "" {
		return nil, output, fmt.Errorf("path is required")
	}

	if strings.HasSuffix(input.Path, scanner.ZipExtension) {
		member, err := archive.ParseMemberSelect(input.ZipMember)
		if err != nil {
			return nil, output, err
		}
		res, err := archive.Extract(input.Path, archive.Options{Select: member, Extension: input.Extension})
		if err != nil {
			return nil, output, err
		}
		output.CRC32 = res.CRC32
		output.Member = res.Member
	} else {
		sum, err := fileutil.CalculateCRC32(input.Path)
		if err != nil {
			return nil, output, err
		}
		output.CRC32 = sum
	}

	text := fmt.Sprintf("%s  %s", output.CRC32, output.Path)
	if output.Member != "" {
		text += "#" + output.Member
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, output, nil
}

// handleReadPlaylist handles the read_playlist tool
func (s *Server) handleReadPlaylist(ctx context.Context, req *mcp.CallToolRequest, input ReadPlaylistInput) (*mcp.CallToolResult, ReadPlaylistOutput, error) {
	output := ReadPlaylistOutput{}

	if input.Path == "" {
		return nil, output, fmt.Errorf("path is required")
	}

	pl, err := playlist.Read(input.Path)
	if err != nil {
		return nil, output, err
	}

	output.Version = pl.Version
	output.Items = make([]ItemInfo, 0, pl.Len())
	for _, item := range pl.Items {
		output.Items = append(output.Items, ItemInfo{
			Path:   item.Path,
			Label:  item.Label,
			CRC32:  item.CRC32,
			DBName: item.DBName,
		})
	}
	output.Total = len(output.Items)

	var text strings.Builder
	fmt.Fprintf(&text, "Playlist %s (%d items):\n", input.Path, output.Total)
	for _, item := range output.Items {
		fmt.Fprintf(&text, "  %s [%s] %s\n", item.Label, item.CRC32, item.Path)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text.String()},
		},
	}, output, nil
}
