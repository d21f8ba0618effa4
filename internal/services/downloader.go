package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

// DownloadRequest asks for one video to be written into OutputDir.
type DownloadRequest struct {
	Target    string // watch URL or bare video id
	OutputDir string
	AudioOnly bool
}

// Downloader fetches media and returns the path it reported for the written file.
type Downloader interface {
	Download(ctx context.Context, req DownloadRequest) (string, error)
}

// RunFunc executes a prepared yt-dlp command against target.
type RunFunc func(ctx context.Context, cmd *ytdlp.Command, target string) (*ytdlp.Result, error)

// YtdlpDownloader drives yt-dlp through go-ytdlp.
type YtdlpDownloader struct {
	Path         string // empty resolves yt-dlp from PATH or the go-ytdlp cache
	AudioQuality int
	Run          RunFunc
}

// NewYtdlpDownloader creates a downloader using the yt-dlp binary at path.
func NewYtdlpDownloader(path string, audioQuality int) *YtdlpDownloader {
	if audioQuality <= 0 {
		audioQuality = 192
	}
	return &YtdlpDownloader{Path: path, AudioQuality: audioQuality, Run: runCommand}
}

// Command builds the yt-dlp invocation for req.
func (d *YtdlpDownloader) Command(req DownloadRequest) *ytdlp.Command {
	cmd := ytdlp.New().
		NoWarnings().
		NoPlaylist().
		PrintJSON().
		Output(filepath.Join(req.OutputDir, "%(title)s.%(ext)s"))
	if d.Path != "" {
		cmd.SetExecutable(d.Path)
	}

	if req.AudioOnly {
		return cmd.
			Format("bestaudio/best").
			ExtractAudio().
			AudioFormat("mp3").
			AudioQuality(strconv.Itoa(d.AudioQuality) + "K")
	}
	return cmd.Format("bestvideo+bestaudio/best")
}

// Download runs yt-dlp and returns the filename from its extracted info. Process failures wrap
// [shared.ErrDownloadFailed].
func (d *YtdlpDownloader) Download(ctx context.Context, req DownloadRequest) (string, error) {
	if req.OutputDir != "" {
		if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	run := d.Run
	if run == nil {
		run = runCommand
	}

	result, err := run(ctx, d.Command(req), req.Target)
	if err != nil {
		if result != nil {
			if msg := strings.TrimSpace(result.Stderr); msg != "" {
				return "", fmt.Errorf("%w: %w: %s", shared.ErrDownloadFailed, err, msg)
			}
		}
		return "", fmt.Errorf("%w: %w", shared.ErrDownloadFailed, err)
	}
	return writtenFile(result), nil
}

func runCommand(ctx context.Context, cmd *ytdlp.Command, target string) (*ytdlp.Result, error) {
	return cmd.Run(ctx, target)
}

// writtenFile returns the last filename yt-dlp reported, or "" when there is none.
func writtenFile(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	info, err := result.GetExtractedInfo()
	if err != nil {
		return ""
	}
	for i := len(info) - 1; i >= 0; i-- {
		if info[i] != nil && info[i].Filename != nil {
			return *info[i].Filename
		}
	}
	return ""
}

// HashFile returns the hex md5 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VideoIDFromURL extracts the video id from a watch or short URL. A bare 11-character id is
// returned as is.
func VideoIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if IsVideoID(raw) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			return strings.Trim(rest, "/")
		}
	}
	return ""
}

// IsVideoID reports whether s has the shape of a bare video id: eleven letters or digits.
func IsVideoID(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// DownloadRecorder persists successful downloads.
type DownloadRecorder interface {
	RecordDownload(videoID, path, fileHash string) (*models.DownloadRecord, error)
}

// StashRequest names one video to stash. URL defaults to the watch page of VideoID; VideoID is
// derived from URL when empty.
type StashRequest struct {
	VideoID   string
	URL       string
	OutputDir string
	AudioOnly bool
}

// StashResult reports one stash attempt. Err carries the detail of a failed outcome.
type StashResult struct {
	Outcome  models.StashOutcome
	FilePath string
	FileHash string
	Record   *models.DownloadRecord
	Err      error
}

// MediaStasher downloads a video, confirms and hashes the written file, then records it.
type MediaStasher struct {
	downloader Downloader
	recorder   DownloadRecorder
	hash       func(path string) (string, error)
	logger     *log.Logger
}

// NewMediaStasher creates a new MediaStasher.
func NewMediaStasher(downloader Downloader, recorder DownloadRecorder, logger *log.Logger) *MediaStasher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MediaStasher{downloader: downloader, recorder: recorder, hash: HashFile, logger: logger}
}

// Stash performs one attempt. Download, file and hashing problems become failed outcomes; the
// returned error is reserved for storage failures.
//
// The download runs detached from ctx cancellation so an in-flight file is never cut short.
func (m *MediaStasher) Stash(ctx context.Context, req StashRequest) (StashResult, error) {
	if req.URL == "" {
		req.URL = models.WatchURL(req.VideoID)
	}
	if req.VideoID == "" {
		req.VideoID = VideoIDFromURL(req.URL)
	}
	logger := m.logger.With("video", req.VideoID)

	path, err := m.downloader.Download(context.WithoutCancel(ctx), DownloadRequest{
		Target:    req.URL,
		OutputDir: req.OutputDir,
		AudioOnly: req.AudioOnly,
	})
	if err != nil {
		outcome := models.OutcomeUnexpectedError
		if errors.Is(err, shared.ErrDownloadFailed) {
			outcome = models.OutcomeDownloadError
		}
		logger.Error("download failed", "outcome", outcome, "error", err)
		return StashResult{Outcome: outcome, Err: err}, nil
	}

	path, ok := locateFile(path, req.AudioOnly)
	if !ok {
		logger.Error("downloaded file not found", "path", path)
		return StashResult{Outcome: models.OutcomeFileNotFound, FilePath: path, Err: fmt.Errorf("file not found: %q", path)}, nil
	}

	sum, err := m.hash(path)
	if err != nil {
		logger.Error("failed to hash file", "path", path, "error", err)
		return StashResult{Outcome: models.OutcomeUnexpectedError, FilePath: path, Err: err}, nil
	}

	result := StashResult{Outcome: models.OutcomeDownloaded, FilePath: path, FileHash: sum}
	if req.VideoID == "" || m.recorder == nil {
		logger.Warn("stashed file without a video id, not recorded", "path", path)
		return result, nil
	}

	record, err := m.recorder.RecordDownload(req.VideoID, path, sum)
	if err != nil {
		return result, err
	}
	result.Record = record
	logger.Info("stashed", "path", path)
	return result, nil
}

// locateFile confirms the reported path exists. Audio extraction can rename the file after the
// path was printed, so the .mp3 sibling is checked too.
func locateFile(path string, audioOnly bool) (string, bool) {
	if path == "" {
		return path, false
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, true
	}
	if audioOnly {
		alt := strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"
		if info, err := os.Stat(alt); err == nil && !info.IsDir() {
			return alt, true
		}
	}
	return path, false
}
