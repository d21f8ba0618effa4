// package formatter renders stored playlists and reconciliation deltas as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat maps a flag value to a [Format]. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration converts an API duration such as PT1H2M3S. Unparseable input yields zero.
func ParseISODuration(s string) time.Duration {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+1])
		d += time.Duration(n) * unit
	}
	return d
}

// ExportToCSV converts a PlaylistExport to CSV format with columns: ID, Title, Channel, Published, Duration, Views, Downloaded
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Channel", "Published", "Duration", "Views", "Downloaded"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, v := range export.Videos {
		published := ""
		if !v.PublishedAt.IsZero() {
			published = v.PublishedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			v.ID,
			v.Title,
			v.ChannelTitle,
			published,
			shared.FormatDuration(ParseISODuration(v.Duration)),
			strconv.FormatInt(v.ViewCount, 10),
			strconv.FormatBool(v.Downloaded),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown format
func ExportToMarkdown(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	p := export.Playlist

	fmt.Fprintf(&buf, "# %s\n\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}
	if p.ChannelTitle != "" {
		fmt.Fprintf(&buf, "**Channel**: %s\n", p.ChannelTitle)
	}
	fmt.Fprintf(&buf, "**Videos**: %d\n", len(export.Videos))
	fmt.Fprintf(&buf, "**Stashed**: %d\n\n", stashedCount(export.Videos))

	buf.WriteString("## Videos\n\n")
	for i, v := range export.Videos {
		mark := ""
		if v.Downloaded {
			mark = " ✓"
		}
		fmt.Fprintf(&buf, "%d. [%s](%s) - %s [%s]%s\n",
			i+1, v.Title, v.WatchURL(), v.ChannelTitle, shared.FormatDuration(ParseISODuration(v.Duration)), mark)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Title)
	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", export.Playlist.Description)
	}
	fmt.Fprintf(&buf, "Videos: %d\n\n", len(export.Videos))

	for i, v := range export.Videos {
		fmt.Fprintf(&buf, "%d. %s - %s (%s)\n", i+1, v.ChannelTitle, v.Title, v.ID)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a PlaylistExport to indented JSON
func ExportToJSON(export *models.PlaylistExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ExportPlaylist renders export in the given format.
func ExportPlaylist(export *models.PlaylistExport, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return ExportToText(export)
	}
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without videos)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

func stashedCount(videos []models.Video) int {
	n := 0
	for _, v := range videos {
		if v.Downloaded {
			n++
		}
	}
	return n
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	VideosFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_videos.csv and {base}_metadata.json
func WriteCSVExport(export *models.PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	videosFile := baseFilepath + "_videos.csv"
	if err := os.WriteFile(videosFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{VideosFile: videosFile, MetadataFile: metadataFile}, nil
}

// WriteMarkdownExport exports a playlist to {dir}/README.md. The directory defaults to the
// playlist ID.
func WriteMarkdownExport(export *models.PlaylistExport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = export.Playlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return mdFile, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_videos.txt as the filename.
func WriteTextExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_videos.txt", export.Playlist.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
