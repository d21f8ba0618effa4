package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// DeltaToText summarizes a delta. verbose lists every playlist and the unknown ones in full.
func DeltaToText(d models.DeltaPayload, verbose bool) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Total playlists: %d\n", len(d.All))
	fmt.Fprintf(&buf, "Known playlists: %d\n", len(d.Known))
	fmt.Fprintf(&buf, "Unknown playlists: %d\n", len(d.Unknown))

	if !verbose {
		return buf.Bytes()
	}

	buf.WriteString("\nAll playlists:\n")
	for _, p := range d.All {
		fmt.Fprintf(&buf, "  • %s (%s)\n", p.Title, p.ID)
	}
	buf.WriteString("\nUnknown playlists:\n")
	for _, p := range d.Unknown {
		fmt.Fprintf(&buf, "  • %s (%s)\n", p.Title, p.ID)
	}
	return buf.Bytes()
}

// DeltaToCSV writes one row per playlist with its partition: ID, Title, Status
func DeltaToCSV(d models.DeltaPayload) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Status"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	known := make(map[string]bool, len(d.Known))
	for _, p := range d.Known {
		known[p.ID] = true
	}
	for _, p := range d.All {
		status := "unknown"
		if known[p.ID] {
			status = "known"
		}
		if err := writer.Write([]string{p.ID, p.Title, status}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// DeltaToMarkdown renders the known and unknown partitions as Markdown lists.
func DeltaToMarkdown(d models.DeltaPayload) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Playlist Delta\n\n")
	fmt.Fprintf(&buf, "**Total**: %d | **Known**: %d | **Unknown**: %d\n\n", len(d.All), len(d.Known), len(d.Unknown))

	section := func(title string, refs []models.PlaylistRef) {
		fmt.Fprintf(&buf, "## %s\n\n", title)
		if len(refs) == 0 {
			buf.WriteString("_None_\n\n")
			return
		}
		for _, p := range refs {
			fmt.Fprintf(&buf, "- [%s](https://www.youtube.com/playlist?list=%s)\n", p.Title, p.ID)
		}
		buf.WriteString("\n")
	}
	section("Unknown", d.Unknown)
	section("Known", d.Known)
	return buf.Bytes()
}

// ExportDelta renders a delta in the given format.
func ExportDelta(d models.DeltaPayload, f Format, verbose bool) ([]byte, error) {
	switch f {
	case FormatCSV:
		return DeltaToCSV(d)
	case FormatMarkdown:
		return DeltaToMarkdown(d), nil
	case FormatJSON:
		return shared.MarshalJSON(d, true)
	default:
		return DeltaToText(d, verbose), nil
	}
}
