// package formatter renders generated tracklists to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// Format is an output format for a [Tracklist].
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (expected json, csv, markdown or txt)", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension used when writing f.
func (f Format) Extension() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// Tracklist is a generated tracklist, optionally with its search results and the playlist it was saved to.
type Tracklist struct {
	Prompt   string                    `json:"prompt"`
	Tracks   []models.GeneratedTrack   `json:"tracks"`
	Resolved []models.ResolvedTrackRef `json:"resolved,omitempty"`
	Playlist *models.Playlist          `json:"playlist,omitempty"`
}

// uri returns the matched URI for track i, or "" when the list was never resolved.
func (l *Tracklist) uri(i int) string {
	if i < len(l.Resolved) {
		return l.Resolved[i].URI
	}
	return ""
}

// ExportToJSON renders the tracklist as indented JSON.
func ExportToJSON(list *Tracklist) ([]byte, error) {
	if list.Tracks == nil {
		list.Tracks = []models.GeneratedTrack{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts a Tracklist to CSV format with columns: Position, Song, Artist, URI
func ExportToCSV(list *Tracklist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Song", "Artist", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range list.Tracks {
		record := []string{fmt.Sprint(i + 1), track.Song, track.Artist, list.uri(i)}
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

// ExportToMarkdown converts a Tracklist to Markdown, linking the saved playlist when there is one
func ExportToMarkdown(list *Tracklist) ([]byte, error) {
	var buf bytes.Buffer

	title := list.Prompt
	if list.Playlist != nil && list.Playlist.Name != "" {
		title = list.Playlist.Name
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)

	if list.Prompt != "" {
		fmt.Fprintf(&buf, "**Prompt**: %s\n\n", list.Prompt)
	}
	if list.Playlist != nil {
		if len(list.Playlist.CoverImages) > 0 {
			fmt.Fprintf(&buf, "![Cover](%s)\n\n", list.Playlist.CoverImages[0])
		}
		if list.Playlist.URL != "" {
			fmt.Fprintf(&buf, "**Playlist**: [%s](%s)\n", list.Playlist.Name, list.Playlist.URL)
		}
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(list.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range list.Tracks {
		line := track.String()
		if len(list.Resolved) > 0 && list.uri(i) == "" {
			line += " _(not found)_"
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Tracklist to plain text format
func ExportToText(list *Tracklist) ([]byte, error) {
	var buf bytes.Buffer

	if list.Prompt != "" {
		fmt.Fprintf(&buf, "Prompt: %s\n", list.Prompt)
	}
	if list.Playlist != nil {
		fmt.Fprintf(&buf, "Playlist: %s\n", list.Playlist.Name)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(list.Tracks))

	for i, track := range list.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, track)
	}

	return buf.Bytes(), nil
}

// Export renders list in format f.
func Export(list *Tracklist, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return ExportToJSON(list)
	case CSV:
		return ExportToCSV(list)
	case Markdown:
		return ExportToMarkdown(list)
	case Text:
		return ExportToText(list)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteExport renders list in format f and writes it to path.
//
// Defaults to tracklist.{ext} when path is empty.
func WriteExport(list *Tracklist, f Format, path string) (string, error) {
	if path == "" {
		path = "tracklist." + f.Extension()
	}

	data, err := Export(list, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
