package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
	th "github.com/desertthunder/tunesmith/internal/testing"
)

func sampleTracklist() *Tracklist {
	return &Tracklist{
		Prompt: "90s workout hip-hop",
		Tracks: []models.GeneratedTrack{
			{Song: "Jump Around", Artist: "House of Pain"},
			{Song: "Made Up, Song", Artist: "Nobody"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", JSON, false},
		{"JSON", JSON, false},
		{"csv", CSV, false},
		{"md", Markdown, false},
		{"markdown", Markdown, false},
		{"text", Text, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.err {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("expected %s, got %s (%v)", tt.want, got, err)
			}
		})
	}

	if Markdown.Extension() != "md" || CSV.Extension() != "csv" {
		t.Error("unexpected extensions")
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleTracklist())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded struct {
			Prompt string `json:"prompt"`
			Tracks []struct {
				Song   string `json:"song"`
				Artist string `json:"artist"`
			} `json:"tracks"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if decoded.Prompt != "90s workout hip-hop" || len(decoded.Tracks) != 2 || decoded.Tracks[0].Song != "Jump Around" {
			t.Errorf("unexpected JSON %s", data)
		}
		if strings.Contains(string(data), "resolved") {
			t.Error("unresolved list should omit resolved field")
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		list := sampleTracklist()
		list.Resolved = []models.ResolvedTrackRef{
			{Source: list.Tracks[0], URI: "spotify:track:1"},
			{Source: list.Tracks[1]},
		}

		data, err := ExportToCSV(list)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Position,Song,Artist,URI\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,Jump Around,House of Pain,spotify:track:1\n") {
			t.Errorf("CSV missing first record, got: %s", output)
		}
		if !strings.Contains(output, `2,"Made Up, Song",Nobody,`) {
			t.Errorf("CSV should quote fields with commas, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("generated only", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleTracklist())
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{"# 90s workout hip-hop", "**Tracks**: 2", "1. Jump Around - House of Pain"} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q:\n%s", want, output)
				}
			}
			if strings.Contains(output, "not found") {
				t.Error("unresolved list should not flag tracks")
			}
		})

		t.Run("saved playlist", func(t *testing.T) {
			list := sampleTracklist()
			list.Resolved = []models.ResolvedTrackRef{{URI: "spotify:track:1"}, {}}
			list.Playlist = &models.Playlist{
				Name:        "Workout Mix",
				URL:         "https://open.spotify.com/playlist/pl1",
				CoverImages: []string{"https://i.scdn.co/image/abc"},
			}

			data, err := ExportToMarkdown(list)
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Workout Mix",
				"![Cover](https://i.scdn.co/image/abc)",
				"[Workout Mix](https://open.spotify.com/playlist/pl1)",
				"2. Made Up, Song - Nobody _(not found)_",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q:\n%s", want, output)
				}
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleTracklist())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Prompt: 90s workout hip-hop\nTracks: 2\n\n1. Jump Around - House of Pain\n") {
			t.Errorf("unexpected text output:\n%s", output)
		}
	})

	t.Run("Export rejects unknown format", func(t *testing.T) {
		if _, err := Export(sampleTracklist(), Format("xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("WithDefaultPath", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		path, err := WriteExport(sampleTracklist(), Markdown, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if path != "tracklist.md" {
			t.Errorf("expected default path tracklist.md, got %s", path)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "# 90s workout hip-hop") {
			t.Errorf("unexpected content:\n%s", content)
		}
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "workout.csv")

		written, err := WriteExport(sampleTracklist(), CSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "out.txt")
		if _, err := WriteExport(sampleTracklist(), Text, path); err == nil {
			t.Error("expected write error")
		}
	})
}
