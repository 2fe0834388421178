package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/services"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/dlclark/regexp2"
)

// MaxGeneratedTracks is the number of songs requested from the model and the most [Generator.Generate] returns.
const MaxGeneratedTracks = 10

const promptTemplate = `You are an expert music curator. Based on the following prompt, create a playlist of 10 songs.
  Prompt: "%s"
  For each song, provide the track name, album, album art or artist picture and the artist's name.
  Respond with ONLY a valid JSON array of objects in the following format:
  [{"song": "Song Name 1", "artist": "Artist Name 1"}, ...]`

// arrayPattern spans the first '[' through the last ']' of the reply.
var arrayPattern = regexp2.MustCompile(`\[[\s\S]*\]`, regexp2.ECMAScript)

// BuildPrompt wraps the user's prompt in the curator instructions.
func BuildPrompt(prompt string) string {
	return fmt.Sprintf(promptTemplate, prompt)
}

// ExtractTracklist locates the JSON array in a free-form model reply and decodes its well-formed elements.
//
// Elements without a string "song" (or with a non-string "artist") are dropped. The result is truncated
// to [MaxGeneratedTracks]. [shared.ErrGenerationFormat] is returned when there is no array, it does not
// parse, or no element survives.
func ExtractTracklist(text string) ([]models.GeneratedTrack, error) {
	match, err := arrayPattern.FindStringMatch(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrGenerationFormat, err)
	}
	if match == nil {
		return nil, shared.ErrGenerationFormat
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(match.String()), &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrGenerationFormat, err)
	}

	tracks := make([]models.GeneratedTrack, 0, min(len(elements), MaxGeneratedTracks))
	for _, raw := range elements {
		track, ok := decodeTrack(raw)
		if !ok {
			continue
		}
		tracks = append(tracks, track)
		if len(tracks) == MaxGeneratedTracks {
			break
		}
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no well-formed songs in reply", shared.ErrGenerationFormat)
	}
	return tracks, nil
}

func decodeTrack(raw json.RawMessage) (models.GeneratedTrack, bool) {
	var fields struct {
		Song   any `json:"song"`
		Artist any `json:"artist"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.GeneratedTrack{}, false
	}

	song, ok := fields.Song.(string)
	if !ok {
		return models.GeneratedTrack{}, false
	}

	var artist string
	switch v := fields.Artist.(type) {
	case nil:
	case string:
		artist = v
	default:
		return models.GeneratedTrack{}, false
	}

	track := models.GeneratedTrack{Song: strings.TrimSpace(song), Artist: strings.TrimSpace(artist)}
	return track, track.Validate() == nil
}

// Generator turns a free-text prompt into a tracklist.
type Generator struct {
	text   services.TextGenerator
	logger *log.Logger
}

// NewGenerator creates a generator backed by text.
func NewGenerator(text services.TextGenerator, logger *log.Logger) *Generator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Generator{text: text, logger: shared.WithLogger(logger, "component", "generator")}
}

// Generate asks the model for songs matching prompt and returns at most [MaxGeneratedTracks] of them in model order.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]models.GeneratedTrack, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", shared.ErrInvalidInput)
	}
	if g.text == nil {
		return nil, fmt.Errorf("%w: text generator not initialized", shared.ErrServiceUnavailable)
	}

	reply, err := g.text.GenerateContent(ctx, BuildPrompt(prompt))
	if err != nil {
		g.logger.Error("generation request failed", "error", err)
		return nil, err
	}

	tracks, err := ExtractTracklist(reply)
	if err != nil {
		g.logger.Warn("could not extract tracklist", "error", err, "reply", reply)
		return nil, err
	}

	g.logger.Debug("generated tracklist", "prompt", prompt, "count", len(tracks))
	return tracks, nil
}

// GenerateWithProgress is [Generator.Generate] with a progress event sent before the request.
func (g *Generator) GenerateWithProgress(ctx context.Context, progress chan<- ProgressUpdate, prompt string) ([]models.GeneratedTrack, error) {
	sendProgress(progress, generateUpdate(strings.TrimSpace(prompt)))
	return g.Generate(ctx, prompt)
}
