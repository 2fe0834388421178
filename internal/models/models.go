// package models defines the data model for the playlist generator
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

var (
	ErrEmptySong         = errors.New("song name is required")
	ErrEmptyPlaylistName = errors.New("playlist name is required")
	ErrMissingOwner      = errors.New("playlist owner is required")
)

// MaxTracksPerAdd is the most track URIs the music service accepts in one add call.
const MaxTracksPerAdd = 100

// GeneratedTrack is one song suggested by the generator.
type GeneratedTrack struct {
	Song   string `json:"song"`
	Artist string `json:"artist"`
}

// Validate reports whether the track has a non-empty song name.
func (t GeneratedTrack) Validate() error {
	if strings.TrimSpace(t.Song) == "" {
		return ErrEmptySong
	}
	return nil
}

// Query composes the search query used to resolve the track, using field filters when the artist is known.
func (t GeneratedTrack) Query() string {
	song := strings.TrimSpace(t.Song)
	artist := strings.TrimSpace(t.Artist)
	if artist == "" {
		return "track:" + song
	}
	return fmt.Sprintf("track:%s artist:%s", song, artist)
}

func (t GeneratedTrack) String() string {
	if t.Artist == "" {
		return t.Song
	}
	return t.Song + " - " + t.Artist
}

// ResolvedTrackRef is the outcome of searching for a [GeneratedTrack]. URI is empty when nothing matched.
type ResolvedTrackRef struct {
	Source GeneratedTrack `json:"source"`
	URI    string         `json:"uri,omitempty"`
	Name   string         `json:"name,omitempty"` // matched track name as reported by the service
}

// Matched reports whether the search produced a track URI.
func (r ResolvedTrackRef) Matched() bool {
	return r.URI != ""
}

// MatchedURIs returns the URIs of matched refs in input order.
func MatchedURIs(refs []ResolvedTrackRef) []string {
	uris := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Matched() {
			uris = append(uris, r.URI)
		}
	}
	return uris
}

// PlaylistDraft is a playlist that has a name and owner but does not exist yet.
type PlaylistDraft struct {
	Name        string
	OwnerID     string
	Description string
	Public      bool
}

// NewPlaylistDraft trims name and returns a draft owned by ownerID.
func NewPlaylistDraft(name, ownerID string) PlaylistDraft {
	return PlaylistDraft{Name: strings.TrimSpace(name), OwnerID: ownerID}
}

// Validate requires a non-empty trimmed name and an owner.
func (d PlaylistDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyPlaylistName
	}
	if d.OwnerID == "" {
		return ErrMissingOwner
	}
	return nil
}

// Playlist is a playlist that exists on the music service.
type Playlist struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URI         string   `json:"uri,omitempty"`
	URL         string   `json:"url,omitempty"`
	TrackCount  int      `json:"track_count"`
	Public      bool     `json:"public"`
	CoverImages []string `json:"cover_images"`
}
