package models

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestGeneratedTrack(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name  string
			track GeneratedTrack
			want  error
		}{
			{name: "song and artist", track: GeneratedTrack{Song: "Jump Around", Artist: "House of Pain"}},
			{name: "empty artist allowed", track: GeneratedTrack{Song: "Jump Around"}},
			{name: "blank song", track: GeneratedTrack{Song: "   ", Artist: "House of Pain"}, want: ErrEmptySong},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if err := tt.track.Validate(); !errors.Is(err, tt.want) {
					t.Errorf("Validate() = %v, want %v", err, tt.want)
				}
			})
		}
	})

	t.Run("Query", func(t *testing.T) {
		tc := []struct {
			track GeneratedTrack
			want  string
		}{
			{GeneratedTrack{Song: " Shook Ones ", Artist: "Mobb Deep"}, "track:Shook Ones artist:Mobb Deep"},
			{GeneratedTrack{Song: "Shook Ones"}, "track:Shook Ones"},
		}

		for _, tt := range tc {
			if got := tt.track.Query(); got != tt.want {
				t.Errorf("Query() = %q, want %q", got, tt.want)
			}
		}
	})
}

func TestMatchedURIs(t *testing.T) {
	refs := []ResolvedTrackRef{
		{URI: "spotify:track:1"},
		{},
		{URI: "spotify:track:3"},
		{},
	}

	got := MatchedURIs(refs)
	want := []string{"spotify:track:1", "spotify:track:3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MatchedURIs() = %v, want %v", got, want)
	}

	if got := MatchedURIs(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestPlaylistDraft(t *testing.T) {
	tc := []struct {
		name  string
		draft PlaylistDraft
		want  error
	}{
		{name: "valid", draft: NewPlaylistDraft("  Workout Mix ", "user1")},
		{name: "blank name", draft: NewPlaylistDraft("   ", "user1"), want: ErrEmptyPlaylistName},
		{name: "missing owner", draft: NewPlaylistDraft("Workout Mix", ""), want: ErrMissingOwner},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.draft.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	if d := NewPlaylistDraft("  Workout Mix ", "u"); d.Name != "Workout Mix" {
		t.Errorf("expected trimmed name, got %q", d.Name)
	}
}

func TestCredential(t *testing.T) {
	now := time.Now()

	t.Run("unknown expiry never expires", func(t *testing.T) {
		c := NewCredential(SpotifyTokenKey, "tok", time.Time{})
		if c.ExpiresAt() != nil || c.Expired(now.Add(24*time.Hour)) {
			t.Error("expected credential without expiry to stay valid")
		}
	})

	t.Run("known expiry", func(t *testing.T) {
		c := NewCredential(SpotifyTokenKey, "tok", now.Add(time.Hour))
		if c.Expired(now) {
			t.Error("expected credential to be valid before expiry")
		}
		if !c.Expired(now.Add(2 * time.Hour)) {
			t.Error("expected credential to be expired after expiry")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := NewCredential("", "tok", time.Time{}).Validate(); err == nil {
			t.Error("expected error for empty key")
		}
		if err := NewCredential(SpotifyTokenKey, "", time.Time{}).Validate(); err == nil {
			t.Error("expected error for empty value")
		}
		if err := NewCredential(SpotifyTokenKey, "tok", time.Time{}).Validate(); err != nil {
			t.Errorf("unexpected error %v", err)
		}
	})
}
