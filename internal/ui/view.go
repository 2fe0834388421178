package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/tunesmith/internal/shared"
)

// View is one dashboard section. The set is closed; [Model.render] switches over every value.
type View int

const (
	HomeView View = iota
	TracksView
	PlaylistsView
	ArtistsView
	AlbumsView
	GenerateView
)

// Views lists every view in navigation order.
var Views = []View{HomeView, TracksView, PlaylistsView, ArtistsView, AlbumsView, GenerateView}

func (v View) String() string {
	switch v {
	case HomeView:
		return "home"
	case TracksView:
		return "tracks"
	case PlaylistsView:
		return "playlists"
	case ArtistsView:
		return "artists"
	case AlbumsView:
		return "albums"
	case GenerateView:
		return "generate"
	default:
		return "unknown"
	}
}

// Title is the label shown in the navigation bar.
func (v View) Title() string {
	s := v.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseView accepts a view name as printed by [View.String].
func ParseView(s string) (View, error) {
	for _, v := range Views {
		if strings.EqualFold(strings.TrimSpace(s), v.String()) {
			return v, nil
		}
	}
	return HomeView, fmt.Errorf("%w: unknown view %q", shared.ErrInvalidArgument, s)
}

func (v View) next() View { return Views[(int(v)+1)%len(Views)] }
func (v View) prev() View { return Views[(int(v)+len(Views)-1)%len(Views)] }
