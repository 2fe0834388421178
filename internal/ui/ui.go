package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/services"
	"github.com/desertthunder/tunesmith/internal/session"
	"github.com/desertthunder/tunesmith/internal/shared"
	"github.com/desertthunder/tunesmith/internal/tasks"
)

// focus is the input that receives key presses in [GenerateView].
type focus int

const (
	focusNone focus = iota
	focusPrompt
	focusName
)

// ModelOpts holds the dashboard's collaborators. Poller may be nil to disable the now-playing line.
type ModelOpts struct {
	Session   *session.Session
	Dashboard *tasks.Dashboard
	Poller    *tasks.NowPlayingPoller
	Generator *tasks.Generator
	Engine    *tasks.PlaylistEngine
	Workspace *tasks.Workspace
}

// synthesis connects a running save to the model.
type synthesis struct {
	progress chan tasks.ProgressUpdate
	done     chan saveComplete
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      View
	session   *session.Session
	dashboard *tasks.Dashboard
	poller    *tasks.NowPlayingPoller
	generator *tasks.Generator
	engine    *tasks.PlaylistEngine
	workspace *tasks.Workspace

	width    int
	height   int
	snapshot *tasks.Snapshot
	lists    map[View]*list.Model
	playing  *services.CurrentlyPlaying

	updates  chan tasks.NowPlaying
	pollDone chan error

	prompt  textinput.Model
	name    textinput.Model
	focus   focus
	spinner spinner.Model
	busy    bool
	save    *synthesis

	progress  tasks.ProgressUpdate
	status    string
	statusErr bool
	loading   bool
	signedOut bool
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	prompt := textinput.New()
	prompt.Placeholder = "90s workout hip-hop"
	prompt.CharLimit = 200
	prompt.Width = 50

	name := textinput.New()
	name.Placeholder = "Playlist name"
	name.CharLimit = 100
	name.Width = 50

	workspace := opts.Workspace
	if workspace == nil {
		workspace = &tasks.Workspace{}
	}

	return &Model{
		ctx:       ctx,
		view:      HomeView,
		session:   opts.Session,
		dashboard: opts.Dashboard,
		poller:    opts.Poller,
		generator: opts.Generator,
		engine:    opts.Engine,
		workspace: workspace,
		lists:     make(map[View]*list.Model),
		prompt:    prompt,
		name:      name,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading:   true,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init loads the dashboard and starts the now-playing poll.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadDashboard(), m.spinner.Tick}
	if m.poller != nil {
		cmds = append(cmds, m.startPolling())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range m.lists {
			l.SetSize(m.listSize())
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgDashboardLoaded:
		data := msg.data.(dashboardLoaded)
		m.loading = false
		if data.err != nil {
			m.fail(data.err)
			return m, nil
		}
		m.err = nil
		m.setSnapshot(data.snapshot)
		return m, nil

	case MsgNowPlaying:
		m.playing = msg.data.(tasks.NowPlaying).Track
		return m, m.waitForNowPlaying()

	case MsgPollStopped:
		if err, _ := msg.data.(error); err != nil && shared.IsAuthError(err) {
			m.signedOut = true
		}
		return m, nil

	case MsgGenerated:
		data := msg.data.(generated)
		m.busy = false
		if data.err != nil {
			m.setStatus(tasks.StatusLine(data.err), true)
			if shared.IsAuthError(data.err) {
				m.signedOut = true
			}
			return m, nil
		}
		m.workspace.Set(data.prompt, data.tracks)
		m.name.SetValue(data.prompt)
		m.setStatus(fmt.Sprintf("Generated %d songs. Name the playlist and press enter to save.", len(data.tracks)), false)
		return m, m.setFocus(focusName)

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		m.setStatus(m.progress.Message, false)
		return m, m.waitForProgress()

	case MsgSaveComplete:
		data := msg.data.(saveComplete)
		m.busy = false
		m.save = nil
		if data.err != nil {
			m.setStatus(tasks.StatusLine(data.err), true)
			if shared.IsAuthError(data.err) {
				m.signedOut = true
			}
			return m, nil
		}
		m.setStatus(tasks.SuccessMessage(data.playlist.Name), false)
		m.workspace.Clear()
		m.name.SetValue("")
		m.focus = focusNone
		m.name.Blur()
		return m, m.refreshPlaylists()

	case MsgPlaylistsRefreshed:
		data := msg.data.(playlistsRefreshed)
		if data.err == nil && m.snapshot != nil {
			m.snapshot.Playlists = data.playlists
			m.setList(PlaylistsView, "Playlists", playlistItems(data.playlists))
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.focus != focusNone {
		return m.handleInputKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.view = m.view.next()
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.view = m.view.prev()
		return m, nil
	case key.Matches(msg, m.keys.jump):
		m.view = Views[int(msg.String()[0]-'1')]
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		if m.signedOut {
			return m, nil
		}
		m.loading = true
		return m, m.loadDashboard()
	case m.view == GenerateView && key.Matches(msg, m.keys.enter):
		if !m.workspace.Empty() {
			return m, m.setFocus(focusName)
		}
		return m, m.setFocus(focusPrompt)
	}

	if l, ok := m.lists[m.view]; ok {
		updated, cmd := l.Update(msg)
		*l = updated
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.focus = focusNone
		m.prompt.Blur()
		m.name.Blur()
		return m, nil
	case key.Matches(msg, m.keys.next):
		if m.focus == focusName {
			return m, m.setFocus(focusPrompt)
		}
		if !m.workspace.Empty() {
			return m, m.setFocus(focusName)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.busy {
			return m, nil
		}
		if m.focus == focusPrompt {
			return m, m.startGenerate()
		}
		return m, m.startSave()
	}

	var cmd tea.Cmd
	if m.focus == focusPrompt {
		m.prompt, cmd = m.prompt.Update(msg)
	} else {
		m.name, cmd = m.name.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.view = GenerateView
	m.focus = f
	m.prompt.Blur()
	m.name.Blur()
	switch f {
	case focusPrompt:
		return m.prompt.Focus()
	case focusName:
		return m.name.Focus()
	}
	return nil
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// fail records err. An authentication failure signs the dashboard out.
func (m *Model) fail(err error) {
	m.err = err
	if shared.IsAuthError(err) {
		m.signedOut = true
	}
}

func (m *Model) setSnapshot(snap *tasks.Snapshot) {
	m.snapshot = snap
	m.playing = snap.NowPlaying
	m.setList(TracksView, "Top Tracks", trackItems(snap.TopTracks))
	m.setList(PlaylistsView, "Playlists", playlistItems(snap.Playlists))
	m.setList(ArtistsView, "Top Artists", artistItems(snap.TopArtists))
	m.setList(AlbumsView, "Saved Albums", albumItems(snap.SavedAlbums))
}

func (m *Model) setList(v View, title string, items []list.Item) {
	w, h := m.listSize()
	l := newList(title, items, w, h)
	m.lists[v] = &l
}

func (m *Model) listSize() (int, int) {
	return max(m.width-4, 20), max(m.height-8, 5)
}

func (m *Model) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		if m.dashboard == nil {
			return dashboardLoadedMsg(nil, fmt.Errorf("%w: dashboard not initialized", shared.ErrServiceUnavailable))
		}
		snap, err := m.dashboard.Load(m.ctx, nil)
		return dashboardLoadedMsg(snap, err)
	}
}

func (m *Model) refreshPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.dashboard.Playlists(m.ctx)
		return playlistsRefreshedMsg(playlists, err)
	}
}

func (m *Model) startPolling() tea.Cmd {
	m.updates = make(chan tasks.NowPlaying, 1)
	m.pollDone = make(chan error, 1)

	go func() {
		m.pollDone <- m.poller.Run(m.ctx, m.updates)
	}()

	return m.waitForNowPlaying()
}

func (m *Model) waitForNowPlaying() tea.Cmd {
	updates, done := m.updates, m.pollDone
	return func() tea.Msg {
		select {
		case np := <-updates:
			return nowPlayingMsg(np)
		case err := <-done:
			return pollStoppedMsg(err)
		}
	}
}

func (m *Model) startGenerate() tea.Cmd {
	prompt := strings.TrimSpace(m.prompt.Value())
	if prompt == "" {
		m.setStatus("Error: Prompt is required.", true)
		return nil
	}

	m.busy = true
	m.setStatus("Generating songs for \""+prompt+"\"...", false)
	generate := func() tea.Msg {
		tracks, err := m.generator.Generate(m.ctx, prompt)
		return generatedMsg(prompt, tracks, err)
	}
	return generate
}

func (m *Model) startSave() tea.Cmd {
	tracks := m.workspace.Tracks()
	if len(tracks) == 0 {
		m.setStatus("Error: Generate a tracklist first.", true)
		return nil
	}

	owner := ""
	if m.session != nil {
		owner = m.session.Owner()
	}
	draft := models.NewPlaylistDraft(m.name.Value(), owner)
	if draft.Name == "" {
		m.setStatus("Error: Playlist name is required.", true)
		return nil
	}

	m.busy = true
	m.save = &synthesis{
		progress: make(chan tasks.ProgressUpdate, 10),
		done:     make(chan saveComplete, 1),
	}

	save := m.save
	go func() {
		playlist, err := m.engine.Synthesize(m.ctx, save.progress, draft, tracks)
		save.done <- saveComplete{playlist: playlist, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	save := m.save
	return func() tea.Msg {
		if save == nil {
			return nil
		}
		select {
		case update := <-save.progress:
			return progressUpdateMsg(update)
		case result := <-save.done:
			return saveCompleteMsg(result.playlist, result.err)
		}
	}
}

// View renders the navigation bar, the current view and the status line.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderNav())
	b.WriteString("\n")
	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n\n")

	switch {
	case m.signedOut:
		b.WriteString(styles.err.Render("Your Spotify session has expired."))
		b.WriteString("\nRun `tunesmith auth login` and start the dashboard again.\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
		return b.String()
	case m.loading && m.snapshot == nil:
		b.WriteString(m.spinner.View() + " Loading your dashboard...")
		return b.String()
	case m.err != nil && m.snapshot == nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\nPress r to retry, q to quit")
		return b.String()
	}

	b.WriteString(m.render())
	if m.status != "" {
		b.WriteString("\n\n")
		line := m.status
		if m.busy {
			line = m.spinner.View() + " " + line
		}
		if m.statusErr {
			b.WriteString(styles.err.Render(line))
		} else {
			b.WriteString(styles.ok.Render(line))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// render draws the body of the current view.
func (m *Model) render() string {
	switch m.view {
	case HomeView:
		return m.renderHome()
	case TracksView, PlaylistsView, ArtistsView, AlbumsView:
		if l, ok := m.lists[m.view]; ok {
			return l.View()
		}
		return styles.help.Render("Nothing here yet.")
	case GenerateView:
		return m.renderGenerate()
	default:
		return ""
	}
}

func (m *Model) renderNav() string {
	tabs := make([]string, len(Views))
	for i, v := range Views {
		label := fmt.Sprintf("%d %s", i+1, v.Title())
		if v == m.view {
			tabs[i] = styles.active.Render(label)
		} else {
			tabs[i] = styles.tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderNowPlaying() string {
	if m.playing == nil || m.playing.Item == nil {
		return styles.help.Render("Nothing playing")
	}
	icon := "❚❚"
	if m.playing.IsPlaying {
		icon = "▶"
	}
	artists := m.playing.Item.ArtistNames()
	return styles.ok.Render(fmt.Sprintf("%s %s - %s", icon, m.playing.Item.Name, artists))
}

func (m *Model) renderHome() string {
	snap := m.snapshot
	var b strings.Builder

	name := "there"
	if snap.Profile != nil && snap.Profile.DisplayName != "" {
		name = snap.Profile.DisplayName
	}
	b.WriteString(styles.title.Render("Welcome back, " + name))
	b.WriteString("\n")

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString(styles.warn.Render(title))
		b.WriteString("\n")
		for i, line := range lines {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, line)
		}
		b.WriteString("\n")
	}

	top := make([]string, 0, 5)
	for _, t := range snap.TopTracks[:min(5, len(snap.TopTracks))] {
		top = append(top, fmt.Sprintf("%s - %s", t.Name, t.ArtistNames()))
	}
	section("Top tracks", top)

	recent := make([]string, 0, 5)
	for _, h := range snap.RecentlyPlayed[:min(5, len(snap.RecentlyPlayed))] {
		recent = append(recent, fmt.Sprintf("%s - %s", h.Track.Name, h.Track.ArtistNames()))
	}
	section("Recently played", recent)

	artists := make([]string, 0, 5)
	for _, a := range snap.TopArtists[:min(5, len(snap.TopArtists))] {
		artists = append(artists, a.Name)
	}
	section("Top artists", artists)

	fmt.Fprintf(&b, "%d playlists • %d saved albums • %d saved shows",
		len(snap.Playlists), len(snap.SavedAlbums), len(snap.SavedShows))
	return b.String()
}

func (m *Model) renderGenerate() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Generate a playlist"))
	b.WriteString("\n")
	b.WriteString("Describe a mood, a moment or a genre:\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n")

	tracks := m.workspace.Tracks()
	if len(tracks) == 0 {
		if m.focus == focusNone {
			b.WriteString("\n" + styles.help.Render("Press enter to start typing."))
		}
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(styles.warn.Render(fmt.Sprintf("Tracklist for \"%s\"", m.workspace.Prompt())))
	b.WriteString("\n")
	for i, t := range tracks {
		fmt.Fprintf(&b, "  %2d. %s\n", i+1, t)
	}
	b.WriteString("\nSave as:\n")
	b.WriteString(m.name.View())
	return b.String()
}
