package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mferal/undertow/internal/artwork"
	"github.com/mferal/undertow/internal/catalog"
	"github.com/mferal/undertow/internal/clock"
	"github.com/mferal/undertow/internal/config"
	"github.com/mferal/undertow/internal/icons"
	"github.com/mferal/undertow/internal/lrclib"
	"github.com/mferal/undertow/internal/lyrics"
	"github.com/mferal/undertow/internal/media"
	"github.com/mferal/undertow/internal/mpris"
	"github.com/mferal/undertow/internal/playback"
	"github.com/mferal/undertow/internal/session"
	"github.com/mferal/undertow/internal/state"
	"github.com/mferal/undertow/internal/stderr"
	"github.com/mferal/undertow/internal/ui/lyricspanel"
	"github.com/mferal/undertow/internal/ui/playerbar"
	"github.com/mferal/undertow/internal/ui/queuepanel"
	"github.com/mferal/undertow/internal/ui/render"
	"github.com/mferal/undertow/internal/ui/styles"
)

const (
	tickInterval  = 250 * time.Millisecond
	seekStep      = 5 * time.Second
	playerBarSize = 3 // top border + content + bottom border
	queueWidth    = 42
)

// playbackClock is the control surface shared by all three clock backends.
// Control calls are fire-and-forget; failures are logged by the backend.
type playbackClock interface {
	clock.Source
	SetPlaying(playing bool)
	SeekTo(pos time.Duration)
}

type tickMsg time.Time

type trackReadyMsg struct {
	gen int
	err error

	// track carries catalog gaps filled from the file's embedded tags,
	// nil when the catalog entry was already complete.
	track *catalog.Track
}

type trackEndedMsg struct{}

type clockErrMsg struct{ err error }

type lyricsMsg struct {
	gen    int
	result lyrics.FetchResult
}

type accentMsg struct {
	gen int
	hex string
	img image.Image
}

type trackChangedMsg playback.TrackChange

type stateChangedMsg playback.StateChange

type playbackErrMsg playback.ErrorEvent

type stderrMsg string

type clearStatusMsg struct{ seq int }

type focusArea int

const (
	focusQueue focusArea = iota
	focusLyrics
)

type model struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	service  playback.Service
	sub      *playback.Subscription
	stateMgr *state.Manager
	media    *media.Store
	lyrics   *lyrics.Source
	mpris    *mpris.Adapter

	clk        playbackClock
	localClock *clock.Local
	sess       *session.Client

	queue      *queuepanel.Model
	lyricPanel *lyricspanel.Model
	playerBar  *playerbar.Model

	width  int
	height int
	focus  focusArea

	// loading is set while a clock reload for the current track is in
	// flight; ticks are ignored so the outgoing streamer's position
	// cannot overwrite the fresh state.
	loading bool

	// gen stamps track-scoped async messages so a late result from a
	// previous track is dropped instead of applied.
	gen int

	status    string
	statusSeq int
}

func initialModel() (*model, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.CatalogPath == "" {
		return nil, errors.New("no catalog configured (set catalog in config.toml)")
	}
	icons.Init(cfg.Icons)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	var store *media.Store
	if cfg.Media.Dir != "" || cfg.Media.Mirror != "" {
		store, err = media.New(cfg.Media.Dir, cfg.Media.Mirror)
		if err != nil {
			return nil, err
		}
	}

	stateMgr, err := state.Open()
	if err != nil {
		return nil, err
	}

	initial := playback.Default()
	if saved := stateMgr.GetPlayback(); saved != nil {
		initial = playback.Restore(*saved, cat.Len(), cfg.ResumePlayback)
	}

	service, err := playback.New(cat, stateMgr, initial)
	if err != nil {
		stateMgr.Close()
		return nil, err
	}

	m := &model{
		cfg:        cfg,
		catalog:    cat,
		service:    service,
		sub:        service.Subscribe(),
		stateMgr:   stateMgr,
		media:      store,
		lyrics:     lyrics.NewSource(store, lrclib.New()),
		queue:      queuepanel.New(cat),
		lyricPanel: lyricspanel.New(),
		playerBar:  playerbar.New(),
		loading:    true,
	}

	if err := m.acquireClock(); err != nil {
		service.Close()
		stateMgr.Close()
		return nil, err
	}

	// MPRIS export: desktop media keys drive the same service the UI does.
	if adapter, err := mpris.New(service, m.clk.SeekTo); err == nil {
		m.mpris = adapter
	}

	m.queue.SetCurrent(service.TrackIndex())
	m.queue.SetPlaying(service.Playing())
	if track := service.CurrentTrack(); track != nil {
		m.playerBar.SetTrack(track)
		m.lyricPanel.SetTrack(track)
	}
	return m, nil
}

// acquireClock builds the position source named by the config. There is
// exactly one clock for the life of the program; track switches reload it
// rather than replace it.
func (m *model) acquireClock() error {
	switch m.cfg.Clock.Backend {
	case config.BackendLocal, "":
		if m.media == nil {
			return errors.New("local clock needs media.dir or media.mirror configured")
		}
		m.localClock = clock.NewLocal()
		m.clk = m.localClock
	case config.BackendMPRIS:
		if m.cfg.Clock.Service == "" {
			return errors.New("mpris clock needs clock.service configured")
		}
		ext, err := clock.NewExtPlayer(m.cfg.Clock.Service)
		if err != nil {
			return err
		}
		m.clk = ext
	case config.BackendRemote:
		if !m.cfg.HasSessionConfig() {
			return errors.New("remote clock needs session.url and session.access_token configured")
		}
		m.sess = session.New(m.cfg.Session.URL, m.cfg.Session.AccessToken, m.cfg.Session.RefreshToken)
		m.clk = clock.NewRemote(m.sess)
	default:
		return fmt.Errorf("unknown clock backend %q", m.cfg.Clock.Backend)
	}
	return nil
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		m.startTrackCmd(m.gen),
		m.fetchLyricsCmd(m.gen),
		m.fetchAccentCmd(m.gen),
		m.waitEnded(),
		m.waitClockErr(),
		m.waitTrackChange(),
		m.waitStateChange(),
		m.waitPlaybackErr(),
		watchStderr(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// startTrackCmd prepares the clock backend for the current track. For the
// local backend that means decoding audio; for the remote session it means
// telling the server what to play. An external MPRIS player keeps its own
// queue, so there is nothing to do.
func (m *model) startTrackCmd(gen int) tea.Cmd {
	track := m.service.CurrentTrack()
	if track == nil {
		return nil
	}
	pos := m.service.Position()
	playing := m.service.Playing()

	switch {
	case m.localClock != nil:
		store, lc := m.media, m.localClock
		trackCopy := *track
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			path, rsc, err := store.Audio(ctx, trackCopy.ID)
			if err != nil {
				return trackReadyMsg{gen: gen, err: fmt.Errorf("audio for %s: %w", trackCopy.ID, err)}
			}
			if err := lc.Load(path, rsc); err != nil {
				return trackReadyMsg{gen: gen, err: fmt.Errorf("decode %s: %w", trackCopy.ID, err)}
			}
			if pos > 0 {
				lc.SeekTo(pos)
			}
			lc.SetPlaying(playing)

			msg := trackReadyMsg{gen: gen}
			if trackCopy.Name == "" || len(trackCopy.Artists) == 0 {
				if tags, err := media.ProbeTags(path); err == nil {
					filled := tags.Fill(trackCopy)
					msg.track = &filled
				}
			}
			return msg
		}
	case m.sess != nil:
		if !playing {
			return func() tea.Msg { return trackReadyMsg{gen: gen} }
		}
		sess := m.sess
		ids := make([]string, m.catalog.Len())
		for i, t := range m.catalog.Tracks() {
			ids[i] = t.ID
		}
		index := m.service.TrackIndex()
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := sess.Play(ctx, ids, index); err != nil {
				return trackReadyMsg{gen: gen, err: err}
			}
			if pos > 0 {
				if err := sess.Seek(ctx, pos); err != nil {
					return trackReadyMsg{gen: gen, err: err}
				}
			}
			return trackReadyMsg{gen: gen}
		}
	default:
		return func() tea.Msg { return trackReadyMsg{gen: gen} }
	}
}

func (m *model) fetchLyricsCmd(gen int) tea.Cmd {
	track := m.service.CurrentTrack()
	if track == nil {
		return nil
	}
	return m.fetchLyricsFor(gen, track)
}

func (m *model) fetchLyricsFor(gen int, track *catalog.Track) tea.Cmd {
	src := m.lyrics
	info := lyrics.TrackInfo{
		ID:       track.ID,
		Name:     track.Name,
		Artist:   track.PrimaryArtist(),
		Duration: track.Duration(),
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return lyricsMsg{gen: gen, result: src.Fetch(ctx, info)}
	}
}

func (m *model) fetchAccentCmd(gen int) tea.Cmd {
	track := m.service.CurrentTrack()
	if track == nil {
		return nil
	}
	store := m.media
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		img, err := artwork.Load(ctx, store, track)
		if err != nil {
			return accentMsg{gen: gen, hex: artwork.DefaultAccent}
		}
		return accentMsg{gen: gen, hex: artwork.Accent(img), img: img}
	}
}

// waitEnded blocks on the clock's end-of-track channel. Exactly one waiter
// exists at a time; the handler re-arms it on every delivery.
func (m *model) waitEnded() tea.Cmd {
	ch := m.clk.Ended()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return trackEndedMsg{}
	}
}

func (m *model) waitClockErr() tea.Cmd {
	ch := m.clk.Errs()
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return clockErrMsg{err: err}
	}
}

func (m *model) waitTrackChange() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.TrackChanged:
			return trackChangedMsg(e)
		case <-sub.Done:
			return nil
		}
	}
}

func (m *model) waitStateChange() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return stateChangedMsg(e)
		case <-sub.Done:
			return nil
		}
	}
}

func (m *model) waitPlaybackErr() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.Error:
			return playbackErrMsg(e)
		case <-sub.Done:
			return nil
		}
	}
}

func watchStderr() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-stderr.Messages
		if !ok {
			return nil
		}
		return stderrMsg(line)
	}
}

func (m *model) setStatus(s string) tea.Cmd {
	m.status = s
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(6*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if !m.loading && m.clk.Ready() {
			m.service.Advance(m.clk.Position())
		}
		pos := m.service.Position()
		m.playerBar.SetPosition(pos)
		m.lyricPanel.SetPosition(pos)
		return m, tickCmd()

	case trackChangedMsg:
		return m, m.switchTrack(playback.TrackChange(msg))

	case stateChangedMsg:
		m.playerBar.SetPlaying(msg.Current.Playing)
		m.queue.SetPlaying(msg.Current.Playing)
		// MPRIS toggles arrive here without having touched the clock.
		if msg.Current.Playing != msg.Previous.Playing {
			m.clk.SetPlaying(msg.Current.Playing)
		}
		return m, m.waitStateChange()

	case trackReadyMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.playerBar.SetLoading(false)
		// The user may have toggled while the track was loading.
		m.clk.SetPlaying(m.service.Playing())
		if msg.err != nil {
			return m, m.setStatus(msg.err.Error())
		}
		if msg.track != nil {
			m.playerBar.SetTrack(msg.track)
			m.lyricPanel.SetTrack(msg.track)
			// The first lyrics lookup ran with the sparse catalog entry;
			// retry with the tag-derived title and artist.
			return m, m.fetchLyricsFor(m.gen, msg.track)
		}
		return m, nil

	case trackEndedMsg:
		if err := m.service.HandleEnded(); err != nil {
			return m, tea.Batch(m.waitEnded(), m.setStatus(err.Error()))
		}
		return m, m.waitEnded()

	case clockErrMsg:
		cmds := []tea.Cmd{m.waitClockErr()}
		if errors.Is(msg.err, session.ErrAuthExpired) {
			// Terminal for the remote backend: surface it and stop
			// pretending the session is alive.
			cmds = append(cmds, m.setStatus("session expired, update session.access_token and restart"))
		} else if msg.err != nil {
			cmds = append(cmds, m.setStatus(msg.err.Error()))
		}
		return m, tea.Batch(cmds...)

	case lyricsMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.lyricPanel.SetDocument(msg.result.Document, msg.result.Err)
		return m, nil

	case accentMsg:
		if msg.gen == m.gen {
			styles.SetAccent(msg.hex)
			m.queue.SetCover(msg.img)
		}
		return m, nil

	case playbackErrMsg:
		return m, tea.Batch(
			m.waitPlaybackErr(),
			m.setStatus(fmt.Sprintf("%s: %v", msg.Operation, msg.Err)),
		)

	case stderrMsg:
		return m, tea.Batch(watchStderr(), m.setStatus(string(msg)))

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}

	return m, nil
}

// switchTrack reacts to a track change from any origin: keys, MPRIS,
// auto-advance. The gen bump invalidates every async result still in
// flight for the previous track.
func (m *model) switchTrack(e playback.TrackChange) tea.Cmd {
	m.gen++
	m.loading = true
	m.queue.SetCurrent(e.Index)
	m.queue.SetPlaying(m.service.Playing())
	m.playerBar.SetTrack(e.Track)
	m.playerBar.SetPlaying(m.service.Playing())
	m.lyricPanel.SetTrack(e.Track)

	return tea.Batch(
		m.startTrackCmd(m.gen),
		m.fetchLyricsCmd(m.gen),
		m.fetchAccentCmd(m.gen),
		m.waitTrackChange(),
	)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "q", "ctrl+c":
		m.shutdown()
		return m, tea.Quit

	case " ":
		m.service.Toggle()
		m.clk.SetPlaying(m.service.Playing())
		return m, nil

	case "n":
		if err := m.service.Next(); err != nil {
			return m, m.setStatus(err.Error())
		}
		return m, nil

	case "p":
		if err := m.service.Previous(); err != nil {
			return m, m.setStatus(err.Error())
		}
		return m, nil

	case "enter":
		if m.focus == focusQueue {
			if err := m.service.Select(m.queue.Cursor()); err != nil {
				return m, m.setStatus(err.Error())
			}
		}
		return m, nil

	case "tab":
		if m.focus == focusQueue {
			m.focus = focusLyrics
		} else {
			m.focus = focusQueue
		}
		return m, nil

	case "left", "right":
		return m, m.seekBy(key)
	}

	switch m.focus {
	case focusQueue:
		switch key {
		case "j", "down":
			m.queue.CursorDown()
		case "k", "up":
			m.queue.CursorUp()
		}
	case focusLyrics:
		m.lyricPanel.HandleKey(key)
	}
	return m, nil
}

func (m *model) seekBy(key string) tea.Cmd {
	track := m.service.CurrentTrack()
	if track == nil {
		return nil
	}
	pos := m.service.Position()
	if key == "left" {
		pos -= seekStep
	} else {
		pos += seekStep
	}
	if pos < 0 {
		pos = 0
	}
	if dur := track.Duration(); dur > 0 && pos > dur {
		pos = dur
	}
	m.clk.SeekTo(pos)
	m.service.Advance(pos)
	return nil
}

func (m *model) shutdown() {
	if m.mpris != nil {
		m.mpris.Close()
	}
	m.clk.Close()
	m.service.Close()
	m.stateMgr.Close()
}

func (m *model) layout() {
	// One row under the bar stays reserved for transient status text, so
	// a message appearing does not reflow the panels.
	panelHeight := m.height - playerBarSize - 1
	if panelHeight < 0 {
		panelHeight = 0
	}

	qw := queueWidth
	if qw > m.width/2 {
		qw = m.width / 2
	}
	lw := m.width - qw

	// Panel borders eat two columns and two rows each.
	m.queue.SetSize(qw-2, panelHeight-2)
	m.lyricPanel.SetSize(lw-2, panelHeight-2)
	m.playerBar.SetSize(m.width-2, 1)
}

func (m *model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	m.queue.SetFocused(m.focus == focusQueue)
	m.lyricPanel.SetFocused(m.focus == focusLyrics)

	queueView := styles.PanelStyle(m.focus == focusQueue).
		Width(m.queue.Width()).
		Height(m.queue.Height()).
		Render(m.queue.View())
	lyricsView := styles.PanelStyle(m.focus == focusLyrics).
		Width(m.lyricPanel.Width()).
		Height(m.lyricPanel.Height()).
		Render(m.lyricPanel.View())

	top := lipgloss.JoinHorizontal(lipgloss.Top, queueView, lyricsView)

	bar := styles.PanelStyle(false).
		Width(m.playerBar.Width()).
		Render(m.playerBar.View())

	statusLine := ""
	if m.status != "" {
		statusLine = styles.T().S().Warning.Render(render.Truncate(m.status, m.width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, bar, statusLine)
}

func main() {
	if err := stderr.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "stderr capture unavailable: %v\n", err)
	}
	defer stderr.Stop()

	if os.Getenv("UNDERTOW_DEBUG") != "" {
		f, err := tea.LogToFile("undertow.log", "debug")
		if err == nil {
			defer f.Close()
		}
	}

	m, err := initialModel()
	if err != nil {
		stderr.WriteOriginal(fmt.Sprintf("undertow: %v\n", err))
		stderr.Stop()
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		stderr.WriteOriginal(fmt.Sprintf("undertow: %v\n", err))
		stderr.Stop()
		os.Exit(1)
	}
}
