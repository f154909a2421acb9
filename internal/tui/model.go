// Package tui provides the phone-side Bubble Tea interface: the tab list,
// playback controls, and a preview of what the glasses show.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tabprompt/internal/bridge"
	"github.com/verte-zerg/tabprompt/internal/glasses"
	"github.com/verte-zerg/tabprompt/internal/model"
	"github.com/verte-zerg/tabprompt/internal/session"
)

const tempoStep = 5

// Device is the simulated glasses the UI previews and injects gestures into.
type Device interface {
	Emit(g model.Gesture) error
	State() bridge.DeviceState
	Changes() <-chan struct{}
	Done() <-chan struct{}
}

// Options sizes the glasses preview and the catalog view pushed on cursor
// moves.
type Options struct {
	WidthCols int
	Rows      int
	// Display receives the catalog view when the list changes from the
	// phone. Nil leaves the glasses untouched.
	Display glasses.Pusher
}

type storeChangedMsg struct{}

type deviceChangedMsg struct{}

type deviceDoneMsg struct{}

// Model implements the Bubble Tea phone UI.
type Model struct {
	store  *session.Store
	device Device
	opts   Options

	keys     keyMap
	help     help.Model
	progress progress.Model

	dirty chan struct{}
	sub   model.Disposer

	snap   session.Snapshot
	screen bridge.DeviceState
	status string

	width  int
	height int
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	itemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	beatOnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	beatOffStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
)

var frameStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#3FA34D")).
	Foreground(lipgloss.Color("#7CFC8A")).
	Padding(0, 1)

// NewModel constructs the phone UI over store and device. Call Close once
// the program exits.
func NewModel(store *session.Store, device Device, opts Options) *Model {
	if opts.WidthCols <= 0 {
		opts.WidthCols = glasses.DefaultWidthCols
	}
	if opts.Rows <= 0 {
		opts.Rows = glasses.DefaultRows
	}
	m := &Model{
		store:    store,
		device:   device,
		opts:     opts,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		dirty:    make(chan struct{}, 1),
	}
	m.sub = store.Subscribe(func(session.Change) {
		select {
		case m.dirty <- struct{}{}:
		default:
		}
	})
	m.snap = store.Snapshot()
	m.screen = device.State()
	return m
}

// Close stops listening to the session.
func (m *Model) Close() {
	m.sub.Release()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		waitFor(m.dirty, storeChangedMsg{}),
		waitFor(m.device.Changes(), deviceChangedMsg{}),
		waitFor(m.device.Done(), deviceDoneMsg{}),
	)
}

func waitFor(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return msg
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(10, min(msg.Width-4, m.opts.WidthCols))
		return m, nil
	case storeChangedMsg:
		m.snap = m.store.Snapshot()
		return m, waitFor(m.dirty, storeChangedMsg{})
	case deviceChangedMsg:
		m.screen = m.device.State()
		return m, waitFor(m.device.Changes(), deviceChangedMsg{})
	case deviceDoneMsg:
		m.screen = m.device.State()
		return m, tea.Quit
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.RingDown):
		m.emit(model.GestureScrollDown)
	case key.Matches(msg, m.keys.RingUp):
		m.emit(model.GestureScrollUp)
	case key.Matches(msg, m.keys.RingTap):
		m.emit(model.GestureTap)
	case key.Matches(msg, m.keys.RingDouble):
		m.emit(model.GestureDoubleTap)
	default:
		if m.store.Snapshot().HasSelection() {
			m.handlePlaybackKey(msg)
		} else {
			m.handleListKey(msg)
		}
	}
	m.snap = m.store.Snapshot()
	return nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.store.CatalogPrev()
		m.pushCatalog()
	case key.Matches(msg, m.keys.Down):
		m.store.CatalogNext()
		m.pushCatalog()
	case key.Matches(msg, m.keys.Select):
		m.store.CatalogSelect()
	}
}

func (m *Model) handlePlaybackKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.store.PrevWindow()
	case key.Matches(msg, m.keys.Down):
		m.store.NextWindow()
	case key.Matches(msg, m.keys.Play):
		m.store.TogglePlayback()
	case key.Matches(msg, m.keys.Faster):
		m.store.SetTempo(m.store.Snapshot().Tempo + tempoStep)
	case key.Matches(msg, m.keys.Slower):
		m.store.SetTempo(m.store.Snapshot().Tempo - tempoStep)
	case key.Matches(msg, m.keys.Back):
		m.store.DeselectDocument()
		m.pushCatalog()
	}
}

func (m *Model) emit(g model.Gesture) {
	if err := m.device.Emit(g); err != nil {
		m.status = fmt.Sprintf("ring: %v", err)
	}
}

func (m *Model) pushCatalog() {
	if m.opts.Display == nil {
		return
	}
	m.opts.Display.Push(glasses.CatalogView(m.store.Snapshot(), m.opts.WidthCols, m.opts.Rows))
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	if m.snap.HasSelection() {
		body = m.renderPlayback()
	} else {
		body = m.renderList()
	}
	sections := []string{body, m.renderPreview()}
	if m.status != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	sections = append(sections, m.help.View(m.keys))
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderList() string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Tabs (%d)", len(m.snap.Catalog)))}
	if len(m.snap.Catalog) == 0 {
		lines = append(lines, itemStyle.Render(glasses.EmptyCatalog))
		return strings.Join(lines, "\n")
	}
	for i, doc := range m.snap.Catalog {
		label := fmt.Sprintf("%s - %s", doc.Title, doc.Artist)
		if i == m.snap.CatalogCursor {
			lines = append(lines, selectedStyle.Render("> "+label))
			continue
		}
		lines = append(lines, itemStyle.Render("  "+label))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderPlayback() string {
	doc, _ := m.snap.CurrentDocument()
	header := titleStyle.Render(doc.Title) + footerStyle.Render(fmt.Sprintf("  %s · %s", doc.Artist, doc.Tuning))
	bar := m.progress.ViewAs(float64(m.snap.Progress()) / 100)
	return strings.Join([]string{header, bar, m.renderFooter()}, "\n")
}

func (m *Model) renderFooter() string {
	state := "paused"
	if m.snap.IsPlaying {
		state = "playing"
	}
	segments := []string{
		fmt.Sprintf("Window %d/%d", m.snap.WindowIndex+1, m.snap.TotalWindows()),
		fmt.Sprintf("%d%%", m.snap.Progress()),
		fmt.Sprintf("%d BPM", m.snap.Tempo),
		state,
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	return footer + "  " + pulse(m.snap.BeatCount, model.BeatsPerMeasure, m.snap.IsPlaying)
}

func (m *Model) renderPreview() string {
	content := m.screen.Content
	if m.screen.Shutdown {
		content = "(display closed)"
	}
	lines := fitLines(content, m.opts.WidthCols, m.opts.Rows)
	return frameStyle.Render(strings.Join(lines, "\n"))
}
