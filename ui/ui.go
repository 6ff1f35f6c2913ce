package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/leonezhu/readalong/internal/audio"
	"github.com/leonezhu/readalong/internal/directory"
	"github.com/leonezhu/readalong/transcript"
	tsync "github.com/leonezhu/readalong/transcript/sync"
	"github.com/muesli/reflow/wordwrap"
)

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, ctrl *transcript.Controller, player audio.Element, watcher directory.Watcher) *tea.Program {
	log.Debug(
		"Starting readalong",
		"mouse", cfg.EnableMouse,
		"poll", cfg.PollInterval,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, ctrl, player, watcher)
	return tea.NewProgram(m, opts...)
}

// Run starts the TUI and the playback sync loop and blocks until the user
// quits.
func Run(cfg Config, ctrl *transcript.Controller, player audio.Element, watcher directory.Watcher) error {
	p := NewProgram(cfg, ctrl, player, watcher)

	manager := tsync.NewManager(cfg.PollInterval)
	send := func(s transcript.Snapshot) {
		p.Send(transcript.PositionMsg{Snapshot: s})
	}
	manager.OnHighlightChange(send)
	manager.OnTick(send)
	manager.Start(player, ctrl)
	defer manager.Stop()

	_, err := p.Run()
	return err
}

// articlesChangedMsg is sent when the watched article directory changes.
type articlesChangedMsg struct{}

type state int

const (
	stateShowList state = iota
	stateShowTranscript
	stateShowSubmit
)

func (s state) String() string {
	return map[state]string{
		stateShowList:       "showing article list",
		stateShowTranscript: "showing transcript",
		stateShowSubmit:     "showing submit form",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	ctrl   *transcript.Controller
	player audio.Element
	width  int
	height int
}

type model struct {
	common *commonModel
	state  state

	list   listModel
	pager  transcriptModel
	submit submitModel

	watcher     directory.Watcher
	changes     <-chan struct{}
	cancelWatch context.CancelFunc
}

func newModel(cfg Config, ctrl *transcript.Controller, player audio.Element, watcher directory.Watcher) tea.Model {
	common := &commonModel{
		cfg:    cfg,
		ctrl:   ctrl,
		player: player,
	}
	return model{
		common:  common,
		state:   stateShowList,
		list:    newListModel(common),
		pager:   newTranscriptModel(common),
		submit:  newSubmitModel(common),
		watcher: watcher,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.list.spinner.Tick,
		m.pager.spinner.Tick,
		m.submit.spinner.Tick,
		transcript.LoadArticlesCmd(m.common.ctrl, m.common.cfg.RequestTimeout),
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

	// Spinners keep ticking regardless of which view is active.
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.list.spinner, cmd = m.list.spinner.Update(msg)
		cmds = append(cmds, cmd)
		m.pager.spinner, cmd = m.pager.spinner.Update(msg)
		cmds = append(cmds, cmd)
		m.submit.spinner, cmd = m.submit.spinner.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.list.setSize(msg.Width, msg.Height)
		m.pager.setSize(msg.Width, msg.Height)
		m.submit.setSize(msg.Width, msg.Height)

	case transcript.ArticlesLoadedMsg:
		if m.changes == nil && m.watcher != nil {
			ctx, cancel := context.WithCancel(context.Background())
			changes, err := m.watcher.Watch(ctx)
			if err != nil {
				cancel()
				log.Warn("not watching articles", "error", err)
			} else {
				m.changes = changes
				m.cancelWatch = cancel
				cmds = append(cmds, waitForChange(changes))
			}
		}

	case articlesChangedMsg:
		log.Debug("article directory changed, reloading")
		cmds = append(cmds,
			transcript.LoadArticlesCmd(m.common.ctrl, m.common.cfg.RequestTimeout),
			waitForChange(m.changes),
			m.list.showStatusMessage("Articles updated."),
		)

	case transcript.ArticleSelectedMsg:
		switch {
		case errors.Is(msg.Err, transcript.ErrSuperseded):
		case msg.Err != nil && m.common.ctrl.Snapshot().State != transcript.StateReady:
			// Selection failed; the error is in the snapshot.
			if m.state == stateShowTranscript {
				m.state = stateShowList
			}
		}

	case transcript.TextSubmittedMsg:
		if msg.Err == nil && m.state == stateShowSubmit {
			m.state = stateShowList
			m.submit.reset()
			m.list.selectFirst()
			cmds = append(cmds, m.list.showStatusMessage(fmt.Sprintf("Created %q.", msg.Article.Summary().DisplayTitle())))
		}
	}

	m.sync()

	var cmd tea.Cmd
	switch m.state {
	case stateShowList:
		m, cmd = m.updateList(msg)
	case stateShowTranscript:
		m, cmd = m.updateTranscript(msg)
	case stateShowSubmit:
		m, cmd = m.updateSubmit(msg)
	}
	cmds = append(cmds, cmd)

	m.sync()
	return m, tea.Batch(cmds...)
}

// sync pulls the latest controller snapshot into the sub-models.
func (m *model) sync() {
	snap := m.common.ctrl.Snapshot()
	m.list.setSnapshot(snap)
	m.pager.setSnapshot(snap)
	m.submit.setSnapshot(snap)
}

func (m model) updateList(msg tea.Msg) (model, tea.Cmd) {
	var cmd tea.Cmd
	var action listAction
	m.list, action, cmd = m.list.update(msg)

	switch action.kind {
	case actionQuit:
		return m.quit()
	case actionOpen:
		m.state = stateShowTranscript
		m.pager.reset()
		log.Debug("opening article", "id", action.id)
		return m, tea.Batch(cmd,
			transcript.SelectArticleCmd(m.common.ctrl, action.id, m.common.cfg.RequestTimeout),
		)
	case actionNew:
		m.state = stateShowSubmit
		return m, tea.Batch(cmd, m.submit.focus())
	case actionReload:
		return m, tea.Batch(cmd, transcript.LoadArticlesCmd(m.common.ctrl, m.common.cfg.RequestTimeout))
	}
	return m, cmd
}

func (m model) updateTranscript(msg tea.Msg) (model, tea.Cmd) {
	var cmd tea.Cmd
	var back, quit bool
	m.pager, back, quit, cmd = m.pager.update(msg)
	switch {
	case quit:
		return m.quit()
	case back:
		m.common.ctrl.ReturnToList()
		m.state = stateShowList
	}
	return m, cmd
}

func (m model) updateSubmit(msg tea.Msg) (model, tea.Cmd) {
	var cmd tea.Cmd
	var cancel bool
	m.submit, cancel, cmd = m.submit.update(msg)
	if cancel {
		m.state = stateShowList
	}
	return m, cmd
}

func (m model) quit() (model, tea.Cmd) {
	if m.cancelWatch != nil {
		m.cancelWatch()
	}
	if m.common.player != nil {
		_ = m.common.player.Pause()
	}
	return m, tea.Quit
}

func (m model) View() string {
	switch m.state {
	case stateShowTranscript:
		return m.pager.View()
	case stateShowSubmit:
		return m.submit.View()
	default:
		return m.list.View()
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return articlesChangedMsg{}
	}
}

func errorView(msg string) string {
	s := fmt.Sprintf("%s\n\n%s\n\n%s",
		errorTitleStyle.Render("ERROR"),
		wordwrap.String(msg, 60),
		subtleStyle.Render("press esc to return"),
	)
	return "\n" + indent(s, 3)
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
