// Package tui is the interactive headline reader: one headline at a time,
// one key per decision.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/odysseus0/feedline/internal/model"
	"github.com/odysseus0/feedline/internal/render"
)

// Handler receives reader decisions. *poll.Actions satisfies it.
type Handler interface {
	Dismiss(ctx context.Context, h model.Headline)
	Open(ctx context.Context, h model.Headline) error
	Skip(h model.Headline)
	Quit()
}

type Options struct {
	Unread      int
	ShowExcerpt bool
	ExcerptLen  int
	Keys        *KeyMap
	Renderer    *render.Renderer
}

// Summary counts what the user did during a run.
type Summary struct {
	Dismissed int
	Opened    int
	Skipped   int
	Quit      bool
}

type Model struct {
	ctx       context.Context
	headlines []model.Headline
	cursor    int
	handler   Handler
	keys      KeyMap
	help      help.Model
	renderer  *render.Renderer
	opts      Options

	width    int
	showHelp bool
	status   string
	done     bool
	summary  Summary
}

func New(ctx context.Context, headlines []model.Headline, handler Handler, opts Options) Model {
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	renderer := opts.Renderer
	if renderer == nil && opts.ShowExcerpt {
		renderer = render.NewRenderer()
	}
	return Model{
		ctx:       ctx,
		headlines: headlines,
		handler:   handler,
		keys:      keys,
		help:      help.New(),
		renderer:  renderer,
		opts:      opts,
		width:     80,
	}
}

func (m Model) Init() tea.Cmd {
	if len(m.headlines) == 0 {
		return tea.Quit
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, tea.Quit
	}
	current, ok := m.Current()
	if !ok {
		m.done = true
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.handler.Quit()
		m.summary.Quit = true
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if err := m.handler.Open(m.ctx, current); err != nil {
			m.status = fmt.Sprintf("open failed: %v", err)
			return m, nil
		}
		m.summary.Opened++
	case key.Matches(msg, m.keys.Skip):
		m.handler.Skip(current)
		m.summary.Skipped++
	default:
		m.handler.Dismiss(m.ctx, current)
		m.summary.Dismissed++
	}
	return m.advance()
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	m.status = ""
	m.cursor++
	if m.cursor >= len(m.headlines) {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// Current returns the headline awaiting a decision.
func (m Model) Current() (model.Headline, bool) {
	if m.cursor < 0 || m.cursor >= len(m.headlines) {
		return model.Headline{}, false
	}
	return m.headlines[m.cursor], true
}

func (m Model) Summary() Summary {
	return m.summary
}

func (m Model) Done() bool {
	return m.done
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	h, ok := m.Current()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Unread articles: %d", m.opts.Unread)))
	b.WriteString(positionStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.headlines))))
	b.WriteString("\n\n")

	line := render.HeadlineLine(h)
	if idx := strings.Index(line, " | "); idx >= 0 {
		line = feedStyle.Render(line[:idx+3]) + titleStyle.Render(line[idx+3:])
	}
	b.WriteString(line)
	b.WriteString("\n")

	if m.opts.ShowExcerpt && m.renderer != nil {
		if excerpt := m.renderer.Excerpt(h, m.excerptLen()); excerpt != "" {
			b.WriteString(excerptStyle.Render(excerpt))
			b.WriteString("\n")
		}
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) excerptLen() int {
	if m.opts.ExcerptLen > 0 {
		return m.opts.ExcerptLen
	}
	if m.width > 4 {
		return m.width - 4
	}
	return 0
}

// Run shows headlines until the user quits or every headline is decided.
func Run(ctx context.Context, headlines []model.Headline, handler Handler, opts Options, progOpts ...tea.ProgramOption) (Summary, error) {
	if len(headlines) == 0 {
		return Summary{}, nil
	}
	progOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)
	p := tea.NewProgram(New(ctx, headlines, handler, opts), progOpts...)
	final, err := p.Run()
	// A killed program still reports the decisions made before it stopped.
	if m, ok := final.(Model); ok {
		return m.Summary(), err
	}
	return Summary{}, err
}
