// Package tui is the terminal surface of the viewer: a bubbletea program that
// navigates one session over the loaded deck.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/koinecards/internal/deckservice"
	"github.com/starford/koinecards/internal/render"
	"github.com/starford/koinecards/internal/session"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeLines   = 6
)

// deckLoadedMsg carries the outcome of the startup load.
type deckLoadedMsg struct {
	err error
}

// Model is the bubbletea model of the viewer.
type Model struct {
	svc  *deckservice.Service
	ctx  context.Context
	keys keyMap

	state   *session.State
	err     error
	loading bool

	domains []render.DomainRow
	cards   []render.CardRow
	cursor  int

	detail   viewport.Model
	width    int
	height   int
	quitting bool
}

// New creates a model that loads svc when the program starts.
func New(ctx context.Context, svc *deckservice.Service) Model {
	return Model{
		svc:     svc,
		ctx:     ctx,
		keys:    defaultKeyMap(),
		loading: true,
		detail:  viewport.New(defaultWidth, defaultHeight-chromeLines),
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(ctx context.Context, svc *deckservice.Service) error {
	p := tea.NewProgram(New(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		return deckLoadedMsg{err: svc.Load(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case deckLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		s, err := m.svc.NewSession()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.state = s
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detail.Width = msg.Width
		m.detail.Height = max(msg.Height-chromeLines, 1)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.state == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.goBack()
		return m, nil
	case key.Matches(msg, m.keys.Open):
		m.open()
		return m, nil
	}

	if _, ok := m.state.View().(session.CardView); ok {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.rowCount()-1 {
			m.cursor++
		}
	}
	return m, nil
}

// open activates the row under the cursor.
func (m *Model) open() {
	switch v := m.state.View().(type) {
	case session.DomainView:
		if m.cursor < len(m.domains) {
			m.state.OpenDomain(m.domains[m.cursor].Name)
			m.cursor = 0
		}
	case session.ListView:
		if m.cursor < len(m.cards) {
			m.state.OpenCard(v.Domain, m.cards[m.cursor].Card)
		}
	}
	m.refresh()
}

// goBack unwinds the session and puts the cursor back on the row that was
// left.
func (m *Model) goBack() {
	prev := m.state.View()
	m.state.GoBack()
	m.refresh()

	m.cursor = 0
	switch v := prev.(type) {
	case session.CardView:
		for i, row := range m.cards {
			if row.Filename == v.Card.Filename {
				m.cursor = i
			}
		}
	case session.ListView:
		for i, row := range m.domains {
			if row.Name == v.Domain {
				m.cursor = i
			}
		}
	}
}

// refresh recomputes the rows of the active view.
func (m *Model) refresh() {
	deck := m.state.Deck()
	m.domains = render.Domains(deck)
	m.cards = nil
	if domain, ok := m.state.CurrentDomain(); ok {
		m.cards = render.Cards(deck, domain)
	}
	if c, ok := m.state.CurrentCard(); ok {
		d := render.CardDetail(c)
		var b strings.Builder
		if d.Meta != "" {
			b.WriteString(metaStyle.Render(d.Meta))
			b.WriteString("\n\n")
		}
		b.WriteString(d.Body)
		m.detail.SetContent(b.String())
		m.detail.GotoTop()
	}
}

func (m Model) rowCount() int {
	switch m.state.View().(type) {
	case session.DomainView:
		return len(m.domains)
	case session.ListView:
		return len(m.cards)
	default:
		return 0
	}
}

// State returns the session, or nil before the deck is loaded.
func (m Model) State() *session.State {
	return m.state
}

// Err returns the load error, if any.
func (m Model) Err() error {
	return m.err
}

// Cursor returns the highlighted row of a list panel.
func (m Model) Cursor() int {
	return m.cursor
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(render.AppTitle))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(hintStyle.Render("…"))
	case m.err != nil:
		b.WriteString(errTitleStyle.Render(render.ErrorTitle))
		b.WriteString("\n")
		b.WriteString(m.err.Error())
	default:
		b.WriteString(m.panel())
	}

	canBack := m.state != nil && m.state.CanGoBack()
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpLine(m.keys.help(canBack))))
	return b.String()
}

func (m Model) panel() string {
	var b strings.Builder
	switch v := m.state.View().(type) {
	case session.DomainView:
		for i, row := range m.domains {
			line := fmt.Sprintf("%s %s  %s", row.Name,
				badgeStyle.Render(fmt.Sprintf("(%d)", row.Count)),
				hintStyle.Render(render.DomainHint))
			b.WriteString(m.row(i, line))
		}
	case session.ListView:
		b.WriteString(headingStyle.Render(v.Domain))
		b.WriteString("\n")
		for i, row := range m.cards {
			line := fmt.Sprintf("%s %s", badgeStyle.Render(row.Badge), row.Title)
			if row.Meta != "" {
				line += "  " + metaStyle.Render(row.Meta)
			}
			b.WriteString(m.row(i, line))
		}
	case session.CardView:
		b.WriteString(headingStyle.Render(v.Card.Title))
		b.WriteString("\n")
		b.WriteString(m.detail.View())
	}
	return b.String()
}

func (m Model) row(i int, line string) string {
	if i == m.cursor {
		return cursorStyle.Render("> "+line) + "\n"
	}
	return "  " + line + "\n"
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
