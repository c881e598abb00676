// Package tui provides an interactive browser for candidate match reports.
package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/docmatch/internal/cli"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// headerHeight is the number of lines above the viewport.
const headerHeight = 2

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(cli.SubtleColor)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(cli.PrimaryColor).Underline(true)
)

// Model browses a ranked list of match reports, one at a time.
type Model struct {
	help     help.Model
	keys     KeyMap
	reports  []model.MatchReport
	viewport viewport.Model
	selected int
	width    int
	height   int
	ready    bool
}

// New creates a model for the reports, best candidate first.
func New(reports []model.MatchReport) Model {
	return Model{
		reports: reports,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

// Selected returns the index of the report on screen.
func (m Model) Selected() int {
	return m.selected
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil
		case key.Matches(msg, m.keys.Next):
			m.selectReport(m.selected + 1)
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.selectReport(m.selected - 1)
			return m, nil
		}
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) resize() {
	height := max(m.height-headerHeight-lipgloss.Height(m.help.View(m.keys)), 1)
	if !m.ready {
		m.viewport = viewport.New(m.width, height)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = height
	}
	m.viewport.SetContent(m.content())
}

func (m *Model) selectReport(i int) {
	if len(m.reports) == 0 {
		return
	}
	m.selected = min(max(i, 0), len(m.reports)-1)
	if m.ready {
		m.viewport.SetContent(m.content())
		m.viewport.GotoTop()
	}
}

func (m Model) content() string {
	if len(m.reports) == 0 {
		return cli.FormatInfo("No candidates")
	}
	return cli.RenderReport(m.reports[m.selected])
}

func (m Model) tabs() string {
	tabs := make([]string, len(m.reports))
	for i, r := range m.reports {
		label := fmt.Sprintf("%d %s", i+1, r.Documents[1].ID)
		if i == m.selected {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	return strings.Join(tabs, "")
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := cli.TitleStyle.UnsetMargins().Render(
		fmt.Sprintf("Candidates (%d)", len(m.reports)))
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.tabs(),
		m.viewport.View(),
		m.help.View(m.keys),
	)
}
