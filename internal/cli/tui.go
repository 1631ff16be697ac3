package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/panel"
	"github.com/matzehuels/orchard/pkg/record"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PanelModel - Interactive content panel
// =============================================================================

// panelRow is one visible line: a section header, or an entry of an open
// section.
type panelRow struct {
	section string
	entry   *panel.Entry
}

// PanelModel is the bubbletea model for browsing the content panel.
type PanelModel struct {
	Record       record.Record
	Layout       layout.Model
	Open         map[string]bool
	OnlyWithData bool
	Cursor       int
	Height       int
	Offset       int

	view panel.View
	rows []panelRow
}

// NewPanelModel creates a panel browser for rec and m.
func NewPanelModel(rec record.Record, m layout.Model, onlyWithData bool) PanelModel {
	pm := PanelModel{
		Record:       rec,
		Layout:       m,
		Open:         panel.DefaultOpen(),
		OnlyWithData: onlyWithData,
		Height:       20,
	}
	return pm.rebuild()
}

// rebuild recomputes the view after the open state or filter changed.
func (m PanelModel) rebuild() PanelModel {
	m.view = panel.Build(m.Record, m.Layout, panel.Options{OnlyWithData: m.OnlyWithData, Open: m.Open})
	m.rows = nil
	for _, sec := range m.view.Sections {
		m.rows = append(m.rows, panelRow{section: sec.Key})
		if !sec.Open {
			continue
		}
		for i := range sec.Entries {
			m.rows = append(m.rows, panelRow{section: sec.Key, entry: &sec.Entries[i]})
		}
	}
	if m.Cursor >= len(m.rows) {
		m.Cursor = max(0, len(m.rows)-1)
	}
	return m.scroll()
}

func (m PanelModel) scroll() PanelModel {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m
}

// sectionAt returns the section key under the cursor.
func (m PanelModel) sectionAt() string {
	if m.Cursor < 0 || m.Cursor >= len(m.rows) {
		return ""
	}
	return m.rows[m.Cursor].section
}

func (m PanelModel) Init() tea.Cmd {
	return nil
}

func (m PanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
			return m.scroll(), nil
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
			}
			return m.scroll(), nil
		case "enter", " ":
			key := m.sectionAt()
			if key == "" {
				return m, nil
			}
			panel.Toggle(m.Open, key)
			// Keep the cursor on the header that was toggled.
			m = m.rebuild()
			for i, r := range m.rows {
				if r.entry == nil && r.section == key {
					m.Cursor = i
					break
				}
			}
			return m.scroll(), nil
		case "d":
			m.OnlyWithData = !m.OnlyWithData
			return m.rebuild(), nil
		case "a":
			panel.SetAll(m.Open, true)
			return m.rebuild(), nil
		case "c":
			panel.SetAll(m.Open, false)
			m.Cursor = 0
			return m.rebuild(), nil
		}
	case tea.WindowSizeMsg:
		m.Height = max(5, msg.Height-7)
		return m.scroll(), nil
	}
	return m, nil
}

func (m PanelModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Content Panel"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open/close  d data only  a/c all  q quit"))
	b.WriteString("\n\n")

	sections := make(map[string]panel.SectionView, len(m.view.Sections))
	for _, sec := range m.view.Sections {
		sections[sec.Key] = sec
	}

	end := min(m.Offset+m.Height, len(m.rows))
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		var line string
		if r.entry == nil {
			sec := sections[r.section]
			arrow := "▶"
			if sec.Open {
				arrow = "▼"
			}
			line = fmt.Sprintf("%s%s %s %s", cursor, arrow, sec.Label, listDimStyle.Render(fmt.Sprintf("(%d/%d)", sec.WithData, sec.Total)))
			if i == m.Cursor {
				line = listSelectedStyle.Render(line)
			} else {
				line = StyleSection.Render(line)
			}
		} else {
			line = m.entryLine(cursor, *r.entry, i == m.Cursor)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	filter := "all fields"
	if m.OnlyWithData {
		filter = "fields with data"
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d/%d with data · %s", m.view.WithData, m.view.Total, filter)))
	return b.String()
}

func (m PanelModel) entryLine(cursor string, e panel.Entry, current bool) string {
	status := " "
	switch {
	case e.Placed:
		status = StyleSuccess.Render(iconSuccess)
	case !e.HasValue:
		status = listDimStyle.Render("·")
	}
	text := fmt.Sprintf("%s  %s %-24s", cursor, e.Field.Icon, e.Field.Label)
	preview := ""
	if e.Preview != "" {
		preview = " " + listDimStyle.Render(e.Preview)
	}
	switch {
	case current:
		return listSelectedStyle.Render(text) + " " + status + preview
	case !e.HasValue:
		return listDimStyle.Render(text) + " " + status
	}
	return listNormalStyle.Render(text) + " " + status + preview
}
