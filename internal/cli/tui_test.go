package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/record"
)

func press(t *testing.T, m PanelModel, keys ...string) PanelModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(PanelModel)
	}
	return m
}

func TestPanelModelNavigation(t *testing.T) {
	rec := record.Record{"holderName": "Kush", "aromas": []any{"pine"}}
	placed := layout.Model{layout.NewField(catalogue.Resolve("holderName"), layout.Point{X: 10, Y: 10})}
	m := NewPanelModel(rec, placed, false)

	sections := len(catalogue.Sections())
	if len(m.rows) <= sections {
		t.Fatalf("default open sections should list entries, got %d rows", len(m.rows))
	}

	m = press(t, m, "c")
	if len(m.rows) != sections {
		t.Errorf("closed rows = %d, want %d", len(m.rows), sections)
	}

	m = press(t, m, "enter")
	if !m.Open[m.rows[0].section] {
		t.Error("enter should open the section under the cursor")
	}
	if m.rows[m.Cursor].entry != nil {
		t.Error("cursor should stay on the toggled header")
	}

	m = press(t, m, "a", "d")
	if !m.OnlyWithData || m.view.WithData != 2 {
		t.Errorf("data filter = %v, with data %d", m.OnlyWithData, m.view.WithData)
	}
	entries := 0
	for _, r := range m.rows {
		if r.entry != nil {
			entries++
			if !r.entry.HasValue {
				t.Errorf("%s listed without data", r.entry.Field.ID)
			}
		}
	}
	if entries != 2 {
		t.Errorf("entries = %d, want 2", entries)
	}

	m = press(t, m, "down", "down", "down")
	if m.Cursor != 3 {
		t.Errorf("Cursor = %d, want 3", m.Cursor)
	}
	m = press(t, m, "up")
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2", m.Cursor)
	}

	view := m.View()
	if !strings.Contains(view, "Content Panel") || !strings.Contains(view, "2/") {
		t.Errorf("View() = %q", view)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q should quit")
	}
}

func TestPanelModelWindowSize(t *testing.T) {
	m := NewPanelModel(record.Record{}, layout.Model{}, false)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 4})
	if got := next.(PanelModel).Height; got != 5 {
		t.Errorf("Height = %d, want minimum 5", got)
	}
}
