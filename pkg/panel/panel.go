// Package panel builds the content panel: the catalogue listed by section,
// annotated with what the current record holds and what the layout has
// already placed.
package panel

import (
	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/record"
)

// Options control which sections and fields a [View] shows.
type Options struct {
	// OnlyWithData hides fields without a value, and sections left empty.
	OnlyWithData bool

	// Open maps section keys to their expanded state. Nil uses DefaultOpen.
	Open map[string]bool

	// Sections restricts the view to these section keys. Nil lists all.
	Sections []string
}

// DefaultOpen returns the sections expanded on first display.
func DefaultOpen() map[string]bool {
	open := make(map[string]bool, len(catalogue.SectionKeys()))
	for _, key := range catalogue.SectionKeys() {
		open[key] = false
	}
	open[catalogue.SectionBasic] = true
	open[catalogue.SectionRatings] = true
	open[catalogue.SectionSensorial] = true
	return open
}

// Toggle flips one section's open state in place.
func Toggle(open map[string]bool, key string) {
	open[key] = !open[key]
}

// SetAll opens or closes every section in place.
func SetAll(open map[string]bool, v bool) {
	for _, key := range catalogue.SectionKeys() {
		open[key] = v
	}
}

// Entry is one draggable field in the panel.
type Entry struct {
	Field    catalogue.Field `json:"field"`
	Placed   bool            `json:"placed"`
	HasValue bool            `json:"hasValue"`
	Preview  string          `json:"preview,omitempty"`
}

// SectionView is one collapsible group of entries. WithData and Total
// count the whole section, even when entries are filtered out.
type SectionView struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Open     bool    `json:"open"`
	Entries  []Entry `json:"entries"`
	WithData int     `json:"withData"`
	Total    int     `json:"total"`
}

// View is the full panel.
type View struct {
	Sections     []SectionView `json:"sections"`
	WithData     int           `json:"withData"`
	Total        int           `json:"total"`
	OnlyWithData bool          `json:"onlyWithData"`
}

// Build lays the catalogue out against rec and m.
func Build(rec record.Record, m layout.Model, opts Options) View {
	open := opts.Open
	if open == nil {
		open = DefaultOpen()
	}
	allowed := allowSet(opts.Sections)
	placed := layout.PlacedSet(m)

	view := View{OnlyWithData: opts.OnlyWithData, Sections: []SectionView{}}
	for _, sec := range catalogue.Sections() {
		if allowed != nil && !allowed[sec.Key] {
			continue
		}
		sv := SectionView{Key: sec.Key, Label: sec.Label, Open: open[sec.Key], Entries: []Entry{}}
		for _, f := range sec.Fields {
			e := Entry{
				Field:    f,
				Placed:   placed[f.ID],
				HasValue: record.HasData(rec, f.ID),
			}
			if e.HasValue {
				e.Preview = record.Preview(rec, f.ID)
				sv.WithData++
			}
			sv.Total++
			if opts.OnlyWithData && !e.HasValue {
				continue
			}
			sv.Entries = append(sv.Entries, e)
		}
		view.WithData += sv.WithData
		view.Total += sv.Total
		if opts.OnlyWithData && len(sv.Entries) == 0 {
			continue
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}

// Section returns the section view with key.
func (v View) Section(key string) (SectionView, bool) {
	for _, s := range v.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return SectionView{}, false
}

// Entry returns the entry for a field id, if the view lists it.
func (v View) Entry(id string) (Entry, bool) {
	for _, s := range v.Sections {
		for _, e := range s.Entries {
			if e.Field.ID == id {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Source returns the drag source for id: a catalogue field or the zone
// template.
func Source(id string) (catalogue.Field, bool) {
	return catalogue.Lookup(id)
}

func allowSet(keys []string) map[string]bool {
	if keys == nil {
		return nil
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
