package panel

import (
	"testing"

	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/record"
)

func sampleRecord() record.Record {
	return record.Record{
		"title":      "Blue Dream",
		"holderName": "Blue Dream",
		"rating":     4.5,
		"aromas":     []any{"Fruité", "Terreux", "Pin"},
		"effects":    []any{},
		"categoryRatings": map[string]any{
			"visual": map[string]any{"densite": 8.0, "trichome": 6.0},
		},
	}
}

func sampleLayout(t *testing.T) layout.Model {
	t.Helper()
	m, err := layout.Drop(nil, catalogue.ZoneTemplate(), layout.Point{X: 40, Y: 30}, "zone-1")
	if err != nil {
		t.Fatal(err)
	}
	if m, err = layout.Reassign(m, "aromas", "zone-1"); err != nil {
		t.Fatal(err)
	}
	if m, err = layout.Drop(m, catalogue.Resolve("title"), layout.Point{X: 10, Y: 10}, ""); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestBuildAnnotatesEntries(t *testing.T) {
	v := Build(sampleRecord(), sampleLayout(t), Options{})

	tests := []struct {
		id       string
		placed   bool
		hasValue bool
		preview  string
	}{
		{"title", true, true, "Blue Dream"},
		{"aromas", true, true, "Fruité +2"},
		{"rating", false, true, "4.5"},
		{"effects", false, false, ""},
		{"breeder", false, false, ""},
		{"categoryRatings.visual", false, true, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e, ok := v.Entry(tt.id)
			if !ok {
				t.Fatalf("entry %q missing", tt.id)
			}
			if e.Placed != tt.placed {
				t.Errorf("Placed = %v, want %v", e.Placed, tt.placed)
			}
			if e.HasValue != tt.hasValue {
				t.Errorf("HasValue = %v, want %v", e.HasValue, tt.hasValue)
			}
			if e.Preview != tt.preview {
				t.Errorf("Preview = %q, want %q", e.Preview, tt.preview)
			}
		})
	}
}

func TestBuildCounts(t *testing.T) {
	v := Build(sampleRecord(), nil, Options{})
	if len(v.Sections) != len(catalogue.SectionKeys()) {
		t.Fatalf("sections = %d, want %d", len(v.Sections), len(catalogue.SectionKeys()))
	}
	if v.Total != len(catalogue.Fields()) {
		t.Errorf("Total = %d, want %d", v.Total, len(catalogue.Fields()))
	}
	basic, _ := v.Section(catalogue.SectionBasic)
	if basic.WithData != 2 {
		t.Errorf("basic WithData = %d, want 2", basic.WithData)
	}
	sum := 0
	for _, s := range v.Sections {
		sum += s.WithData
	}
	if v.WithData != sum {
		t.Errorf("WithData = %d, want %d", v.WithData, sum)
	}
}

func TestBuildOnlyWithData(t *testing.T) {
	all := Build(sampleRecord(), nil, Options{})
	v := Build(sampleRecord(), nil, Options{OnlyWithData: true})

	if v.WithData != all.WithData || v.Total != all.Total {
		t.Errorf("counts changed under filter: %d/%d vs %d/%d", v.WithData, v.Total, all.WithData, all.Total)
	}
	for _, s := range v.Sections {
		if len(s.Entries) == 0 {
			t.Errorf("section %s listed with no entries", s.Key)
		}
		for _, e := range s.Entries {
			if !e.HasValue {
				t.Errorf("entry %s shown without data", e.Field.ID)
			}
		}
	}
	if _, ok := v.Section(catalogue.SectionStickers); ok {
		t.Error("empty stickers section should be hidden")
	}
	if _, ok := v.Entry("breeder"); ok {
		t.Error("breeder should be hidden")
	}
}

func TestOpenState(t *testing.T) {
	v := Build(nil, nil, Options{})
	for _, s := range v.Sections {
		want := s.Key == catalogue.SectionBasic || s.Key == catalogue.SectionRatings || s.Key == catalogue.SectionSensorial
		if s.Open != want {
			t.Errorf("%s Open = %v, want %v", s.Key, s.Open, want)
		}
	}

	open := DefaultOpen()
	Toggle(open, catalogue.SectionLevels)
	Toggle(open, catalogue.SectionBasic)
	v = Build(nil, nil, Options{Open: open})
	if s, _ := v.Section(catalogue.SectionLevels); !s.Open {
		t.Error("levels should be open after toggle")
	}
	if s, _ := v.Section(catalogue.SectionBasic); s.Open {
		t.Error("basic should be closed after toggle")
	}

	SetAll(open, true)
	for _, s := range Build(nil, nil, Options{Open: open}).Sections {
		if !s.Open {
			t.Errorf("%s closed after SetAll(true)", s.Key)
		}
	}
}

func TestSectionRestriction(t *testing.T) {
	v := Build(sampleRecord(), nil, Options{Sections: []string{catalogue.SectionSensorial, catalogue.SectionBasic}})
	if len(v.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(v.Sections))
	}
	if v.Sections[0].Key != catalogue.SectionBasic {
		t.Errorf("first section = %s, want catalogue order", v.Sections[0].Key)
	}
}

func TestSource(t *testing.T) {
	f, ok := Source("aromas")
	if !ok || f.ID != "aromas" {
		t.Errorf("Source(aromas) = %+v, %v", f, ok)
	}
	z, ok := Source(catalogue.ZoneTemplateID)
	if !ok || !z.IsZone() {
		t.Errorf("Source(zone) = %+v, %v", z, ok)
	}
	if _, ok := Source("nope"); ok {
		t.Error("Source(nope) should fail")
	}
}
