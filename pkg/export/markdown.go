package export

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/matzehuels/orchard/pkg/record"
)

// Attribution is the footer line of every markdown export.
const Attribution = "*Exporté depuis Orchard Studio - Reviews-Maker*"

// DefaultAuthor is used when the record names no author.
const DefaultAuthor = "Orchard Studio"

// Markdown renders the review as a markdown report. It reads the record
// only and never needs a rendered surface.
func Markdown(rec record.Record) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", Title(rec, "Review"))

	if rating := rec["rating"]; record.Truthy(rating) {
		n := 0
		if f, ok := record.ParseLeadingFloat(rating); ok {
			n = int(min(max(math.Floor(f), 0), 5))
		}
		fmt.Fprintf(&b, "**Note:** %s%s (%s/5)\n\n",
			strings.Repeat("★", n), strings.Repeat("☆", 5-n), record.Format(rating))
	}
	if v := rec["category"]; record.Truthy(v) {
		fmt.Fprintf(&b, "**Catégorie:** %s\n\n", record.Format(v))
	}
	fmt.Fprintf(&b, "**Auteur:** %s\n", Author(rec))
	if v := rec["date"]; record.Truthy(v) {
		fmt.Fprintf(&b, "**Date:** %s\n\n", record.FormatDateFR(v))
	}

	thc, cbd := rec["thcLevel"], rec["cbdLevel"]
	if record.Truthy(thc) || record.Truthy(cbd) {
		b.WriteString("## Composition\n\n")
		if record.Truthy(thc) {
			fmt.Fprintf(&b, "- **THC:** %s%%\n", record.Format(thc))
		}
		if record.Truthy(cbd) {
			fmt.Fprintf(&b, "- **CBD:** %s%%\n", record.Format(cbd))
		}
		b.WriteString("\n")
	}

	if v := rec["description"]; record.Truthy(v) {
		fmt.Fprintf(&b, "## Description\n\n%s\n\n", record.Format(v))
	}
	bullets(&b, "Effets", record.Labels(rec["effects"]))
	bullets(&b, "Arômes", record.Labels(rec["aromas"]))

	if tags := record.Labels(rec["tags"]); len(tags) > 0 {
		b.WriteString("## Tags\n\n")
		for i, t := range tags {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString("#" + t)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("---\n\n" + Attribution + "\n")
	return []byte(b.String())
}

func bullets(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// Title returns the record title or fallback.
func Title(rec record.Record, fallback string) string {
	if v := rec["title"]; record.Truthy(v) {
		return record.Format(v)
	}
	return fallback
}

// Author resolves the display author: ownerName, then author (a name or
// an object with username or id), then DefaultAuthor.
func Author(rec record.Record) string {
	if s := rec.String("ownerName"); s != "" {
		return s
	}
	switch a := rec["author"].(type) {
	case string:
		if a != "" {
			return a
		}
	case map[string]any:
		for _, k := range []string{"username", "id"} {
			if v := a[k]; record.Truthy(v) {
				return record.Format(v)
			}
		}
	}
	return DefaultAuthor
}

var (
	markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
	previewPolicy    = newPreviewPolicy()
)

func newPreviewPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// MarkdownHTML renders markdown to sanitized HTML for previews.
func MarkdownHTML(md []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert(md, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return previewPolicy.SanitizeBytes(buf.Bytes()), nil
}
