// Package outline draws the structure of a layout as a Graphviz diagram:
// the canvas, its standalone items, and each zone with the fields
// assigned to it. It is a debugging aid for layouts that are hard to read
// as JSON.
package outline

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/record"
)

// Options configures outline rendering.
type Options struct {
	// Detailed adds geometry to item labels.
	Detailed bool
	// Record, when set, marks fields without data with a dashed outline.
	Record record.Record
}

const rootID = "canvas"

// ToDOT converts a layout to Graphviz DOT. Items appear in drawing order.
func ToDOT(m layout.Model, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  %q [label=%q, shape=folder, fillcolor=\"#eef2ff\"];\n", rootID, fmt.Sprintf("Canvas (%d)", len(m)))

	for _, it := range m {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(it.ID), strings.Join(itemAttrs(it, opts), ", "))
	}
	for _, it := range m {
		if !it.IsZone() || len(it.AssignedFields) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n  subgraph %q {\n", "cluster_"+it.ID)
		fmt.Fprintf(&buf, "    label=%q;\n    style=\"rounded,dashed\";\n", zoneTitle(it))
		for _, id := range it.AssignedFields {
			fmt.Fprintf(&buf, "    %q [%s];\n", memberID(it.ID, id), strings.Join(memberAttrs(id, opts), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, it := range m {
		fmt.Fprintf(&buf, "  %q -> %q;\n", rootID, nodeID(it.ID))
		for _, id := range it.AssignedFields {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(it.ID), memberID(it.ID, id))
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id string) string { return "item:" + id }

func memberID(zone, field string) string { return "member:" + zone + ":" + field }

func zoneTitle(it layout.Item) string {
	if it.SectionFilter == "" {
		return it.Label
	}
	return it.Label + " [" + catalogue.SectionLabel(it.SectionFilter) + "]"
}

func itemLabel(it layout.Item, detailed bool) string {
	label := strings.TrimSpace(it.Icon + " " + it.Label)
	if label == "" {
		label = it.ID
	}
	if !detailed {
		return label
	}
	parts := []string{
		it.ID,
		fmt.Sprintf("x: %s%% y: %s%%", record.FormatNumber(it.Position.X), record.FormatNumber(it.Position.Y)),
		fmt.Sprintf("%s%% x %s%%", record.FormatNumber(it.Width), record.FormatNumber(it.Height)),
	}
	if it.Rotation != 0 {
		parts = append(parts, fmt.Sprintf("rotation: %s°", record.FormatNumber(it.Rotation)))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func itemAttrs(it layout.Item, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", itemLabel(it, opts.Detailed))}
	switch {
	case it.IsZone():
		attrs = append(attrs, "shape=tab", "fillcolor=\"#fef3c7\"")
	case opts.Record != nil && !record.HasData(opts.Record, it.ID):
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

func memberAttrs(id string, opts Options) []string {
	f := catalogue.Resolve(id)
	attrs := []string{fmt.Sprintf("label=%q", strings.TrimSpace(f.Icon+" "+f.Label))}
	if opts.Record != nil && !record.HasData(opts.Record, id) {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Render is ToDOT followed by RenderSVG.
func Render(ctx context.Context, m layout.Model, opts Options) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(m, opts))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root tag so the diagram scales to its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
