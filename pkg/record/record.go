// Package record defines the canonical review record and the value helpers
// shared by the normalizer, the content panel, the compositor and the
// exporters.
//
// A [Record] is a JSON-shaped mapping: values are string, float64, bool,
// []any, map[string]any or nil. Records are treated as immutable; helpers
// never modify their input.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Record is a normalized review keyed by field id.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the value of key as a string, or "" when absent.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return Format(v)
	}
}

// Value resolves a field id against r. Dotted ids walk nested mappings;
// a nested mapping reached through a dotted id reduces to the mean of its
// numeric members when it has any.
func Value(r Record, id string) (any, bool) {
	if r == nil {
		return nil, false
	}
	if !strings.Contains(id, ".") {
		v, ok := r[id]
		return v, ok
	}

	var cur any = map[string]any(r)
	for _, part := range strings.Split(id, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	if m, ok := cur.(map[string]any); ok {
		if mean, ok := numericMean(m); ok {
			return mean, true
		}
	}
	return cur, true
}

// HasData reports whether the field id resolves to a non-empty value.
// Numbers always count, including zero.
func HasData(r Record, id string) bool {
	v, _ := Value(r, id)
	return NonEmpty(v)
}

// NonEmpty reports whether v carries displayable data.
func NonEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case []any:
		return len(t) > 0
	case string:
		return strings.TrimSpace(t) != ""
	case map[string]any:
		return len(t) > 0
	case bool:
		return t
	default:
		return true
	}
}

// Preview returns a short human-readable rendering of the value for id, or
// "" when the field has nothing to show.
func Preview(r Record, id string) string {
	v, _ := Value(r, id)
	return PreviewValue(v)
}

// PreviewValue renders v the way the panel shows it: the first list item
// plus a count, up to two mapping keys, numbers with one decimal unless
// integral, and strings truncated to 25 characters.
func PreviewValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		if len(t) == 0 {
			return ""
		}
		first := previewItem(t[0])
		if len(t) > 1 {
			return fmt.Sprintf("%s +%d", first, len(t)-1)
		}
		return first
	case map[string]any:
		if len(t) == 0 {
			return ""
		}
		keys := sortedKeys(t)
		s := "{" + strings.Join(keys[:min(2, len(keys))], ", ")
		if len(keys) > 2 {
			s += "..."
		}
		return s + "}"
	case string:
		if utf8.RuneCountInString(t) > 25 {
			return string([]rune(t)[:25]) + "..."
		}
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	if f, ok := ToFloat(v); ok {
		if f == math.Trunc(f) {
			return FormatNumber(f)
		}
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return fmt.Sprint(v)
}

func previewItem(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return Format(v)
	}
	for _, k := range []string{"name", "label"} {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	raw, _ := json.Marshal(m)
	if len(raw) > 20 {
		raw = raw[:20]
	}
	return string(raw)
}

// DefaultLabelKeys are the keys consulted by ExtractLabel, in order.
var DefaultLabelKeys = []string{"name", "label", "cultivar", "method", "commercialName"}

// ExtractLabel returns a readable label for a list item: strings as-is,
// objects by the first present key (DefaultLabelKeys when none given),
// then the first string member, then their JSON encoding.
func ExtractLabel(item any, keys ...string) string {
	if len(keys) == 0 {
		keys = DefaultLabelKeys
	}
	m, ok := item.(map[string]any)
	if !ok {
		return Format(item)
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return Format(v)
		}
	}
	for _, k := range sortedKeys(m) {
		if s, ok := m[k].(string); ok {
			return s
		}
	}
	raw, _ := json.Marshal(m)
	return string(raw)
}

// Labels coerces v into a list and extracts a label per item.
func Labels(v any) []string {
	items := AsArray(v)
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, ExtractLabel(it))
	}
	return out
}

// ParseJSON decodes s when it is valid JSON, otherwise returns s.
// Non-strings are returned unchanged.
func ParseJSON(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return s
	}
	return out
}

// AsArray coerces v into a list: JSON strings are decoded, other strings
// are comma-split, mappings yield their values in key order, and nil
// becomes an empty list.
func AsArray(v any) []any {
	switch t := ParseJSON(v).(type) {
	case nil:
		return []any{}
	case []any:
		return t
	case string:
		return SplitList(t)
	case map[string]any:
		return mapValues(t)
	default:
		return []any{t}
	}
}

// AsObject coerces v into a mapping, decoding JSON strings. Anything that
// is not a mapping yields an empty one.
func AsObject(v any) map[string]any {
	if m, ok := ParseJSON(v).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// SplitList splits s on commas, trimming items and dropping empty ones.
func SplitList(s string) []any {
	out := []any{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ToFloat converts numeric Go values to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ParseLeadingFloat mirrors a lenient float parse: numbers pass through and
// strings yield their longest leading numeric prefix ("7.5/10" -> 7.5).
func ParseLeadingFloat(v any) (float64, bool) {
	if f, ok := ToFloat(v); ok {
		return f, !math.IsNaN(f)
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	end := 0
	seenDigit, seenDot, seenExp := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
			end = i + 1
		case (c == '+' || c == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			i = len(s)
		}
	}
	if !seenDigit {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimRight(s[:end], "eE+-"), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Truthy reports whether v would be considered set by a loose check:
// nil, false, zero and "" are not.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := ToFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// FormatNumber prints f with the shortest representation that round-trips:
// 4 -> "4", 4.5 -> "4.5".
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Format renders a scalar for display.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	if f, ok := ToFloat(v); ok {
		return FormatNumber(f)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts ISO 8601 strings and unix-millisecond numbers.
func ParseDate(v any) (time.Time, bool) {
	if f, ok := ToFloat(v); ok {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDateFR renders v as dd/mm/yyyy. Unparseable input is returned as
// text.
func FormatDateFR(v any) string {
	t, ok := ParseDate(v)
	if !ok {
		return Format(v)
	}
	return t.Format("02/01/2006")
}

// CategoryAverages reduces categoryRatings to one score per category,
// rounded to one decimal. Categories without numeric members are skipped.
func CategoryAverages(r Record) map[string]float64 {
	out := map[string]float64{}
	for cat, v := range AsObject(r["categoryRatings"]) {
		if f, ok := ParseLeadingFloat(v); ok {
			out[cat] = Round1(f)
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if mean, ok := numericMean(m); ok {
			out[cat] = Round1(mean)
		}
	}
	return out
}

// Round1 rounds to one decimal place.
func Round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func numericMean(m map[string]any) (float64, bool) {
	sum, n := 0.0, 0
	for _, v := range m {
		if f, ok := ToFloat(v); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return t, true
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mapValues(m map[string]any) []any {
	out := make([]any, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, m[k])
	}
	return out
}
