// Package normalize turns loosely-shaped review records into canonical
// [record.Record] values.
//
// Raw records come from forms, older API versions and imports. They may
// carry JSON-encoded blobs, flat rating metrics, comma-separated lists and
// nested form sections. [Normalize] reconciles all of that into one shape:
//
//   - title and holderName are always both set
//   - aromas, tastes, effects, terpenes, tags, cultivarsList and images
//     are always lists
//   - categoryRatings is always a mapping, rebuilt from flat metrics when
//     any are present
//
// Normalize never fails and is idempotent: normalizing a normalized record
// returns an equal record.
package normalize

import (
	"encoding/json"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orchard/pkg/catalogue"
	"github.com/matzehuels/orchard/pkg/record"
)

// Placeholders used when no name can be derived.
const (
	DefaultTitle      = "Sans titre"
	DefaultHolderName = "Sans nom"
	DefaultAuthor     = "Anonyme"
)

// sectionKeys are nested form sections whose members are lifted to the top
// level when the top-level key is missing or empty.
var sectionKeys = []string{
	"gouts", "odeurs", "texture", "effets", "visual", "visuel", "analytics",
	"culture", "genetique", "genetics", "recipe", "curing", "pipeline",
	"pipelineCuring",
}

// listFields are decoded from JSON strings or split on commas.
var listFields = []string{
	"aromas", "tastes", "effects", "terpenes", "cultivarsList",
	"pipelineExtraction", "pipelineSeparation", "pipelinePurification",
	"pipelineCulture", "pipelineCuring", "pipelineRecipe",
	"fertilizationPipeline", "substratMix", "tags",
}

// AlwaysArray lists the fields that are guaranteed to be lists.
var AlwaysArray = []string{
	"aromas", "tastes", "effects", "terpenes", "tags", "cultivarsList", "images",
}

// Option configures Normalize.
type Option func(*options)

type options struct {
	logger      *log.Logger
	productType string
}

// WithLogger sets the logger used for diagnostics. Defaults to discarding.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProductType backfills type and applies product-specific shaping
// (flower, hash, concentrate, edible).
func WithProductType(t string) Option {
	return func(o *options) { o.productType = strings.ToLower(strings.TrimSpace(t)) }
}

// Normalize returns the canonical form of raw, or nil when raw is nil.
// raw is never modified.
func Normalize(raw map[string]any, opts ...Option) record.Record {
	if raw == nil {
		return nil
	}
	o := options{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}

	n := record.Record(raw).Clone()
	liftSections(n)

	extra := mergeExtraData(n, o.logger)
	liftSections(n)
	source := make(map[string]any, len(extra)+len(n))
	for k, v := range extra {
		source[k] = v
	}
	for k, v := range n {
		source[k] = v
	}

	rebuildCategoryRatings(n, source, o.logger)
	backfillRating(n)
	backfillNames(n)
	if o.productType != "" && !record.Truthy(n["type"]) {
		n["type"] = o.productType
	}
	backfillImages(n)

	if cr, _ := n["categoryRatings"].(map[string]any); len(cr) == 0 {
		if legacy, ok := n["ratings"].(map[string]any); ok {
			n["categoryRatings"] = legacy
		}
	}

	coerceLists(n)

	if effects, _ := n["effects"].([]any); len(effects) == 0 {
		if s, ok := extra["effects"].(string); ok {
			n["effects"] = record.SplitList(s)
		}
	}

	resolveAuthor(n)
	shapeProduct(n, productType(o.productType, n))

	if _, ok := n["categoryRatings"].(map[string]any); !ok {
		n["categoryRatings"] = map[string]any{}
	}
	return n
}

// liftSections copies the members of nested form sections to the top
// level until nothing changes, so sections nested in sections or arriving
// through extraData are lifted in the same pass. A section stored as a
// JSON string is decoded first when it is also a list field, since
// coerceLists would decode it anyway.
func liftSections(n record.Record) {
	for changed := true; changed; {
		changed = false
		for _, key := range sectionKeys {
			if s, ok := n[key].(string); ok && slices.Contains(listFields, key) {
				if m, ok := decodeList(s).(map[string]any); ok {
					n[key] = m
				}
			}
			section, ok := n[key].(map[string]any)
			if !ok {
				continue
			}
			for k, v := range section {
				cur, exists := n[k]
				if exists && (!isBlank(cur) || isBlank(v)) {
					continue
				}
				n[k] = v
				changed = true
			}
		}
	}
}

// mergeExtraData decodes extraData and copies keys the record lacks.
// It returns the decoded mapping, or nil.
func mergeExtraData(n record.Record, logger *log.Logger) map[string]any {
	var extra map[string]any
	switch v := n["extraData"].(type) {
	case map[string]any:
		extra = v
	case string:
		if v == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(v), &extra); err != nil {
			logger.Debug("skipping undecodable extraData", "err", err)
			return nil
		}
	default:
		return nil
	}
	if extra == nil {
		return nil
	}
	for k, v := range extra {
		if _, ok := n[k]; !ok {
			n[k] = v
		}
	}
	n["extraData"] = extra
	return extra
}

func rebuildCategoryRatings(n record.Record, source map[string]any, logger *log.Logger) {
	existing := n["categoryRatings"]
	if s, ok := existing.(string); ok {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil || decoded == nil {
			logger.Debug("discarding undecodable categoryRatings", "err", err)
			decoded = map[string]any{}
		}
		existing = decoded
	}

	rebuilt := map[string]any{}
	for _, cat := range catalogue.RatingCategories {
		values := map[string]any{}
		for _, metric := range catalogue.Metrics(cat) {
			v, ok := source[metric]
			if !ok || v == nil || v == "" {
				continue
			}
			if f, ok := record.ParseLeadingFloat(v); ok && f > 0 {
				values[metric] = f
			}
		}
		if len(values) > 0 {
			rebuilt[cat] = values
		}
	}

	switch {
	case len(rebuilt) > 0:
		n["categoryRatings"] = rebuilt
	case existing != nil:
		if m, ok := existing.(map[string]any); ok {
			n["categoryRatings"] = m
		}
	}
}

func backfillRating(n record.Record) {
	if _, ok := n["rating"]; ok {
		return
	}
	for _, key := range []string{"overallRating", "note", "score"} {
		if v, ok := n[key]; ok {
			n["rating"] = v
			return
		}
	}
	if cr, ok := n["categoryRatings"].(map[string]any); ok {
		if v, ok := cr["overall"]; ok {
			n["rating"] = v
		}
	}
}

// backfillNames derives title and holderName from the values present
// before either was filled in.
func backfillNames(n record.Record) {
	title, holder := n["title"], n["holderName"]
	if !record.Truthy(title) {
		n["title"] = firstTruthy(DefaultTitle, holder, n["productName"], n["name"])
	}
	if !record.Truthy(holder) {
		n["holderName"] = firstTruthy(DefaultHolderName, title, n["productName"], n["name"])
	}
}

func backfillImages(n record.Record) {
	if !record.Truthy(n["mainImageUrl"]) {
		if record.Truthy(n["imageUrl"]) {
			n["mainImageUrl"] = n["imageUrl"]
		} else if url := firstImage(n["images"]); url != "" {
			n["mainImageUrl"] = url
		}
	}
	if !record.Truthy(n["imageUrl"]) && record.Truthy(n["mainImageUrl"]) {
		n["imageUrl"] = n["mainImageUrl"]
	}
}

// firstImage reads the first entry of images the same way the list is
// later coerced, so a second pass sees the same image.
func firstImage(v any) string {
	if v == nil {
		return ""
	}
	images := toList(v)
	if len(images) == 0 {
		return ""
	}
	switch img := images[0].(type) {
	case string:
		return img
	case map[string]any:
		for _, k := range []string{"url", "src"} {
			if s, ok := img[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func coerceLists(n record.Record) {
	for _, key := range listFields {
		if s, ok := n[key].(string); ok {
			n[key] = decodeList(s)
		}
	}
	for _, key := range AlwaysArray {
		if _, ok := n[key].([]any); !ok {
			n[key] = toList(n[key])
		}
	}
}

// decodeList accepts a JSON array or object, else splits on commas.
func decodeList(s string) any {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		switch parsed.(type) {
		case []any, map[string]any:
			return parsed
		}
	}
	return record.SplitList(s)
}

// toList coerces any value to a list: strings are decoded or split,
// mappings yield their values, anything else is empty.
func toList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case string:
		if l, ok := decodeList(t).([]any); ok {
			return l
		}
		return record.AsArray(t)
	case map[string]any:
		return record.AsArray(t)
	}
	return []any{}
}

// resolveAuthor falls back to ownerName and reduces object authors to a
// display name.
func resolveAuthor(n record.Record) {
	author := n["author"]
	if author == nil {
		author = n["ownerName"]
	}
	if author == nil {
		return
	}
	if m, ok := author.(map[string]any); ok {
		author = firstTruthy(DefaultAuthor, m["username"], m["name"])
	}
	n["author"] = author
}

func productType(opt string, n record.Record) string {
	if opt != "" {
		return opt
	}
	if s, ok := n["type"].(string); ok {
		return strings.ToLower(s)
	}
	return ""
}

func shapeProduct(n record.Record, t string) {
	switch t {
	case "hash", "concentrate":
		if c := n["cultivars"]; record.Truthy(c) {
			if list, ok := c.([]any); ok {
				n["cultivarsList"] = list
			} else {
				n["cultivarsList"] = []any{c}
			}
		}
	case "edible":
		if s, ok := n["recipe"].(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err != nil {
				parsed = map[string]any{"steps": []any{}}
			}
			n["pipelineRecipe"] = parsed
		}
	case "flower":
		if list, _ := n["cultivarsList"].([]any); !record.Truthy(n["cultivars"]) && len(list) > 0 {
			n["cultivars"] = list
		}
	}
}

func firstTruthy(fallback any, candidates ...any) any {
	for _, c := range candidates {
		if record.Truthy(c) {
			return c
		}
	}
	return fallback
}

func isBlank(v any) bool {
	return v == nil || v == ""
}
