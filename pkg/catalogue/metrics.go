package catalogue

// Rating categories rebuilt from flat metric fields.
const (
	CategoryVisual  = "visual"
	CategorySmell   = "smell"
	CategoryTexture = "texture"
	CategoryTaste   = "taste"
	CategoryEffects = "effects"
)

// RatingCategories lists the categories in a fixed order.
var RatingCategories = []string{
	CategoryVisual, CategorySmell, CategoryTexture, CategoryTaste, CategoryEffects,
}

var categorySection = map[string]string{
	CategoryVisual:  SectionVisualRatings,
	CategorySmell:   SectionSmellRatings,
	CategoryTexture: SectionTextureRatings,
	CategoryTaste:   SectionTasteRatings,
	CategoryEffects: SectionEffectsRatings,
}

// Metrics returns the flat metric field ids of a rating category: the
// slider fields of its detail section, in catalogue order.
func Metrics(category string) []string {
	var ids []string
	for _, f := range InSection(categorySection[category]) {
		if f.Shape == ShapeSlider {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// SectionOf returns the section key that lists id, or "".
func SectionOf(id string) string {
	if f, ok := byID[id]; ok {
		return f.Section
	}
	return ""
}
