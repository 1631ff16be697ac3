package catalogue

func buildSections() []Section {
	return []Section{
		{Key: SectionBasic, Label: "📋 Informations de base", Fields: []Field{
			{ID: "holderName", Label: "Nom du cultivar/produit", Icon: "🏷️", Shape: ShapeText},
			{ID: "title", Label: "Titre", Icon: "🔖", Shape: ShapeText},
			{ID: "author", Label: "Auteur", Icon: "👤", Shape: ShapeText},
			{ID: "ownerName", Label: "Publié par", Icon: "🧾", Shape: ShapeText},
			{ID: "breeder", Label: "Breeder", Icon: "🧬", Shape: ShapeText},
			{ID: "farm", Label: "Farm", Icon: "🌱", Shape: ShapeText},
			{ID: "hashmaker", Label: "Hash Maker", Icon: "👨‍🔬", Shape: ShapeText},
			{ID: "type", Label: "Type de produit", Icon: "📦", Shape: ShapeText},
			{ID: "strainType", Label: "Type de strain", Icon: "🌿", Shape: ShapeText},
			{ID: "mainImage", Label: "Image principale", Icon: "🖼️", Shape: ShapeImage},
			{ID: "imageUrl", Label: "URL Image", Icon: "🔗", Shape: ShapeImage},
			{ID: "images", Label: "Galerie d'images", Icon: "🖼️", Shape: ShapeGallery},
			{ID: "date", Label: "Date", Icon: "📅", Shape: ShapeDate},
			{ID: "createdAt", Label: "Date création", Icon: "📅", Shape: ShapeDate},
		}},
		{Key: SectionRatings, Label: "⭐ Notes globales", Fields: []Field{
			{ID: "rating", Label: "Note globale", Icon: "⭐", Shape: ShapeRating},
			{ID: "overallRating", Label: "Note (alt)", Icon: "⭐", Shape: ShapeRating},
			{ID: "note", Label: "Note", Icon: "⭐", Shape: ShapeRating},
			{ID: "categoryRatings", Label: "Notes par catégorie (bloc)", Icon: "📊", Shape: ShapeCategoryBlock},
		}},
		{Key: SectionVisualRatings, Label: "👁️ Détails Visuels", Fields: ratingFields(CategoryVisual, "👁️ Note Visuelle (moyenne)", "👁️", []Field{
			{ID: "densite", Label: "Densité des buds", Icon: "🧱"},
			{ID: "trichome", Label: "Trichomes", Icon: "💎"},
			{ID: "pistil", Label: "Pistils", Icon: "🔶"},
			{ID: "manucure", Label: "Manucure", Icon: "✂️"},
			{ID: "moisissure", Label: "Absence moisissure", Icon: "🦠"},
			{ID: "graines", Label: "Absence graines", Icon: "🌰"},
			{ID: "couleur", Label: "Couleur", Icon: "🎨"},
			{ID: "couleurTransparence", Label: "Couleur/Transparence", Icon: "🎨"},
			{ID: "pureteVisuelle", Label: "Pureté visuelle", Icon: "✨"},
			{ID: "viscosite", Label: "Viscosité", Icon: "🍯"},
			{ID: "melting", Label: "Melting", Icon: "🔥"},
			{ID: "residus", Label: "Résidus", Icon: "💨"},
			{ID: "pistils", Label: "Pistils (hash)", Icon: "🔶"},
		})},
		{Key: SectionSmellRatings, Label: "👃 Détails Odeur", Fields: ratingFields(CategorySmell, "👃 Note Odeur (moyenne)", "👃", []Field{
			{ID: "aromasIntensity", Label: "Intensité aromatique", Icon: "🌸"},
			{ID: "intensiteAromatique", Label: "Intensité aromatique (alt)", Icon: "🌸"},
			{ID: "fideliteCultivars", Label: "Fidélité cultivars", Icon: "🎯"},
		})},
		{Key: SectionTextureRatings, Label: "🤚 Détails Texture", Fields: ratingFields(CategoryTexture, "🤚 Note Texture (moyenne)", "🤚", []Field{
			{ID: "durete", Label: "Dureté", Icon: "💪"},
			{ID: "densiteTexture", Label: "Densité texture", Icon: "🧱"},
			{ID: "elasticite", Label: "Élasticité", Icon: "🧘"},
			{ID: "collant", Label: "Collant/Sticky", Icon: "🍯"},
			{ID: "friabiliteViscosite", Label: "Friabilité/Viscosité", Icon: "🔧"},
			{ID: "meltingResidus", Label: "Melting/Résidus", Icon: "🔥"},
			{ID: "aspectCollantGras", Label: "Aspect collant/gras", Icon: "🍯"},
			{ID: "viscositeTexture", Label: "Viscosité texture", Icon: "🍯"},
		})},
		{Key: SectionTasteRatings, Label: "👅 Détails Goût", Fields: ratingFields(CategoryTaste, "👅 Note Goût (moyenne)", "👅", []Field{
			{ID: "intensiteFumee", Label: "Intensité fumée", Icon: "💨"},
			{ID: "agressivite", Label: "Agressivité/Piquant", Icon: "🌶️"},
			{ID: "cendre", Label: "Qualité cendre", Icon: "⚪"},
			{ID: "intensiteGout", Label: "Intensité goût", Icon: "👅"},
			{ID: "textureBouche", Label: "Texture en bouche", Icon: "🫦"},
			{ID: "douceur", Label: "Douceur", Icon: "🍬"},
			{ID: "intensite", Label: "Intensité", Icon: "📈"},
			{ID: "goutIntensity", Label: "Intensité (comestible)", Icon: "🍰"},
		})},
		{Key: SectionEffectsRatings, Label: "⚡ Détails Effets", Fields: ratingFields(CategoryEffects, "⚡ Note Effets (moyenne)", "⚡", []Field{
			{ID: "montee", Label: "Montée", Icon: "🚀"},
			{ID: "intensiteEffet", Label: "Intensité effet", Icon: "💥"},
			{ID: "intensiteEffets", Label: "Intensité effets (alt)", Icon: "💥"},
			{ID: "effectsIntensity", Label: "Intensité (comestible)", Icon: "🌟"},
			{ID: "dureeEffet", Label: "Durée des effets", Icon: "⏱️"},
		})},
		{Key: SectionSensorial, Label: "🌸 Données Sensorielles", Fields: []Field{
			{ID: "aromas", Label: "Arômes", Icon: "🌸", Shape: ShapeTags},
			{ID: "tastes", Label: "Goûts", Icon: "👅", Shape: ShapeTags},
			{ID: "terpenes", Label: "Terpènes", Icon: "🍋", Shape: ShapeTags},
			{ID: "effects", Label: "Effets", Icon: "⚡", Shape: ShapeTags},
		}},
		{Key: SectionLevels, Label: "📊 Niveaux THC/CBD", Fields: []Field{
			{ID: "thcLevel", Label: "Niveau THC", Icon: "🔥", Shape: ShapeText},
			{ID: "cbdLevel", Label: "Niveau CBD", Icon: "🛡️", Shape: ShapeText},
			{ID: "indicaRatio", Label: "Ratio Indica/Sativa", Icon: "⚖️", Shape: ShapeText},
			{ID: "strainRatio", Label: "Ratio strain", Icon: "📊", Shape: ShapeText},
		}},
		{Key: SectionPipelines, Label: "⚗️ Pipelines & Culture", Fields: []Field{
			{ID: "cultivarsList", Label: "Liste des cultivars", Icon: "🌱", Shape: ShapeCultivarList},
			{ID: "pipelineExtraction", Label: "Pipeline Extraction", Icon: "⚗️", Shape: ShapePipeline},
			{ID: "pipelineSeparation", Label: "Pipeline Séparation", Icon: "🧪", Shape: ShapePipeline},
			{ID: "pipelinePurification", Label: "Pipeline Purification", Icon: "✨", Shape: ShapePipeline},
			{ID: "fertilizationPipeline", Label: "Pipeline Fertilisation", Icon: "🌾", Shape: ShapePipeline},
			{ID: "substratMix", Label: "Substrat Mix", Icon: "🧩", Shape: ShapeSubstratMix},
			{ID: "purgevide", Label: "Purge à vide", Icon: "🫧", Shape: ShapeBoolean},
		}},
		{Key: SectionContent, Label: "📝 Contenu Texte", Fields: []Field{
			{ID: "description", Label: "Description", Icon: "📝", Shape: ShapeTextarea},
			{ID: "conclusion", Label: "Conclusion", Icon: "✅", Shape: ShapeTextarea},
			{ID: "tags", Label: "Tags", Icon: "🏷️", Shape: ShapeTags},
			{ID: "extraData", Label: "Données additionnelles", Icon: "📋", Shape: ShapeJSON},
		}},
		{Key: SectionStickers, Label: "🎨 Stickers & Déco", Fields: []Field{
			{ID: "infoBubble", Label: "Bulle info", Icon: "💬", Shape: ShapeBubble},
			{ID: "emoji", Label: "Emoji", Icon: "😊", Shape: ShapeBubble},
			{ID: "badge", Label: "Badge", Icon: "🏅", Shape: ShapeBadge},
			{ID: "separator", Label: "Séparateur", Icon: "➖", Shape: ShapeSeparator},
		}},
	}
}

// ratingFields prepends the category average field and tags the metric
// fields as sliders.
func ratingFields(category, avgLabel, avgIcon string, metrics []Field) []Field {
	out := []Field{{ID: "categoryRatings." + category, Label: avgLabel, Icon: avgIcon, Shape: ShapeRating}}
	for _, m := range metrics {
		m.Shape = ShapeSlider
		out = append(out, m)
	}
	return out
}
