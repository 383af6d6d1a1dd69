package segments

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category labels a segment's content type.
type Category string

const (
	CategorySponsor         Category = "sponsor"
	CategorySelfPromo       Category = "selfpromo"
	CategoryExclusiveAccess Category = "exclusive_access"
	CategoryInteraction     Category = "interaction"
	CategoryHighlight       Category = "poi_highlight"
	CategoryIntro           Category = "intro"
	CategoryOutro           Category = "outro"
	CategoryPreview         Category = "preview"
	CategoryFiller          Category = "filler"
	CategoryMusicOffTopic   Category = "music_offtopic"
)

// DefaultColor is used for categories outside the palette.
const DefaultColor = "#ffffff"

// palette follows the SponsorBlock category colors.
var palette = map[Category]string{
	CategorySponsor:         "#00d400",
	CategorySelfPromo:       "#ffff00",
	CategoryExclusiveAccess: "#008fd6",
	CategoryInteraction:     "#cc00ff",
	CategoryHighlight:       "#ff1684",
	CategoryIntro:           "#00ffff",
	CategoryOutro:           "#0000ff",
	CategoryPreview:         "#008fd6",
	CategoryFiller:          "#7300FF",
	CategoryMusicOffTopic:   "#9C27B0",
}

// DefaultCategories are requested from the segment source when none are configured.
var DefaultCategories = []Category{
	CategorySponsor,
	CategoryIntro,
	CategoryOutro,
	CategoryInteraction,
	CategorySelfPromo,
	CategoryMusicOffTopic,
}

// Known reports whether the category is part of the fixed palette.
func (c Category) Known() bool {
	_, ok := palette[c]
	return ok
}

// Color returns the marker color for the category.
func (c Category) Color() string {
	if color, ok := palette[c]; ok {
		return color
	}
	return DefaultColor
}

// Label returns a human-readable name, e.g. "Music Offtopic".
func (c Category) Label() string {
	words := strings.ReplaceAll(strings.TrimSpace(string(c)), "_", " ")
	if words == "" {
		return "Unknown"
	}
	return cases.Title(language.Und).String(words)
}

// KnownCategories lists the palette categories in a stable order.
func KnownCategories() []Category {
	return []Category{
		CategorySponsor,
		CategorySelfPromo,
		CategoryExclusiveAccess,
		CategoryInteraction,
		CategoryHighlight,
		CategoryIntro,
		CategoryOutro,
		CategoryPreview,
		CategoryFiller,
		CategoryMusicOffTopic,
	}
}
