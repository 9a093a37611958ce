package pipeline

import (
	"strings"

	"cardfetch/internal"
	"cardfetch/internal/util"
)

const (
	CategorySpell   = "Spell"
	CategoryTrap    = "Trap"
	CategoryMonster = "Monster"

	IconNormal = "Normal"
)

type marker struct {
	needle string
	label  string
}

// Checked in order; the first hit wins.
var categoryMarkers = []marker{
	{"spell", CategorySpell},
	{"trap", CategoryTrap},
	{"monster", CategoryMonster},
}

var iconMarkers = []marker{
	{"continuous", "Continuous"},
	{"quick-play", "Quick-Play"},
	{"equip", "Equip"},
	{"field", "Field"},
	{"ritual", "Ritual"},
	{"counter", "Counter"},
}

var arrowCodes = map[string]string{
	"top":          "T",
	"bottom":       "B",
	"left":         "L",
	"right":        "R",
	"top-left":     "TL",
	"top-right":    "TR",
	"bottom-left":  "BL",
	"bottom-right": "BR",
}

// Normalizer maps one raw API card onto the flat output record. The variant
// selects the description, icon and link-arrow rules.
type Normalizer struct {
	variant internal.SchemaVariant
}

func NewNormalizer(variant internal.SchemaVariant) Normalizer {
	if variant != internal.VariantA {
		variant = internal.VariantB
	}
	return Normalizer{variant: variant}
}

func (n Normalizer) Variant() internal.SchemaVariant {
	return n.variant
}

func (n Normalizer) Normalize(raw internal.RawCard, externalID string) internal.NormalizedCard {
	card := internal.NormalizedCard{
		ID:            externalID,
		Passcode:      util.String(raw["id"]),
		Name:          util.String(raw["name"]),
		Attribute:     util.String(raw["attribute"]),
		Level:         util.IntOr(raw["level"], internal.NoValue),
		Atk:           util.IntOr(raw["atk"], internal.NoValue),
		Def:           util.IntOr(raw["def"], internal.NoValue),
		Link:          util.IntOr(raw["linkval"], internal.NoValue),
		PendulumScale: util.IntOr(raw["scale"], internal.NoValue),
		Flags:         make(map[string]string, len(internal.FlagNames)),
	}

	n.resolveDescription(&card, raw)

	classification := strings.ToLower(util.String(raw["humanReadableCardType"]))
	card.Category = firstMarker(categoryMarkers, classification)
	if card.Category == CategoryMonster {
		card.Type = util.String(raw["race"])
	}
	card.Icon = n.icon(card.Category, classification)

	for _, name := range internal.FlagNames {
		card.Flags[name] = "0"
		if strings.Contains(classification, name) {
			card.Flags[name] = "1"
		}
	}

	card.LinkArrows = n.linkArrows(raw)
	return card
}

func (n Normalizer) resolveDescription(card *internal.NormalizedCard, raw internal.RawCard) {
	if n.variant == internal.VariantA {
		card.Description = util.String(raw["desc"])
		return
	}

	card.PendulumEffect = util.TrimmedString(raw["pend_desc"])
	if card.PendulumEffect != "" {
		card.Description = util.TrimmedString(raw["monster_desc"])
		return
	}
	card.Description = util.TrimmedString(raw["desc"])
}

func (n Normalizer) icon(category, classification string) string {
	if n.variant == internal.VariantA {
		return firstMarker(iconMarkers, classification)
	}
	if category != CategorySpell && category != CategoryTrap {
		return ""
	}
	if icon := firstMarker(iconMarkers, classification); icon != "" {
		return icon
	}
	return IconNormal
}

func (n Normalizer) linkArrows(raw internal.RawCard) string {
	value, ok := raw["linkmarkers"]
	if !ok || value == nil {
		return ""
	}

	if n.variant == internal.VariantA {
		switch t := value.(type) {
		case string:
			return t
		case []any:
			parts := make([]string, 0, len(t))
			for _, item := range t {
				parts = append(parts, util.String(item))
			}
			return strings.Join(parts, ", ")
		default:
			return ""
		}
	}

	positions, ok := util.StringList(value)
	if !ok {
		return ""
	}
	codes := make([]string, 0, len(positions))
	for _, p := range positions {
		if code, ok := arrowCodes[strings.ToLower(p)]; ok {
			codes = append(codes, code)
		}
	}
	return strings.Join(codes, "-")
}

func firstMarker(markers []marker, classification string) string {
	for _, m := range markers {
		if strings.Contains(classification, m.needle) {
			return m.label
		}
	}
	return ""
}
