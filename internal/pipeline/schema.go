package pipeline

import (
	"bytes"
	"encoding/json"
	"strconv"

	"cardfetch/internal"
)

var baseColumns = []string{
	"passcode", "name", "category", "attribute", "type",
	"level", "atk", "def", "link", "pendulum_scale",
	"description", "pendulum_effect", "link_arrows",
}

// Header returns the output columns for a variant. Variant b prepends the
// caller-supplied id column.
func Header(variant internal.SchemaVariant) []string {
	cols := make([]string, 0, 1+len(baseColumns)+len(internal.FlagNames)+1)
	if variant == internal.VariantB {
		cols = append(cols, "id")
	}
	cols = append(cols, baseColumns...)
	for _, name := range internal.FlagNames {
		cols = append(cols, "is_"+name)
	}
	return append(cols, "icon")
}

// Row renders a card in Header order.
func Row(card internal.NormalizedCard, variant internal.SchemaVariant) []string {
	row := make([]string, 0, len(Header(variant)))
	if variant == internal.VariantB {
		row = append(row, card.ID)
	}
	row = append(row,
		card.Passcode,
		card.Name,
		card.Category,
		card.Attribute,
		card.Type,
		strconv.Itoa(card.Level),
		strconv.Itoa(card.Atk),
		strconv.Itoa(card.Def),
		strconv.Itoa(card.Link),
		strconv.Itoa(card.PendulumScale),
		card.Description,
		card.PendulumEffect,
		card.LinkArrows,
	)
	for _, name := range internal.FlagNames {
		flag := card.Flags[name]
		if flag != "1" {
			flag = "0"
		}
		row = append(row, flag)
	}
	return append(row, card.Icon)
}

// RecordJSON encodes a card as a flat JSON object whose keys follow Header
// order. Numeric columns are written as numbers.
func RecordJSON(card internal.NormalizedCard, variant internal.SchemaVariant) ([]byte, error) {
	header := Header(variant)
	row := Row(card, variant)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range header {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(cellValue(header, i, row[i]))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
