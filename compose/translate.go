package compose

import (
	"encoding/json"
	"fmt"
	"os"
)

// labelCategory is the pseudo-category holding the display labels for the
// tag categories themselves.
const labelCategory = "rows"

// Translator maps tag categories and values to their localized display
// form. Unknown entries pass through unchanged.
type Translator struct {
	table map[string]map[string]string
}

// NewTranslator returns an empty pass-through translator.
func NewTranslator() *Translator {
	return &Translator{table: make(map[string]map[string]string)}
}

// LoadTranslator reads a category -> value -> display table from a JSON
// file.
func LoadTranslator(path string) (*Translator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file: %w", err)
	}
	var table map[string]map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{table: table}, nil
}

// Translate looks up value within category.
func (t *Translator) Translate(category, value string) string {
	if m, ok := t.table[category]; ok {
		if v, ok := m[value]; ok {
			return v
		}
	}
	return value
}

// CategoryLabel returns the display label for a tag category.
func (t *Translator) CategoryLabel(category string) string {
	return t.Translate(labelCategory, category)
}
