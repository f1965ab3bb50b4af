package cart

import (
	"encoding/json"
	"sort"
)

// Selections maps option group ids to the chosen option choice ids, both as
// strings. The mapping is opaque to the cart: it is never foreign-keyed
// against the live catalog, which may have been edited since selection time.
type Selections map[string]string

// Canonicalize renders selections as deterministic JSON text. Key order is
// sorted, so two equal mappings always serialize identically; this is what
// makes "same product, same options" detectable by string comparison.
func Canonicalize(selections Selections) string {
	if len(selections) == 0 {
		return "{}"
	}
	// encoding/json sorts map keys, which is exactly the canonical form.
	raw, err := json.Marshal(selections)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// ParseSelections decodes stored selection text defensively: any parse
// failure yields an empty selection set rather than an error, so a corrupt
// row can never break a cart read.
func ParseSelections(raw string) Selections {
	if raw == "" {
		return Selections{}
	}
	var selections Selections
	if err := json.Unmarshal([]byte(raw), &selections); err != nil {
		return Selections{}
	}
	if selections == nil {
		return Selections{}
	}
	return selections
}

func sortedKeys(selections Selections) []string {
	keys := make([]string, 0, len(selections))
	for key := range selections {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
