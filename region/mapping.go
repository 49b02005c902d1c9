package region

import (
	"strings"

	"github.com/dailyyoga/storefront-edge/commerce"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Placeholder region used for the default country when the backend could
// not be reached
const (
	PlaceholderID   = "default"
	PlaceholderName = "Default"
)

// Region is a commerce region as seen by the edge
type Region struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CurrencyCode string   `json:"currency_code,omitempty"`
	Countries    []string `json:"countries,omitempty"`
}

// IsPlaceholder reports whether r was synthesised for the default country
func (r *Region) IsPlaceholder() bool {
	return r != nil && r.ID == PlaceholderID
}

// Mapping maps lowercase country codes to regions, keeping insertion order.
// A Mapping is immutable once built; a nil *Mapping is an empty mapping.
type Mapping struct {
	regions *orderedmap.OrderedMap[string, *Region]
}

func newMapping(capacity int) *Mapping {
	return &Mapping{
		regions: orderedmap.New[string, *Region](orderedmap.WithCapacity[string, *Region](capacity)),
	}
}

// set replaces the region of an existing code in place, or appends the code
func (m *Mapping) set(code string, r *Region) {
	m.regions.Set(code, r)
}

// BuildMapping walks regions then their countries in order. A country listed
// by several regions maps to the last of them. Countries without a code are
// skipped.
func BuildMapping(regions []commerce.StoreRegion) *Mapping {
	m := newMapping(len(regions) * 4)
	for _, sr := range regions {
		r := &Region{
			ID:           sr.ID,
			Name:         sr.Name,
			CurrencyCode: sr.CurrencyCode,
			Countries:    make([]string, 0, len(sr.Countries)),
		}
		for _, c := range sr.Countries {
			code := strings.ToLower(c.ISO2)
			if code == "" {
				continue
			}
			r.Countries = append(r.Countries, code)
			m.set(code, r)
		}
	}
	return m
}

// WithDefault returns m with code mapped to the placeholder region when m
// lacks it. m itself is returned when it already contains code.
func (m *Mapping) WithDefault(code string) *Mapping {
	if m.Has(code) {
		return m
	}

	out := newMapping(m.Len() + 1)
	for pair := m.oldest(); pair != nil; pair = pair.Next() {
		out.set(pair.Key, pair.Value)
	}
	out.set(code, &Region{ID: PlaceholderID, Name: PlaceholderName})
	return out
}

// HasFetchedRegions reports whether m holds any region other than the
// placeholder
func (m *Mapping) HasFetchedRegions() bool {
	for pair := m.oldest(); pair != nil; pair = pair.Next() {
		if !pair.Value.IsPlaceholder() {
			return true
		}
	}
	return false
}

// Len returns the number of countries
func (m *Mapping) Len() int {
	if m == nil || m.regions == nil {
		return 0
	}
	return m.regions.Len()
}

// Has reports whether code is a key
func (m *Mapping) Has(code string) bool {
	_, ok := m.Lookup(code)
	return ok
}

// Lookup returns the region of code
func (m *Mapping) Lookup(code string) (*Region, bool) {
	if m.Len() == 0 {
		return nil, false
	}
	return m.regions.Get(code)
}

// First returns the earliest inserted country code
func (m *Mapping) First() (string, bool) {
	pair := m.oldest()
	if pair == nil {
		return "", false
	}
	return pair.Key, true
}

// Countries returns the country codes in insertion order
func (m *Mapping) Countries() []string {
	if m.Len() == 0 {
		return nil
	}
	out := make([]string, 0, m.Len())
	for pair := m.oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func (m *Mapping) oldest() *orderedmap.Pair[string, *Region] {
	if m.Len() == 0 {
		return nil
	}
	return m.regions.Oldest()
}

// MarshalJSON encodes the mapping as a JSON object in insertion order
func (m *Mapping) MarshalJSON() ([]byte, error) {
	if m.Len() == 0 {
		return []byte("{}"), nil
	}
	return m.regions.MarshalJSON()
}

// UnmarshalJSON decodes what MarshalJSON produced
func (m *Mapping) UnmarshalJSON(data []byte) error {
	raw := orderedmap.New[string, *Region]()
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}

	// regions shared by several countries decode into one pointer again
	byID := make(map[string]*Region, raw.Len())
	decoded := newMapping(raw.Len())
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == "" || pair.Value == nil {
			continue
		}
		r, ok := byID[pair.Value.ID]
		if !ok {
			r = pair.Value
			byID[r.ID] = r
		}
		decoded.set(strings.ToLower(pair.Key), r)
	}
	*m = *decoded
	return nil
}
