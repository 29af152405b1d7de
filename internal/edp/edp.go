// Package edp defines the Existential Data Points (pain categories) that
// companies are scored against.
package edp

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// EDP identifiers, in definition order.
const (
	CatalogComplexity      = "EDP1_Catalog_Complexity"
	ProductDataDecay       = "EDP2_Product_Data_Decay"
	TechnologyObsolescence = "EDP3_Technology_Obsolescence"
	ChannelConflict        = "EDP6_Channel_Conflict"
	SalesEnablement        = "EDP7_Sales_Enablement"
)

// Definition is the static description of one EDP.
type Definition struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Indicators    []string `json:"indicators" yaml:"indicators"`
	WonDealWeight float64  `json:"won_deal_weight" yaml:"won_deal_weight"`
}

// Prefix returns the indicator namespace of the EDP ("EDP7" for
// "EDP7_Sales_Enablement").
func (d Definition) Prefix() string {
	return Prefix(d.ID)
}

// Prefix returns the namespace portion of an EDP or indicator key.
func Prefix(id string) string {
	if i := strings.IndexByte(id, '_'); i > 0 {
		return id[:i]
	}
	return id
}

// Registry is an ordered, immutable set of EDP definitions.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry validates defs and returns a registry preserving their order.
func NewRegistry(defs []Definition) (*Registry, error) {
	if err := Validate(defs); err != nil {
		return nil, err
	}
	r := &Registry{
		defs:  make([]Definition, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	copy(r.defs, defs)
	for i, d := range r.defs {
		r.index[d.ID] = i
	}
	return r, nil
}

// Validate checks a definition set for emptiness, duplicate IDs and weights
// outside [0,1].
func Validate(defs []Definition) error {
	if len(defs) == 0 {
		return eris.New("edp: no definitions")
	}

	var errs []string
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		if strings.TrimSpace(d.ID) == "" {
			errs = append(errs, fmt.Sprintf("definition %d has empty id", i))
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Sprintf("duplicate id %s", d.ID))
		}
		seen[d.ID] = true
		if d.WonDealWeight < 0 || d.WonDealWeight > 1 {
			errs = append(errs, fmt.Sprintf("%s won_deal_weight must be between 0 and 1", d.ID))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("edp: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Get returns the definition with the given ID.
func (r *Registry) Get(id string) (Definition, bool) {
	i, ok := r.index[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// ByPrefix returns the definition whose namespace matches prefix ("EDP7").
func (r *Registry) ByPrefix(prefix string) (Definition, bool) {
	for _, d := range r.defs {
		if d.Prefix() == prefix {
			return d, true
		}
	}
	return Definition{}, false
}

// IDs returns EDP IDs in definition order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.defs))
	for i, d := range r.defs {
		ids[i] = d.ID
	}
	return ids
}

// All returns a copy of the definitions in order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Weights returns won-deal weights keyed by EDP ID.
func (r *Registry) Weights() map[string]float64 {
	w := make(map[string]float64, len(r.defs))
	for _, d := range r.defs {
		w[d.ID] = d.WonDealWeight
	}
	return w
}

// Len returns the number of definitions.
func (r *Registry) Len() int { return len(r.defs) }

// DefaultDefinitions returns the built-in EDP set.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			ID:          CatalogComplexity,
			Name:        "Catalog Complexity Crisis",
			Description: "Large or technical catalogs that buyers cannot navigate without help.",
			Indicators: []string{
				"EDP1_PDF_Catalog", "EDP1_No_Filters", "EDP1_Large_Catalog_Language",
				"EDP1_Request_Catalog", "EDP1_No_Category_Nav",
			},
			WonDealWeight: 0.25,
		},
		{
			ID:          ProductDataDecay,
			Name:        "Product Data Decay",
			Description: "Pricing, imagery and specifications that are missing or out of date.",
			Indicators: []string{
				"EDP2_Call_For_Pricing", "EDP2_Missing_Images", "EDP2_Stale_Content",
				"EDP2_No_Spec_Sheets",
			},
			WonDealWeight: 0.08,
		},
		{
			ID:          TechnologyObsolescence,
			Name:        "Technology Obsolescence",
			Description: "A web stack that has fallen behind buyer expectations.",
			Indicators: []string{
				"EDP3_No_Viewport", "EDP3_Old_Copyright", "EDP3_Legacy_Tech",
				"EDP3_No_Modern_Framework", "EDP3_Slow_Or_Heavy",
			},
			WonDealWeight: 0.20,
		},
		{
			ID:          ChannelConflict,
			Name:        "Channel Conflict",
			Description: "Dealers, distributors and direct sales competing for the same buyer.",
			Indicators: []string{
				"EDP6_Dealer_Locator", "EDP6_Direct_Ecommerce", "EDP6_MAP_Policy",
				"EDP6_Multiple_Brands",
			},
			WonDealWeight: 0.12,
		},
		{
			ID:          SalesEnablement,
			Name:        "Sales Enablement Collapse",
			Description: "Reps and buyers lack self-service tools to find and order products.",
			Indicators: []string{
				"EDP7_No_Search", "EDP7_No_Mobile", "EDP7_Has_SSL",
				"EDP7_No_Rep_Portal", "EDP7_No_Online_Ordering",
			},
			WonDealWeight: 0.35,
		},
	}
}

// Default returns a registry of the built-in definitions.
func Default() *Registry {
	r, err := NewRegistry(DefaultDefinitions())
	if err != nil {
		panic(err) // built-in set is valid
	}
	return r
}
