// Package catalog holds the fixed set of background-removal algorithms the
// service can dispatch to, with the family/variant pair and capability flags
// each one resolves to.
package catalog

import (
	"sort"

	"rembgd/pkg/types"
)

// Family groups algorithms that share a provider implementation.
type Family string

const (
	FamilyCarveKit   Family = "carvekit"
	FamilyBRIA       Family = "bria"
	FamilyInSPyReNet Family = "inspyrenet"
	FamilyRembg      Family = "rembg"
)

// DefaultID is used when a request does not name an algorithm.
const DefaultID = "carvekit-tracer"

// Spec describes one algorithm identifier.
//
// Accelerated is an explicit capability flag: only accelerated algorithms
// contend for the accelerator gate. It is never inferred from the name.
type Spec struct {
	ID          string
	Family      Family
	Variant     string
	Accelerated bool
}

// specs is ordered as reported by /health.
var specs = []Spec{
	{ID: "carvekit-tracer", Family: FamilyCarveKit, Variant: "tracer", Accelerated: true},
	{ID: "carvekit-u2net", Family: FamilyCarveKit, Variant: "u2net", Accelerated: true},
	{ID: "carvekit-basnet", Family: FamilyCarveKit, Variant: "basnet", Accelerated: true},
	{ID: "carvekit-deeplab", Family: FamilyCarveKit, Variant: "deeplab", Accelerated: true},
	{ID: "bria", Family: FamilyBRIA, Variant: "rmbg-1.4", Accelerated: false},
	{ID: "inspyrenet", Family: FamilyInSPyReNet, Variant: "base", Accelerated: true},
	{ID: "rembg-u2net", Family: FamilyRembg, Variant: "u2net", Accelerated: false},
	{ID: "rembg-u2net-human", Family: FamilyRembg, Variant: "u2net_human_seg", Accelerated: false},
	{ID: "rembg-isnet", Family: FamilyRembg, Variant: "isnet-general-use", Accelerated: false},
	{ID: "rembg-isnet-anime", Family: FamilyRembg, Variant: "isnet-anime", Accelerated: false},
}

var byID = func() map[string]Spec {
	m := make(map[string]Spec, len(specs))
	for _, s := range specs {
		m[s.ID] = s
	}
	return m
}()

// Lookup resolves an identifier to its Spec.
func Lookup(id string) (Spec, bool) {
	s, ok := byID[id]
	return s, ok
}

// All returns a copy of every Spec in catalog order.
func All() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// IDs returns every algorithm identifier in catalog order.
func IDs() []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.ID)
	}
	return out
}

// Families returns the distinct families, sorted.
func Families() []Family {
	seen := map[Family]struct{}{}
	var out []Family
	for _, s := range specs {
		if _, ok := seen[s.Family]; ok {
			continue
		}
		seen[s.Family] = struct{}{}
		out = append(out, s.Family)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Algorithms projects the catalog into API payloads.
func Algorithms() []types.Algorithm {
	out := make([]types.Algorithm, 0, len(specs))
	for _, s := range specs {
		out = append(out, types.Algorithm{ID: s.ID, Family: string(s.Family), Variant: s.Variant, Accelerated: s.Accelerated})
	}
	return out
}
