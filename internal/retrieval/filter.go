package retrieval

import (
	"strings"

	"github.com/wattsjs/askcisco/internal/index"
)

// Sentinel filter values sent by clients to mean "no constraint". They are
// treated exactly like an unset field.
const (
	AllProducts = "All Products"
	AllVersions = "All Versions"
)

// Filter narrows retrieval to documents tagged with a product and/or version.
type Filter struct {
	Product string `json:"product,omitempty"`
	Version string `json:"version,omitempty"`
}

// productSet reports whether the filter carries a real product constraint.
func (f Filter) productSet() bool {
	p := strings.TrimSpace(f.Product)
	return p != "" && p != AllProducts
}

// versionSet reports whether the filter carries a real version constraint.
func (f Filter) versionSet() bool {
	v := strings.TrimSpace(f.Version)
	return v != "" && v != AllVersions
}

// Predicate builds the metadata predicate for this filter.
//
// A version constraint also admits documents with no version tags at all:
// untagged content is applicable to every version. Product matching is
// case-insensitive; the index stores product tags lowercased.
//
// When no constraint is set the predicate excludes documents flagged
// outdated. An explicit product or version filter skips that exclusion,
// since an outdated document may be the only match for an old release.
func (f Filter) Predicate() index.Predicate {
	var conds []index.Predicate

	if f.productSet() {
		product := strings.ToLower(strings.TrimSpace(f.Product))
		conds = append(conds, index.Or{Preds: []index.Predicate{
			index.FieldEquals{Key: "metadata.product", Value: product},
			index.FieldContains{Key: "metadata.products", Value: product},
		}})
	}

	if f.versionSet() {
		version := strings.TrimSpace(f.Version)
		conds = append(conds, index.Or{Preds: []index.Predicate{
			index.FieldEquals{Key: "metadata.version", Value: version},
			index.FieldContains{Key: "metadata.versions", Value: version},
			index.And{Preds: []index.Predicate{
				index.FieldEmpty{Key: "metadata.version"},
				index.FieldEmpty{Key: "metadata.versions"},
			}},
		}})
	}

	switch len(conds) {
	case 0:
		return index.Not{Pred: index.FieldEquals{Key: "metadata.outdated", Value: true}}
	case 1:
		return conds[0]
	default:
		return index.And{Preds: conds}
	}
}
