// Package index provides the vector index client and the predicate algebra
// used to filter similarity searches by document metadata.
//
// Predicates are a small tagged algebra (And, Or, Not, FieldEquals,
// FieldContains, FieldEmpty) translated to the Qdrant filter JSON by a pure
// function, so filter construction stays testable without a live index.
package index

// Predicate is a boolean filter expression over document payload fields.
// Implementations are the algebra's node types; translation to the index's
// query language happens in FilterJSON.
type Predicate interface {
	isPredicate()
}

// And requires every child predicate to hold.
type And struct {
	Preds []Predicate
}

// Or requires at least one child predicate to hold.
type Or struct {
	Preds []Predicate
}

// Not requires the child predicate not to hold.
type Not struct {
	Pred Predicate
}

// FieldEquals matches documents whose payload field equals the value.
type FieldEquals struct {
	Key   string
	Value any
}

// FieldContains matches documents whose array payload field contains the value.
type FieldContains struct {
	Key   string
	Value string
}

// FieldEmpty matches documents whose payload field is absent, null, or an
// empty array.
type FieldEmpty struct {
	Key string
}

func (And) isPredicate()           {}
func (Or) isPredicate()            {}
func (Not) isPredicate()           {}
func (FieldEquals) isPredicate()   {}
func (FieldContains) isPredicate() {}
func (FieldEmpty) isPredicate()    {}

// FilterJSON translates a predicate into the Qdrant filter object that goes
// under "filter" in a points search request. A nil predicate yields nil
// (no filtering).
//
// Translation:
//
//	And           -> {"must": [...]}
//	Or            -> {"should": [...]}
//	Not           -> {"must_not": [...]}
//	FieldEquals   -> {"key": k, "match": {"value": v}}
//	FieldContains -> {"key": k, "match": {"any": [v]}}
//	FieldEmpty    -> {"is_empty": {"key": k}}
func FilterJSON(p Predicate) map[string]any {
	if p == nil {
		return nil
	}
	// The top level of a Qdrant filter is already a boolean clause object, so
	// And maps directly onto it; anything else is wrapped in a single "must".
	if and, ok := p.(And); ok {
		return map[string]any{"must": translateAll(and.Preds)}
	}
	return map[string]any{"must": []any{translate(p)}}
}

// translate converts one predicate node into its Qdrant condition object.
func translate(p Predicate) any {
	switch n := p.(type) {
	case And:
		return map[string]any{"must": translateAll(n.Preds)}
	case Or:
		return map[string]any{"should": translateAll(n.Preds)}
	case Not:
		return map[string]any{"must_not": []any{translate(n.Pred)}}
	case FieldEquals:
		return map[string]any{
			"key":   n.Key,
			"match": map[string]any{"value": n.Value},
		}
	case FieldContains:
		return map[string]any{
			"key":   n.Key,
			"match": map[string]any{"any": []any{n.Value}},
		}
	case FieldEmpty:
		return map[string]any{"is_empty": map[string]any{"key": n.Key}}
	default:
		// All algebra types are covered above; a new node type must be added
		// here before it can be used.
		panic("index: unknown predicate type")
	}
}

func translateAll(preds []Predicate) []any {
	out := make([]any, len(preds))
	for i, p := range preds {
		out[i] = translate(p)
	}
	return out
}
