package result

// IDs is the ordered list of record ids one query matched.
type IDs []int

// Kind is the classification of a single lookup.
type Kind string

// Outcome kinds.
const (
	NotFound  Kind = "not_found"
	Unique    Kind = "unique"
	Ambiguous Kind = "ambiguous"
)

// Outcome is the classified result of one lookup.
type Outcome struct {
	kind Kind
	ids  IDs
}

// Classify maps a result list to an outcome by its length.
func Classify(ids IDs) Outcome {
	switch len(ids) {
	case 0:
		return Outcome{kind: NotFound}
	case 1:
		return Outcome{kind: Unique, ids: IDs{ids[0]}}
	default:
		cp := make(IDs, len(ids))
		copy(cp, ids)
		return Outcome{kind: Ambiguous, ids: cp}
	}
}

// Kind returns the outcome kind.
func (o Outcome) Kind() Kind { return o.kind }

// ID returns the matched id when the outcome is Unique.
func (o Outcome) ID() (int, bool) {
	if o.kind != Unique {
		return 0, false
	}
	return o.ids[0], true
}

// IDs returns every matched id (empty for NotFound).
func (o Outcome) IDs() IDs { return o.ids }

// Dedup returns ids with repeats removed, preserving order.
// Servers may repeat a row when a disjunctive filter matches it twice.
func Dedup(ids IDs) IDs {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int]struct{}, len(ids))
	out := make(IDs, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
