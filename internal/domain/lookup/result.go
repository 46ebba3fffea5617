package lookup

// Result is the completed value -> record id mapping of a bulk lookup.
// It holds exactly one entry per distinct input value, in first-seen order.
type Result struct {
	values []string
	ids    map[string]int
}

// NewResult creates an empty mapping over the given distinct values.
func NewResult(values []string) *Result {
	return &Result{values: values, ids: make(map[string]int, len(values))}
}

// Set records the unique record id for value.
func (r *Result) Set(value string, id int) { r.ids[value] = id }

// Get returns the record id for value and whether one was found.
func (r *Result) Get(value string) (int, bool) {
	id, ok := r.ids[value]
	return id, ok
}

// Values returns the distinct input values in first-seen order.
func (r *Result) Values() []string { return r.values }

// Len returns the number of distinct input values.
func (r *Result) Len() int { return len(r.values) }

// Found returns how many values resolved to a record.
func (r *Result) Found() int { return len(r.ids) }

// Map returns every input value mapped to its id, or nil when not found.
func (r *Result) Map() map[string]*int {
	out := make(map[string]*int, len(r.values))
	for _, v := range r.values {
		if id, ok := r.ids[v]; ok {
			out[v] = &id
			continue
		}
		out[v] = nil
	}
	return out
}

// Distinct deduplicates values preserving first-seen order.
func Distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Chunk partitions values into consecutive chunks of at most size entries.
func Chunk(values []string, size int) [][]string {
	if size <= 0 || size >= len(values) {
		if len(values) == 0 {
			return nil
		}
		return [][]string{values}
	}
	chunks := make([][]string, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
