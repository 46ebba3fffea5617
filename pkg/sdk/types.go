package grclookup

import (
	domlookup "github.com/kailas-cloud/grclookup/internal/domain/lookup"
	"github.com/kailas-cloud/grclookup/internal/domain/search/protocol"
)

// Protocol names the search variant a session uses.
type Protocol string

// Protocol constants.
const (
	ProtocolFast   Protocol = Protocol(protocol.Fast)
	ProtocolLegacy Protocol = Protocol(protocol.Legacy)
)

// BulkResult maps every distinct input value to its record id.
// Values that matched no record are present with no id.
type BulkResult struct {
	values []string
	ids    map[string]int
}

func newBulkResult(r *domlookup.Result) *BulkResult {
	out := &BulkResult{
		values: r.Values(),
		ids:    make(map[string]int, r.Found()),
	}
	for _, v := range out.values {
		if id, ok := r.Get(v); ok {
			out.ids[v] = id
		}
	}
	return out
}

// Get returns the record id of value and whether it was found.
func (b *BulkResult) Get(value string) (int, bool) {
	id, ok := b.ids[value]
	return id, ok
}

// Values returns the distinct input values in first-seen order.
func (b *BulkResult) Values() []string { return b.values }

// Len returns the number of distinct input values.
func (b *BulkResult) Len() int { return len(b.values) }

// Found returns how many values resolved to a record.
func (b *BulkResult) Found() int { return len(b.ids) }

// Map returns value → id, with nil for values that matched nothing.
func (b *BulkResult) Map() map[string]*int {
	out := make(map[string]*int, len(b.values))
	for _, v := range b.values {
		if id, ok := b.ids[v]; ok {
			out[v] = &id
			continue
		}
		out[v] = nil
	}
	return out
}
