package search

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grclookup/internal/domain"
	"github.com/kailas-cloud/grclookup/internal/domain/search/protocol"
	"github.com/kailas-cloud/grclookup/internal/domain/search/query"
	"github.com/kailas-cloud/grclookup/internal/domain/search/result"
	"github.com/kailas-cloud/grclookup/internal/logger"
	"github.com/kailas-cloud/grclookup/internal/usecase/capability"
)

// DefaultPageSize is enough to tell 0, 1 and 2+ matches apart.
const DefaultPageSize = 2

// maxAmbiguityPages bounds the follow-up paging used to list every id of an ambiguous value.
// Past it the list is cut short and a warning is logged.
const maxAmbiguityPages = 50

type fastSearchRequest struct {
	ModuleID     int          `json:"ModuleId"`
	Page         fastPage     `json:"Page"`
	Filters      []fastFilter `json:"Filters"`
	ReturnFields []string     `json:"ReturnFields"`
}

type fastPage struct {
	Start int `json:"Start"`
	Size  int `json:"Size"`
}

type fastFilter struct {
	FieldID  int    `json:"FieldId"`
	Operator string `json:"Operator"`
	Value    any    `json:"Value"`
}

// Fast searches through the structured record search endpoint.
type Fast struct {
	transport  Transport
	pageSize   int
	collectAll bool
}

// NewFast creates the fast search strategy.
func NewFast(t Transport) *Fast {
	return &Fast{transport: t, pageSize: DefaultPageSize, collectAll: true}
}

// WithPageSize configures the first page size (minimum 2).
func (f *Fast) WithPageSize(size int) *Fast {
	if size >= DefaultPageSize {
		f.pageSize = size
	}
	return f
}

// WithCollectAll controls whether an ambiguous value is paged until every id is known.
// Paging stops after maxAmbiguityPages pages (100 ids at the default page size).
// When false, an ambiguous result carries only the first page.
func (f *Fast) WithCollectAll(collect bool) *Fast {
	f.collectAll = collect
	return f
}

// Protocol implements Strategy.
func (f *Fast) Protocol() protocol.Protocol { return protocol.Fast }

// Search implements Strategy. Values-list fields are compared by internal value id.
func (f *Fast) Search(ctx context.Context, q query.Query) (result.IDs, error) {
	if q.Field.IsValuesList() {
		if _, ok := q.Value.ValueID(); !ok {
			return nil, errors.New("fast search: values list value was not translated")
		}
	}

	var ids result.IDs
	seen := make(map[int]struct{})
	for page := 0; ; page++ {
		if page == maxAmbiguityPages {
			logger.FromContext(ctx).Warn("ambiguous id list truncated",
				zap.Int("module_id", q.App.ID()),
				zap.Int("field_id", q.Field.ID()),
				zap.Int("pages", maxAmbiguityPages),
				zap.Int("ids", len(ids)),
			)
			break
		}
		batch, err := f.page(ctx, q, page*f.pageSize)
		if err != nil {
			return nil, err
		}
		added := 0
		for _, id := range batch {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			added++
		}
		// A short page is the last one; a page of repeats means the server ignores Start.
		if len(batch) < f.pageSize || added == 0 {
			break
		}
		if len(ids) >= 2 && !f.collectAll {
			break
		}
	}
	return ids, nil
}

func (f *Fast) page(ctx context.Context, q query.Query, start int) (result.IDs, error) {
	body := fastSearchRequest{
		ModuleID: q.App.ID(),
		Page:     fastPage{Start: start, Size: f.pageSize},
		Filters: []fastFilter{{
			FieldID:  q.Field.ID(),
			Operator: "Equals",
			Value:    q.Value.Comparison(),
		}},
		ReturnFields: []string{"Id"},
	}

	status, raw, err := f.transport.Do(ctx, "fast_search", http.MethodPost, capability.SearchPath, nil, body)
	if err != nil {
		return nil, err //nolint:wrapcheck // transport errors are already typed
	}
	if status >= http.StatusBadRequest {
		return nil, domain.NewTransportError("fast_search", status, errors.New(snippet(raw)))
	}

	rows, err := decodeRows("fast_search", raw)
	if err != nil {
		return nil, err
	}
	return recordIDs("fast_search", rows)
}

func snippet(raw []byte) string {
	const limit = 256
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
