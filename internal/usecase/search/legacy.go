package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kailas-cloud/grclookup/internal/domain"
	"github.com/kailas-cloud/grclookup/internal/domain/application"
	"github.com/kailas-cloud/grclookup/internal/domain/field"
	"github.com/kailas-cloud/grclookup/internal/domain/search/protocol"
	"github.com/kailas-cloud/grclookup/internal/domain/search/query"
	"github.com/kailas-cloud/grclookup/internal/domain/search/result"
)

// DefaultMaxQueryLength keeps encoded content API query strings under common URL limits.
const DefaultMaxQueryLength = 2000

const contentAPIPrefix = "contentapi"

// Legacy searches through the OData-style content API.
type Legacy struct {
	transport      Transport
	endpoints      EndpointResolver
	maxQueryLength int
}

// NewLegacy creates the legacy filter search strategy.
func NewLegacy(t Transport, endpoints EndpointResolver) *Legacy {
	return &Legacy{transport: t, endpoints: endpoints, maxQueryLength: DefaultMaxQueryLength}
}

// WithMaxQueryLength configures the encoded query length limit used to split batches.
func (l *Legacy) WithMaxQueryLength(n int) *Legacy {
	if n > 0 {
		l.maxQueryLength = n
	}
	return l
}

// Protocol implements Strategy.
func (l *Legacy) Protocol() protocol.Protocol { return protocol.Legacy }

// Search implements Strategy. The filter compares the field's content API
// property against the display value.
func (l *Legacy) Search(ctx context.Context, q query.Query) (result.IDs, error) {
	ep, err := l.endpoints.Endpoint(ctx, q.App.Name())
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("$filter", equals(q.Field.ContentProperty(), q.Value.Raw))
	params.Set("$select", ep.IDProperty())

	rows, err := l.fetch(ctx, "legacy_search", ep, params)
	if err != nil {
		return nil, err
	}
	return recordIDs("legacy_search", rows, ep.IDProperty())
}

// CanBatch implements BatchStrategy. Only text fields come back as plain
// strings that can be matched to the input values.
func (l *Legacy) CanBatch(fld field.Definition) bool {
	return fld.FieldType() == field.Text
}

// SearchBatch implements BatchStrategy. Values are OR-ed into as few requests as
// the query length limit allows; each returned row is attributed to an input by
// its field value, never by position.
func (l *Legacy) SearchBatch(ctx context.Context, base query.Query, values []string) (map[string]result.IDs, error) {
	if !l.CanBatch(base.Field) {
		return nil, fmt.Errorf("legacy batch on %s field %q: %w",
			base.Field.FieldType(), base.Field.DisplayName(), domain.ErrUnsupportedField)
	}
	ep, err := l.endpoints.Endpoint(ctx, base.App.Name())
	if err != nil {
		return nil, err
	}

	prop := base.Field.ContentProperty()
	out := make(map[string]result.IDs, len(values))
	for _, v := range values {
		out[v] = nil
	}

	for _, group := range l.split(prop, ep, values) {
		params := batchParams(prop, ep, group)
		rows, err := l.fetch(ctx, "legacy_batch", ep, params)
		if err != nil {
			return nil, err
		}
		if err := attribute(out, rows, prop, ep, group); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// split packs values into groups whose encoded query stays under the limit.
// Values equal under case folding never share a group: a server that folds case
// returns the same rows for both, and those rows must count toward each of them.
// A single value that alone exceeds the limit still gets its own group.
func (l *Legacy) split(prop string, ep application.Endpoint, values []string) [][]string {
	var groups [][]string
	for _, layer := range foldLayers(values) {
		var cur []string
		for _, v := range layer {
			next := append(cur[:len(cur):len(cur)], v)
			if len(cur) > 0 && len(batchParams(prop, ep, next).Encode()) > l.maxQueryLength {
				groups = append(groups, cur)
				cur = []string{v}
				continue
			}
			cur = next
		}
		if len(cur) > 0 {
			groups = append(groups, cur)
		}
	}
	return groups
}

// foldLayers distributes values so that no layer holds two values equal under
// strings.EqualFold. Input order is kept within each layer.
func foldLayers(values []string) [][]string {
	var layers [][]string
	for _, v := range values {
		placed := false
		for i, layer := range layers {
			if !containsFold(layer, v) {
				layers[i] = append(layer, v)
				placed = true
				break
			}
		}
		if !placed {
			layers = append(layers, []string{v})
		}
	}
	return layers
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func (l *Legacy) fetch(ctx context.Context, op string, ep application.Endpoint, params url.Values) ([]row, error) {
	status, raw, err := l.transport.Do(ctx, op, http.MethodGet, contentAPIPrefix+"/"+ep.URL, params, nil)
	if err != nil {
		return nil, err //nolint:wrapcheck // transport errors are already typed
	}
	if status >= http.StatusBadRequest {
		return nil, domain.NewTransportError(op, status, errors.New(snippet(raw)))
	}
	return decodeRows(op, raw)
}

func batchParams(prop string, ep application.Endpoint, values []string) url.Values {
	terms := make([]string, len(values))
	for i, v := range values {
		terms[i] = equals(prop, v)
	}
	params := url.Values{}
	params.Set("$filter", strings.Join(terms, " or "))
	params.Set("$select", ep.IDProperty()+","+prop)
	return params
}

func attribute(out map[string]result.IDs, rows []row, prop string, ep application.Endpoint, group []string) error {
	for i, r := range rows {
		id, err := r.recordID(ep.IDProperty())
		if err != nil {
			return fmt.Errorf("legacy_batch: row %d: %w", i, err)
		}
		got, ok := r.stringProp(prop)
		if !ok {
			return fmt.Errorf("legacy_batch: row %d lacks %s: %w", i, prop, domain.ErrProtocolDecode)
		}
		key, ok := matchValue(got, group)
		if !ok {
			return fmt.Errorf("legacy_batch: row %d value %q matches no requested value: %w",
				i, got, domain.ErrProtocolDecode)
		}
		out[key] = append(out[key], id)
	}
	return nil
}

// matchValue finds the requested value a returned field value belongs to.
// Groups never hold two case-folded equals, so at most one member matches; a
// server that folds case returns rows spelled differently from the input.
func matchValue(got string, group []string) (string, bool) {
	for _, v := range group {
		if strings.EqualFold(v, got) {
			return v, true
		}
	}
	return "", false
}

// equals builds an OData equality term; single quotes are escaped by doubling.
func equals(prop, value string) string {
	return prop + " eq '" + strings.ReplaceAll(value, "'", "''") + "'"
}
