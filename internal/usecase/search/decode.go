package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/grclookup/internal/domain"
	"github.com/kailas-cloud/grclookup/internal/domain/search/result"
)

// row is one decoded record object from either protocol.
type row map[string]json.RawMessage

// decodeRows accepts a bare array, an OData {"value": [...]} wrapper,
// or a single top-level record object.
func decodeRows(op string, raw []byte) ([]row, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: empty body: %w", op, domain.ErrProtocolDecode)
	}

	switch raw[0] {
	case '[':
		var rows []row
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrProtocolDecode, err)
		}
		return rows, nil
	case '{':
		var obj row
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrProtocolDecode, err)
		}
		if v, ok := obj["value"]; ok {
			var rows []row
			if err := json.Unmarshal(v, &rows); err != nil {
				return nil, fmt.Errorf("%s: value is not a list: %w: %w", op, domain.ErrProtocolDecode, err)
			}
			return rows, nil
		}
		if _, ok := obj["RequestedObject"]; ok {
			return []row{obj}, nil
		}
		return nil, fmt.Errorf("%s: unrecognized object shape: %w", op, domain.ErrProtocolDecode)
	default:
		return nil, fmt.Errorf("%s: unrecognized body: %w", op, domain.ErrProtocolDecode)
	}
}

// recordID extracts the record id of r. preferred names are tried first,
// then RequestedObject.Id, Id, and finally any property ending in "_Id".
func (r row) recordID(preferred ...string) (int, error) {
	for _, name := range preferred {
		if v, ok := r[name]; ok {
			return parseID(name, v)
		}
	}
	if v, ok := r["RequestedObject"]; ok {
		var inner row
		if err := json.Unmarshal(v, &inner); err == nil {
			if id, ok := inner["Id"]; ok {
				return parseID("RequestedObject.Id", id)
			}
		}
	}
	if v, ok := r["Id"]; ok {
		return parseID("Id", v)
	}

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasSuffix(strings.ToLower(k), "_id") {
			return parseID(k, r[k])
		}
	}
	return 0, fmt.Errorf("record has no id property: %w", domain.ErrProtocolDecode)
}

// stringProp returns a string-valued property of r.
func (r row) stringProp(name string) (string, bool) {
	v, ok := r[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

func parseID(name string, v json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, fmt.Errorf("id property %s is not numeric: %w", name, domain.ErrProtocolDecode)
		}
		n = json.Number(s)
	}
	id, err := strconv.Atoi(n.String())
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id property %s=%s is not a record id: %w", name, n, domain.ErrProtocolDecode)
	}
	return id, nil
}

// recordIDs extracts the id of every row.
func recordIDs(op string, rows []row, preferred ...string) (result.IDs, error) {
	ids := make(result.IDs, 0, len(rows))
	for i, r := range rows {
		id, err := r.recordID(preferred...)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
