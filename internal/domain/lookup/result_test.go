package lookup

import (
	"reflect"
	"testing"
)

func TestDistinct_PreservesFirstSeenOrder(t *testing.T) {
	got := Distinct([]string{"b", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Distinct = %v, want %v", got, want)
	}
}

func TestChunk(t *testing.T) {
	values := []string{"1", "2", "3", "4", "5"}
	tests := []struct {
		size int
		want [][]string
	}{
		{0, [][]string{values}},
		{2, [][]string{{"1", "2"}, {"3", "4"}, {"5"}}},
		{5, [][]string{values}},
		{10, [][]string{values}},
	}
	for _, tc := range tests {
		if got := Chunk(values, tc.size); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Chunk(size=%d) = %v, want %v", tc.size, got, tc.want)
		}
	}
	if got := Chunk(nil, 3); got != nil {
		t.Errorf("Chunk(nil) = %v, want nil", got)
	}
}

// Merging per-chunk answers must equal answering all values at once, for every chunk size.
func TestChunk_MergeRoundTrip(t *testing.T) {
	values := []string{"a", "b", "c", "d", "e", "f", "g"}
	truth := map[string]int{"a": 1, "c": 3, "f": 6}

	want := NewResult(values)
	for v, id := range truth {
		want.Set(v, id)
	}

	for size := 1; size <= len(values)+1; size++ {
		got := NewResult(values)
		for _, chunk := range Chunk(values, size) {
			for _, v := range chunk {
				if id, ok := truth[v]; ok {
					got.Set(v, id)
				}
			}
		}
		if !reflect.DeepEqual(got.Map(), want.Map()) {
			t.Errorf("size %d: merged %v, want %v", size, got.Map(), want.Map())
		}
	}
}

func TestResult_Map(t *testing.T) {
	r := NewResult([]string{"INC-1", "INC-2"})
	r.Set("INC-1", 101)

	m := r.Map()
	if len(m) != 2 {
		t.Fatalf("len = %d, want 2", len(m))
	}
	if m["INC-1"] == nil || *m["INC-1"] != 101 {
		t.Errorf("INC-1 = %v, want 101", m["INC-1"])
	}
	if v, ok := m["INC-2"]; !ok || v != nil {
		t.Errorf("INC-2 = %v (present=%v), want nil entry", v, ok)
	}
	if r.Found() != 1 || r.Len() != 2 {
		t.Errorf("Found/Len = %d/%d, want 1/2", r.Found(), r.Len())
	}
}
