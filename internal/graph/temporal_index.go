package graph

import "sort"

// TemporalIndex answers correlation-window range queries in O(k + log n)
// (spec §4.C): an ascending slice of distinct timestamps backs binary
// search for the window bounds, and each timestamp maps to the (small) set
// of event ids observed at that instant. No pack library offers an ordered
// int64-keyed map, so this is built on the standard library's sort package
// (see DESIGN.md).
type TemporalIndex struct {
	timestamps []int64
	byTs       map[int64][]string
}

func NewTemporalIndex() *TemporalIndex {
	return &TemporalIndex{byTs: make(map[int64][]string)}
}

// Put records that event id was observed at timestamp ts.
func (idx *TemporalIndex) Put(ts int64, id string) {
	if _, exists := idx.byTs[ts]; !exists {
		i := sort.Search(len(idx.timestamps), func(i int) bool { return idx.timestamps[i] >= ts })
		idx.timestamps = append(idx.timestamps, 0)
		copy(idx.timestamps[i+1:], idx.timestamps[i:])
		idx.timestamps[i] = ts
	}
	idx.byTs[ts] = append(idx.byTs[ts], id)
}

// Remove drops id from the timestamp bucket, and drops the bucket itself
// (and its slot in the sorted timestamp slice) once empty.
func (idx *TemporalIndex) Remove(ts int64, id string) {
	ids, ok := idx.byTs[ts]
	if !ok {
		return
	}
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(idx.byTs, ts)
		i := sort.Search(len(idx.timestamps), func(i int) bool { return idx.timestamps[i] >= ts })
		if i < len(idx.timestamps) && idx.timestamps[i] == ts {
			idx.timestamps = append(idx.timestamps[:i], idx.timestamps[i+1:]...)
		}
		return
	}
	idx.byTs[ts] = ids
}

// Range returns every event id observed in [lo, hi] inclusive, in
// timestamp-ascending order.
func (idx *TemporalIndex) Range(lo, hi int64) []string {
	if lo > hi || len(idx.timestamps) == 0 {
		return nil
	}
	start := sort.Search(len(idx.timestamps), func(i int) bool { return idx.timestamps[i] >= lo })
	var out []string
	for i := start; i < len(idx.timestamps) && idx.timestamps[i] <= hi; i++ {
		out = append(out, idx.byTs[idx.timestamps[i]]...)
	}
	return out
}
