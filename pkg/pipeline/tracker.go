package pipeline

// AlreadyDone reads the persisted result store and returns the set of
// identifiers already represented. A freshly-opened empty store yields an
// empty set; absence of the store file is handled at open time and is not
// an error.
func AlreadyDone(store interface{ Identifiers() map[string]struct{} }) map[string]struct{} {
	if store == nil {
		return map[string]struct{}{}
	}
	return store.Identifiers()
}

// Remaining filters the work-unit list to exclude identifiers in done,
// preserving order. Idempotent: the same store always yields the same
// remaining list.
func Remaining(units []string, done map[string]struct{}) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		if _, ok := done[u]; ok {
			continue
		}
		out = append(out, u)
	}
	return out
}

// PartitionBatches splits remaining units into ceil(len/size) contiguous
// batches in original order. Boundaries never reorder or deduplicate.
func PartitionBatches(units []string, size int) [][]string {
	if size <= 0 || len(units) == 0 {
		if len(units) == 0 {
			return nil
		}
		return [][]string{units}
	}

	batches := make([][]string, 0, (len(units)+size-1)/size)
	for start := 0; start < len(units); start += size {
		end := start + size
		if end > len(units) {
			end = len(units)
		}
		batches = append(batches, units[start:end])
	}
	return batches
}
