package etl

// DefaultChunkSize bounds the number of rows carried by a single bulk write.
const DefaultChunkSize = 500

// Chunk splits rows into groups of at most size consecutive rows. Groups
// cover the input exactly once, in order, with no row duplicated or dropped.
// An empty input yields zero groups. A non-positive size falls back to
// DefaultChunkSize.
func Chunk(rows []Row, size int) [][]Row {
	if size < 1 {
		size = DefaultChunkSize
	}
	if len(rows) == 0 {
		return nil
	}

	groups := make([][]Row, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		groups = append(groups, rows[start:end])
	}
	return groups
}
