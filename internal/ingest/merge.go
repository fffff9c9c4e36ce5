package ingest

import "github.com/roach88/viewstore/internal/record"

// batch holds the validated lines of one partition, unique by dedup key.
type batch struct {
	key   string
	lines []string
	index map[string]int // dedup key -> position in lines
}

func newBatch(key string) *batch {
	return &batch{key: key, index: make(map[string]int)}
}

// add appends line, or replaces the earlier line with the same dedup key in
// place. Reports whether line superseded an earlier one.
func (b *batch) add(line string) bool {
	k := record.Key(line)
	if i, ok := b.index[k]; ok {
		b.lines[i] = line
		return true
	}
	b.index[k] = len(b.lines)
	b.lines = append(b.lines, line)
	return false
}

// merge returns the batch lines followed by the stored lines whose dedup
// keys the batch does not carry. Stored lines repeating a key already kept
// are dropped as well. replaced counts only stored lines superseded by a
// batch line.
func (b *batch) merge(stored []string) (merged []string, retained, replaced int) {
	merged = make([]string, 0, len(b.lines)+len(stored))
	merged = append(merged, b.lines...)

	seen := make(map[string]struct{}, len(stored))
	for _, line := range stored {
		k := record.Key(line)
		if _, ok := b.index[k]; ok {
			replaced++
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, line)
		retained++
	}
	return merged, retained, replaced
}

// batches groups lines by partition key, remembering the order in which
// partitions first appear.
type batches struct {
	order []*batch
	byKey map[string]*batch
}

func newBatches() *batches {
	return &batches{byKey: make(map[string]*batch)}
}

func (bs *batches) add(line string) bool {
	key := record.PartitionKey(line)
	b, ok := bs.byKey[key]
	if !ok {
		b = newBatch(key)
		bs.byKey[key] = b
		bs.order = append(bs.order, b)
	}
	return b.add(line)
}
