package ingest

import "time"

// Report describes the outcome of one import run.
type Report struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`

	// LinesRead counts data lines, excluding the header.
	LinesRead int `json:"lines_read"`

	// Accepted counts lines that passed validation.
	Accepted int `json:"accepted"`

	// Duplicates counts accepted lines superseded by a later line with the
	// same dedup key in the same source file.
	Duplicates int `json:"duplicates"`

	Rejected   []Rejection       `json:"rejected,omitempty"`
	Partitions []PartitionResult `json:"partitions"`
}

// Rejection is a source line that failed validation.
type Rejection struct {
	Line   int    `json:"line"` // 1-based, header is line 1
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// PartitionResult summarises the merge into one partition.
type PartitionResult struct {
	Key string `json:"key"`

	// Imported is the number of lines this run contributed.
	Imported int `json:"imported"`

	// Retained is the number of stored lines kept after the merge.
	Retained int `json:"retained"`

	// Replaced is the number of stored lines dropped because an imported
	// line shares their dedup key.
	Replaced int `json:"replaced"`

	Written bool `json:"written"`
}

// Records returns the number of records written across all partitions.
func (r *Report) Records() int {
	n := 0
	for _, p := range r.Partitions {
		if p.Written {
			n += p.Imported
		}
	}
	return n
}

// WrittenPartitions returns the keys of partitions that were written.
func (r *Report) WrittenPartitions() []string {
	keys := []string{}
	for _, p := range r.Partitions {
		if p.Written {
			keys = append(keys, p.Key)
		}
	}
	return keys
}
