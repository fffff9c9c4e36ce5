package harness

import "github.com/roach88/viewstore/internal/ingest"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Output is the query output, empty when the scenario has no query.
	Output []string `json:"output"`

	// Partitions is the final content of every partition.
	Partitions map[string][]string `json:"partitions"`

	// Reports holds one import report per import, in order.
	Reports []*ingest.Report `json:"reports,omitempty"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Output:     []string{},
		Partitions: make(map[string][]string),
		Errors:     []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Rejected returns the number of rejected lines across all imports.
func (r *Result) Rejected() int {
	n := 0
	for _, rep := range r.Reports {
		n += len(rep.Rejected)
	}
	return n
}

// Duplicates returns the number of in-source duplicates across all imports.
func (r *Result) Duplicates() int {
	n := 0
	for _, rep := range r.Reports {
		n += rep.Duplicates
	}
	return n
}
