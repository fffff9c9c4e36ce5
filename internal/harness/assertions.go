package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/viewstore/internal/record"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion against the final partitions
// in result and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertPartitionContains:
			err = assertPartitionContains(result.Partitions, a)
		case AssertPartitionAbsent:
			err = assertPartitionAbsent(result.Partitions, a)
		case AssertPartitionCount:
			err = assertPartitionCount(result.Partitions, a)
		case AssertUniqueKeys:
			err = assertUniqueKeys(result.Partitions)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func assertPartitionContains(partitions map[string][]string, a Assertion) error {
	if slices.Contains(partitions[a.Partition], a.Line) {
		return nil
	}
	return &AssertionError{
		Type:     AssertPartitionContains,
		Expected: fmt.Sprintf("partition %s contains %q", a.Partition, a.Line),
		Actual:   fmt.Sprintf("%q", partitions[a.Partition]),
	}
}

// assertPartitionAbsent checks by dedup key, so any line for the same
// (stb, title, date) fails it.
func assertPartitionAbsent(partitions map[string][]string, a Assertion) error {
	key := record.Key(a.Line)
	for _, line := range partitions[a.Partition] {
		if record.Key(line) == key {
			return &AssertionError{
				Type:     AssertPartitionAbsent,
				Expected: fmt.Sprintf("no line with key %q in partition %s", key, a.Partition),
				Actual:   fmt.Sprintf("found %q", line),
			}
		}
	}
	return nil
}

func assertPartitionCount(partitions map[string][]string, a Assertion) error {
	got := len(partitions[a.Partition])
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertPartitionCount,
		Expected: fmt.Sprintf("partition %s has %d lines", a.Partition, a.Count),
		Actual:   fmt.Sprintf("%d lines", got),
	}
}

func assertUniqueKeys(partitions map[string][]string) error {
	keys := make([]string, 0, len(partitions))
	for k := range partitions {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, partition := range keys {
		seen := make(map[string]int)
		for i, line := range partitions[partition] {
			k := record.Key(line)
			if first, ok := seen[k]; ok {
				return &AssertionError{
					Type:     AssertUniqueKeys,
					Expected: "every dedup key at most once per partition",
					Actual:   fmt.Sprintf("partition %s lines %d and %d share key %q", partition, first+1, i+1, k),
				}
			}
			seen[k] = i
		}
	}
	return nil
}
