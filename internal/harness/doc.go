// Package harness runs end-to-end scenarios against a scratch datastore.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: import_wins
//	description: "An imported line replaces the stored line with the same key"
//	existing:
//	  "2017-01-01":
//	    - "STB1|Show|hbo|2017-01-01|1.00|1:00"
//	imports:
//	  - |
//	    STB|TITLE|PROVIDER|DATE|REV|VIEW_TIME
//	    STB1|Show|hbo|2017-01-01|9.99|1:00
//	query:
//	  select: title,rev
//	  order: rev
//	  filter: date=2017-01-01
//	expect:
//	  output:
//	    - "Show,9.99"
//	  rejected: 0
//	assertions:
//	  - type: partition_count
//	    partition: "2017-01-01"
//	    count: 1
//
// existing is written straight to the datastore, bypassing validation.
// Each entry of imports is a complete source file, header included, and is
// imported in order. query is optional.
//
// # Assertion Types
//
//   - partition_contains: the partition holds the given line
//   - partition_absent: the partition holds no line with the given line's dedup key
//   - partition_count: the partition holds exactly count lines
//   - unique_keys: no partition holds two lines with the same dedup key
//
// # Deterministic Testing
//
// Each scenario runs in a fresh temporary datastore with fixed run IDs and
// a fixed clock, so query output can be compared against golden files.
package harness
