// Package journal keeps an audit log of import runs in SQLite.
//
// Every import that reaches the merge step is recorded as one row in
// import_runs, with one row per affected partition in import_partitions
// and one row per rejected source line in rejected_lines. The datastore
// itself never depends on the journal: a missing or deleted journal loses
// history, not data.
//
// Status values:
//   - ok: every partition was written
//   - partial: some partitions were written before a write failed
//   - failed: nothing was written
package journal
