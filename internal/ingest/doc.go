// Package ingest imports viewing-record source files into the datastore.
//
// An import reads a source file, drops its header line, validates every
// remaining line, groups the valid ones by date, and merges each group into
// the partition for that date:
//
//  1. Imported lines come first, in source order.
//  2. Stored lines whose dedup key (stb|title|date) also appears in the
//     import are discarded. The import always wins.
//  3. The remaining stored lines follow, in their stored order.
//
// Invalid lines never reach the store but are not lost either: each one is
// listed in the Report with its line number and the rule it broke.
//
// All merged partitions are computed before anything is written, so a read
// failure leaves the store untouched. Write failures are collected across
// partitions and returned together.
package ingest
