// Package datastore provides the per-date flat-file store for raw records.
//
// The store is a directory. Each partition is one file named by its
// partition key (a YYYY-MM-DD date), holding one raw record per line with
// no header:
//
//	datastore/
//	  2014-04-01
//	  2014-04-02
//
// Writes replace a partition wholesale: content goes to a temporary file in
// the same directory, is synced, and is renamed over the partition, so a
// reader sees either the old or the new file, never a partial one.
//
// The store assumes exclusive access by a single process. There is no
// locking.
package datastore
