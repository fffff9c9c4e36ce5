// Package query answers select/order/filter queries over the datastore.
//
// A query runs in a fixed pipeline:
//
//  1. The date condition of the filter picks partitions by glob (default "*").
//  2. Every line of a matching partition is read.
//  3. Remaining conditions keep lines whose raw field equals the value,
//     ignoring case. Conditions are ANDed. Comparison is textual, so
//     rev=4 does not match a stored 4.00.
//  4. Surviving lines are decoded.
//  5. If an order is given, records are stably sorted by it.
//  6. Each record is projected onto the select list.
//
// Filtering happens on raw text before decoding, so a filter never
// matches on the formatted output representation.
package query
