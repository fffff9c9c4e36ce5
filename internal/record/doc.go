// Package record implements the codec for set-top-box viewing records.
//
// A raw record is one line of six fields delimited by '|':
//
//	stb|title|provider|date|rev|view_time
//	stb-1|the matrix|warner bros|2014-04-01|4.00|1:30
//
// The package validates raw lines, decodes them into typed Records, derives
// the dedup key (stb|title|date) and the partition key (date), and renders
// Records back out, either as a canonical raw line or as a comma-separated
// projection of selected fields.
//
// Field dispatch goes through the Field enum. Every Field carries its raw
// column index, a formatter and a comparator, so callers never switch on
// field names.
package record
