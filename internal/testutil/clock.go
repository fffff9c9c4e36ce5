package testutil

import "time"

// Epoch is the instant FixedClock reports unless told otherwise.
var Epoch = time.Date(2017, 7, 28, 9, 0, 0, 0, time.UTC)

// FixedClock returns a func that always reports t, for use wherever a
// component takes a Now func.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
