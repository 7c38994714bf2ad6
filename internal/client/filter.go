package client

import (
	"fmt"
	"strings"
	"time"
)

// Filters accumulates OData predicate fragments and joins them with a
// logical AND. Literal-value quoting is the caller's responsibility; no
// parsing or validation of the fragments is attempted.
type Filters struct {
	parts []string
}

// Add appends a predicate fragment. Empty fragments are ignored.
func (f *Filters) Add(expr string) {
	if expr != "" {
		f.parts = append(f.parts, expr)
	}
}

// Addf appends a formatted predicate fragment.
func (f *Filters) Addf(format string, args ...interface{}) {
	f.Add(fmt.Sprintf(format, args...))
}

// Empty returns true if no fragments have been added.
func (f *Filters) Empty() bool {
	return len(f.parts) == 0
}

// String joins the fragments with " and ". An empty set yields "" and the
// caller must then omit the $filter parameter entirely.
func (f *Filters) String() string {
	return strings.Join(f.parts, " and ")
}

// DaysAgoUTC returns an ISO 8601 UTC timestamp N days in the past, suitable
// for date-range predicates like "FailureDate ge <ts>".
func DaysAgoUTC(days int) string {
	return time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02T15:04:05Z")
}
