package model

// Table is a detail view of one snapshot list: apps, inputs, cluster peers
// and the like. Known is false when the endpoint behind it failed.
type Table struct {
	Name    string
	Title   string
	Columns []string
	Rows    [][]string
	Known   bool
}
