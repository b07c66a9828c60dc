package model

import "time"

// Health is the severity annotation of one report row.
// OK < Caution < Warning; Unknown and NA sit outside that ordering.
type Health int

const (
	HealthNA Health = iota
	HealthOK
	HealthCaution
	HealthWarning
	HealthUnknown
)

func (h Health) String() string {
	switch h {
	case HealthOK:
		return "OK"
	case HealthCaution:
		return "Caution"
	case HealthWarning:
		return "Warning"
	case HealthUnknown:
		return "Unknown"
	default:
		return "N/A"
	}
}

// Rank orders evaluated healths by severity: OK 0, Caution 1, Warning 2.
// NA and Unknown rank -1.
func (h Health) Rank() int {
	switch h {
	case HealthOK:
		return 0
	case HealthCaution:
		return 1
	case HealthWarning:
		return 2
	default:
		return -1
	}
}

// Worse returns the more severe of h and other.
func (h Health) Worse(other Health) Health {
	if other.Rank() > h.Rank() {
		return other
	}
	return h
}

// Report categories, in display order.
const (
	CategoryServer     = "Server"
	CategoryPorts      = "Ports"
	CategoryResources  = "Resources"
	CategoryDeployment = "Deployment"
	CategoryCluster    = "Cluster"
	CategoryCounts     = "Counts"
)

// Row is one line of a health report.
type Row struct {
	Category string
	Name     string
	Health   Health
	Value    string
}

// Report is an ordered health report for one instance. Row order is the
// display and export order.
type Report struct {
	Instance    string
	GeneratedAt time.Time
	Rows        []Row
}

// Find returns the first row with the given category and name.
func (r *Report) Find(category, name string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Category == category && row.Name == name {
			return row, true
		}
	}
	return Row{}, false
}

// Worst returns the most severe evaluated health in the report, or HealthOK
// when nothing was evaluated.
func (r *Report) Worst() Health {
	worst := HealthOK
	for _, row := range r.Rows {
		worst = worst.Worse(row.Health)
	}
	return worst
}

// Count returns how many rows carry health h.
func (r *Report) Count(h Health) int {
	n := 0
	for _, row := range r.Rows {
		if row.Health == h {
			n++
		}
	}
	return n
}
