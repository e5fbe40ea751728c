package restore

import "fmt"

// AmbiguousMatch records a name that matched several existing target items.
// The lowest target id was used; the rest were left alone.
type AmbiguousMatch struct {
	Kind     Kind
	Name     string
	TargetID int64
}

// DashboardFailure records one dashboard that could not be restored.
// Dashboard failures do not abort the run; they are reported here.
type DashboardFailure struct {
	ID   int64
	Name string
	Err  error
}

// Report is the outcome of one restore run.
type Report struct {
	CardsCreated      int
	CardsUpdated      int
	DashboardsCreated int
	DashboardsUpdated int
	PlacementsSkipped int

	Ambiguous         []AmbiguousMatch
	DashboardFailures []DashboardFailure
}

// Failed reports whether any dashboard failed.
func (r *Report) Failed() bool {
	return len(r.DashboardFailures) > 0
}

// Summary renders the one-line totals.
func (r *Report) Summary() string {
	return fmt.Sprintf("cards: %d created, %d updated; dashboards: %d created, %d updated, %d failed",
		r.CardsCreated, r.CardsUpdated, r.DashboardsCreated, r.DashboardsUpdated, len(r.DashboardFailures))
}
