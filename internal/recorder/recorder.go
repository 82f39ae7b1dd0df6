package recorder

import "CostOfCapital/internal/model"

// Run roles.
const (
	RoleBaseline = "baseline"
	RoleReform   = "reform"
)

// RunRecord describes one evaluated scenario.
type RunRecord struct {
	ID         string
	Scenario   string
	Role       string // RoleBaseline or RoleReform
	Year       int
	Adjustment string // adjustment source or inline JSON, empty for baseline
}

// Recorder persists run history for later comparison.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecordAggregates(runID, table string, rows []model.AggregateRow) error
	RecordDiff(comparisonID, scenario string, rows []model.DiffRow) error
	// LatestOverall returns the most recently recorded Overall entity-table
	// difference for scenario.
	LatestOverall(scenario string, e model.Entity, f model.Financing, variable string) (model.DiffRow, bool, error)
	Close() error
}
