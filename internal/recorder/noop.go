package recorder

import "CostOfCapital/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *RunRecord) error                               { return nil }
func (n *NoopRecorder) RecordAggregates(_, _ string, _ []model.AggregateRow) error { return nil }
func (n *NoopRecorder) RecordDiff(_, _ string, _ []model.DiffRow) error            { return nil }
func (n *NoopRecorder) LatestOverall(_ string, _ model.Entity, _ model.Financing, _ string) (model.DiffRow, bool, error) {
	return model.DiffRow{}, false, nil
}
func (n *NoopRecorder) Close() error { return nil }
