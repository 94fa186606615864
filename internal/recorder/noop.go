package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordQuote(_ *QuoteTick) error           { return nil }
func (n *NoopRecorder) RecordSeries(_ *SeriesSnapshot) error     { return nil }
func (n *NoopRecorder) RecordMonitorEvent(_ *MonitorEvent) error { return nil }
func (n *NoopRecorder) Close() error                             { return nil }
