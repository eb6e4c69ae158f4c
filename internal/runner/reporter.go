package runner

// Reporter receives progress callbacks during a run. Calls are serialized.
type Reporter interface {
	OnRunStart(total int)
	OnFixtureDone(result *Result)
	OnRunComplete(summary *Summary)
}

type nopReporter struct{}

func (nopReporter) OnRunStart(int)         {}
func (nopReporter) OnFixtureDone(*Result)  {}
func (nopReporter) OnRunComplete(*Summary) {}
