package core

// Metrics receives workflow events worth counting.
type Metrics interface {
	ObserveTransition(from, to string)
	ObserveDispatch(channel string, err error)
	ObserveLateSweep(marked int, err error)
}

// NopMetrics discards everything.
type NopMetrics struct{}

var _ Metrics = NopMetrics{}

func (NopMetrics) ObserveTransition(string, string) {}
func (NopMetrics) ObserveDispatch(string, error)    {}
func (NopMetrics) ObserveLateSweep(int, error)      {}
