package outbound

// Metrics records business counters for the planning use cases
type Metrics interface {
	PlanGenerated(strategy string, meals, unmatched int)
	AIAttempt(provider, outcome string)
	ExternalSearch(status string)
	CacheLookup(hit bool)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) PlanGenerated(string, int, int) {}
func (NopMetrics) AIAttempt(string, string) {}
func (NopMetrics) ExternalSearch(string) {}
func (NopMetrics) CacheLookup(bool) {}
