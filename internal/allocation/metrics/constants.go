package metrics

const (

	// common prefix for all metric names
	prefix = "fairshare_"

	// Prometheus Labels
	problemLabel  = "problem"
	consumerLabel = "consumer"
	resourceLabel = "resource"
	strategyLabel = "strategy"
	reasonLabel   = "reason"

	// Exclusion reasons
	degenerate = "degenerate"
	infeasible = "infeasible"
	other      = "other"
)
