package scheduler

// Priority determines dispatch order across queued requests.
type Priority int

const (
	// PriorityLow is for speculative or background work.
	PriorityLow Priority = iota
	// PriorityMedium is the default for interactive searches.
	PriorityMedium
	// PriorityHigh is for revenue-bearing operations.
	PriorityHigh
	// PriorityCritical is for operations that must not wait.
	PriorityCritical
)

// numPriorities is the number of fixed priority levels.
const numPriorities = 4

// String returns the string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the four defined levels.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}
