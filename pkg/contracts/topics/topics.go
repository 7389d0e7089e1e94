package topics

const (
	// Single lifecycle topic keyed by betId so consumers see the events of one
	// bet in commit order. Cross-bet ordering is not guaranteed.
	BetLifecycle = "bet_lifecycle"

	// DLQ
	BetLifecycleDLQ = "bet_lifecycle_dlq"
)
