package domain

import "time"

// RunRecord describes one invocation of the orchestrator.
type RunRecord struct {
	// ID uniquely identifies the run (a UUID).
	ID string

	// Config is the tournament configuration shared by all combinations.
	Config TournamentConfig

	// Allowed is the allow-list the combinations were drawn from.
	Allowed AllowedSet

	// Combinations is the number of combinations that will be attempted.
	Combinations uint64

	// StartedAt is when the run began.
	StartedAt time.Time
}

// CombinationRecord describes the outcome of one combination.
type CombinationRecord struct {
	// RunID links the record to its run.
	RunID string

	// Seq is the 1-based position in enumeration order.
	Seq int

	// Combination lists the members.
	Combination Combination

	// Duration is the wall-clock time of the engine call.
	Duration time.Duration

	// Err holds the error text for failed combinations, empty otherwise.
	Err string

	// Standings holds the ranking for successful combinations.
	Standings []Standing
}

// RunStats holds the final counts of a run.
type RunStats struct {
	Completed  int
	Failed     int
	Elapsed    time.Duration
	FinishedAt time.Time
}
