package domain

// MatchResult is the outcome of one pairing inside one iteration.
// A is the strategy listed first in the combination; for asymmetric games
// such as pennies this is the "matcher" side.
type MatchResult struct {
	// A and B name the two strategies that played.
	A string `json:"a"`
	B string `json:"b"`

	// ScoreA and ScoreB are the summed payoffs over all rounds.
	ScoreA int `json:"score_a"`
	ScoreB int `json:"score_b"`

	// Rounds is the number of rounds actually played.
	Rounds int `json:"rounds"`
}

// IterationResult groups the matches of a single round-robin iteration.
type IterationResult struct {
	// Rounds is the per-match round count used in this iteration.
	Rounds int `json:"rounds"`

	// Matches holds one entry per pairing, in pairing order.
	Matches []MatchResult `json:"matches"`
}

// TournamentResult is what an engine returns for one combination.
// The orchestrator does not look inside it; it is passed straight to the
// leaderboard and then dropped.
type TournamentResult struct {
	// Game is the game that was played.
	Game Game `json:"game"`

	// Participants lists the strategies in combination order.
	Participants []string `json:"participants"`

	// Iterations holds one entry per iteration, in play order.
	Iterations []IterationResult `json:"iterations"`
}

// Standing is a single leaderboard row.
type Standing struct {
	// Rank is 1-based; tied totals share a rank.
	Rank int `json:"rank"`

	// Strategy is the strategy name.
	Strategy string `json:"strategy"`

	// Total is the payoff summed over every match and iteration.
	Total int `json:"total"`

	// PerRound is Total divided by the rounds the strategy played.
	PerRound float64 `json:"per_round"`

	// Wins, Draws and Losses count matches by comparing the two scores.
	Wins   int `json:"wins"`
	Draws  int `json:"draws"`
	Losses int `json:"losses"`
}
