package application

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ahrav/go-gambit/internal/domain"
)

// Report is everything the reporter prints for one combination.
type Report struct {
	// Seq is the 1-based position of the combination in enumeration order.
	Seq int
	// Total is the number of combinations in the run.
	Total uint64
	// Config is the tournament configuration.
	Config domain.TournamentConfig
	// Combination is the lineup that played.
	Combination domain.Combination
	// Duration is the wall-clock time spent in the engine.
	Duration time.Duration
	// Leaderboard is the rendered ranking; empty on failure.
	Leaderboard string
	// Err is the failure, if any.
	Err error
}

// Reporter writes per-combination progress and results. It keeps no
// state; aggregation across combinations is left to the caller.
type Reporter struct{}

// NewReporter creates a Reporter.
func NewReporter() *Reporter { return &Reporter{} }

// Start writes the "[seq/total] names" header.
func (r *Reporter) Start(w io.Writer, rep Report) error {
	_, err := fmt.Fprintf(w, "[%d/%d] %s\n", rep.Seq, rep.Total, rep.Combination)
	return err
}

// Running writes the line announcing the tournament.
func (r *Reporter) Running(w io.Writer, rep Report) error {
	_, err := fmt.Fprintf(w, "Running %d iterations with %s rounds of a Round-Robin Tournament of %s...\n",
		rep.Config.Iterations, rep.Config.Rounds, rep.Config.Game)
	return err
}

// Finish writes the timing and leaderboard, or the failure line.
func (r *Reporter) Finish(w io.Writer, rep Report) error {
	if rep.Err != nil {
		_, err := fmt.Fprintf(w, "combination %s failed: %v\n", rep.Combination, rep.Err)
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Finished. Tournament took %s seconds to run.\n", Seconds(rep.Duration))
	b.WriteString("Calculating results...\n\nLeaderboard:\n")
	b.WriteString(rep.Leaderboard)
	if !strings.HasSuffix(rep.Leaderboard, "\n") {
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Summary writes the closing line of a run.
func (r *Reporter) Summary(w io.Writer, s *RunSummary) error {
	_, err := fmt.Fprintf(w, "Completed %d of %d combinations (%d failed) in %s seconds.\n",
		s.Completed, s.Total, s.Failed, Seconds(s.Elapsed))
	return err
}

// Seconds renders d in seconds rounded to one decimal place.
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(math.Round(d.Seconds()*10)/10, 'f', 1, 64)
}
