package engine

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"slices"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.LeaderboardEngine = (*TotalPayoffLeaderboard)(nil)

// TotalPayoffLeaderboard ranks strategies by the sum of their payoffs over
// every match and iteration.
type TotalPayoffLeaderboard struct {
	printer *message.Printer
}

// NewTotalPayoffLeaderboard creates a leaderboard that formats numbers for
// tag, for example language.English.
func NewTotalPayoffLeaderboard(tag language.Tag) *TotalPayoffLeaderboard {
	return &TotalPayoffLeaderboard{printer: message.NewPrinter(tag)}
}

// Standings aggregates result per strategy. Ties on total share a rank and
// are listed by name.
func (l *TotalPayoffLeaderboard) Standings(game domain.Game, result *domain.TournamentResult) ([]domain.Standing, error) {
	if result == nil {
		return nil, errors.New("nil tournament result")
	}
	if result.Game != game {
		return nil, fmt.Errorf("result is for %s, not %s", result.Game, game)
	}

	byName := make(map[string]*domain.Standing, len(result.Participants))
	rounds := make(map[string]int, len(result.Participants))
	for _, name := range result.Participants {
		byName[name] = &domain.Standing{Strategy: name}
	}

	row := func(name string) (*domain.Standing, error) {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a participant", domain.ErrUnknownStrategy, name)
		}
		return s, nil
	}

	for _, it := range result.Iterations {
		for _, m := range it.Matches {
			a, err := row(m.A)
			if err != nil {
				return nil, err
			}
			b, err := row(m.B)
			if err != nil {
				return nil, err
			}
			a.Total += m.ScoreA
			b.Total += m.ScoreB
			rounds[m.A] += m.Rounds
			rounds[m.B] += m.Rounds

			switch {
			case m.ScoreA > m.ScoreB:
				a.Wins++
				b.Losses++
			case m.ScoreA < m.ScoreB:
				a.Losses++
				b.Wins++
			default:
				a.Draws++
				b.Draws++
			}
		}
	}

	out := make([]domain.Standing, 0, len(byName))
	for _, name := range result.Participants {
		s := *byName[name]
		if n := rounds[name]; n > 0 {
			s.PerRound = float64(s.Total) / float64(n)
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(x, y domain.Standing) int {
		if c := cmp.Compare(y.Total, x.Total); c != 0 {
			return c
		}
		return cmp.Compare(x.Strategy, y.Strategy)
	})
	for i := range out {
		if i > 0 && out[i].Total == out[i-1].Total {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out, nil
}

// Leaderboard renders the standings as an aligned table.
func (l *TotalPayoffLeaderboard) Leaderboard(game domain.Game, result *domain.TournamentResult) (string, error) {
	standings, err := l.Standings(game, result)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Rank\tStrategy\tTotal\tPer round\tW\tD\tL\t")
	for _, s := range standings {
		l.printer.Fprintf(tw, "%d\t%s\t%d\t%.3f\t%d\t%d\t%d\t\n",
			s.Rank, s.Strategy, s.Total, s.PerRound, s.Wins, s.Draws, s.Losses)
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
