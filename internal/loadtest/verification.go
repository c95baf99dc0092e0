package loadtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/loftmatch/internal/domain/model"
)

// ErrMismatch is returned when the ranking disagrees with pair scores.
var ErrMismatch = errors.New("ranking does not match pair scores")

// verifyMatches ranks the partners of subject and checks that the ranking
// is sorted, covers every female, and agrees with the scores collected
// pair by pair.
func verifyMatches(ctx context.Context, c *client, sessionID string, subject model.Individual,
	females int, scores map[string]float64, stats *Stats,
) error {
	res, err := c.matches(ctx, sessionID, subject.ID, string(model.Male))
	if err != nil {
		return err
	}

	if got := res.Scored + len(res.Skipped); got != females {
		stats.Mismatches = append(stats.Mismatches,
			fmt.Sprintf("ranking covers %d partners, loft has %d females", got, females))
	}
	for i, m := range res.Matches {
		if i > 0 && m.Compatibility > res.Matches[i-1].Compatibility {
			stats.Mismatches = append(stats.Mismatches,
				fmt.Sprintf("entry %d (%.2f) ranks below a lower score (%.2f)", i, m.Compatibility, res.Matches[i-1].Compatibility))
		}
		want, ok := scores[pairKey(subject.ID, m.Partner.ID)]
		if !ok {
			continue
		}
		stats.MatchesChecked++
		if want != m.Compatibility {
			stats.Mismatches = append(stats.Mismatches,
				fmt.Sprintf("%s: ranked %.2f, scored %.2f", m.Partner.ID, m.Compatibility, want))
		}
	}

	if len(stats.Mismatches) > 0 {
		return fmt.Errorf("%w: %d problems", ErrMismatch, len(stats.Mismatches))
	}
	return nil
}
