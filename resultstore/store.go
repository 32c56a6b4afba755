// Package resultstore persists the results of EM runs.
package resultstore

import (
	"context"
	"sort"

	"github.com/g1o/QuasiRecomb/hmmlib"
)

// Store saves and retrieves results by run id.
type Store interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, or *hmmlib.OptimalResult) error
	Get(ctx context.Context, runID string) (*hmmlib.OptimalResult, bool, error)
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// Summary describes a stored result without its parameters.
type Summary struct {
	RunID       string
	NState      int
	LogLike     float64
	BIC         float64
	Termination string
}

func summarize(or *hmmlib.OptimalResult) Summary {
	return Summary{
		RunID:       or.RunID,
		NState:      or.NState,
		LogLike:     or.LogLike,
		BIC:         or.BIC,
		Termination: or.Termination.String(),
	}
}

// sortSummaries orders by number of states, then by run id.
func sortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].NState != s[j].NState {
			return s[i].NState < s[j].NState
		}
		return s[i].RunID < s[j].RunID
	})
}
