package hmmlib

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Config holds the settings of an estimation run, including every constant
// used by the stopping and pruning rules.
type Config struct {

	// Relative log-likelihood change below which a fresh run has converged
	Delta float64 `json:"delta"`

	// Stricter convergence threshold for runs resumed from a previous result
	PolishDelta float64 `json:"polish_delta"`

	// Smoothing of the random starting values
	Epsilon float64 `json:"epsilon"`

	// Pseudo-count added to the expected transition counts
	PriorRho float64 `json:"prior_rho"`

	// Iterations between synchronizations with the shared best log-likelihood
	SyncInterval int `json:"sync_interval"`

	// Number of iterations compared by the stagnation rule
	StagnationWindow int `json:"stagnation_window"`

	// Minimum log-likelihood gain over StagnationWindow iterations
	StagnationTolerance float64 `json:"stagnation_tolerance"`

	// Iterations between checks against the best log-likelihood
	PreBreakInterval int `json:"pre_break_interval"`

	// Relative improvement below which the pre-break check is made
	PreBreakImprovement float64 `json:"pre_break_improvement"`

	// Fraction of the best log-likelihood a run may fall behind
	Bias float64 `json:"bias"`

	// Make the pre-break check regardless of the improvement
	NoBreakThreshold bool `json:"no_break_threshold"`

	// Parameters at or below this value are not counted as free
	FreeParamThreshold float64 `json:"free_param_threshold"`

	// Seed for the random starting values
	Seed int64 `json:"seed"`

	// Number of parallel batches in the E-step, zero for GOMAXPROCS
	Workers int `json:"workers"`

	// Maximum number of runs executed at once by FitAll, zero for no limit
	MaxConcurrentRuns int `json:"max_concurrent_runs"`

	// If not empty, append "<BIC>\t<free parameters>" lines to BIC-<K>.txt here
	BICDir string `json:"bic_dir"`

	// Log every iteration
	Debug bool `json:"debug"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() *Config {
	return &Config{
		Delta:               1e-8,
		PolishDelta:         1e-10,
		Epsilon:             1e-3,
		SyncInterval:        10,
		StagnationWindow:    500,
		StagnationTolerance: 1,
		PreBreakInterval:    20,
		PreBreakImprovement: 1e-5,
		Bias:                0.05,
		FreeParamThreshold:  1e-8,
		Seed:                1,
	}
}

// ReadConfig returns the default settings overridden by the values found
// in a JSON file.
func ReadConfig(fname string) (*Config, error) {

	cfg := DefaultConfig()

	fid, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}
	defer fid.Close()

	dec := json.NewDecoder(fid)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", fname)
	}

	return cfg, nil
}

// Save writes the settings in JSON format.
func (cfg *Config) Save(fname string) error {

	fid, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "create config file")
	}
	defer fid.Close()

	enc := json.NewEncoder(fid)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrapf(err, "encode config %s", fname)
	}

	return fid.Close()
}
