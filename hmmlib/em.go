package hmmlib

import (
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Model is the part of a profile HMM that the EM driver needs.  JHMM is the
// implementation used for real data.
type Model interface {

	// LogLike returns the log-likelihood of the last E-step.
	LogLike() float64

	// TerminalLogLike recomputes the log-likelihood from per-read state.
	TerminalLogLike() float64

	// Advance performs one EM iteration.
	Advance()

	// Diagnose describes invalid internal values.
	Diagnose() []string

	// Params returns the current parameters.
	Params() *Params

	// ReadCount returns the number of reads counting multiplicities.
	ReadCount() int
}

// SingleEM fits one model with a fixed number of states, stopping early when
// the run is unlikely to beat the best log-likelihood seen by other runs or
// has stopped improving.
type SingleEM struct {
	model   Model
	cfg     *Config
	tracker *BestTracker

	// Convergence threshold for this run
	delta float64

	reads    []*Read
	haps     [][]byte
	seed     int64
	eps      float64
	priorRho float64

	runID      string
	iterations int

	// history[i] is the log-likelihood observed before iteration i
	history []float64

	// The best log-likelihood this run knows of
	llhOpt float64

	result *OptimalResult

	log *logrus.Entry
}

// NewSingleEM prepares a run from random starting values.
func NewSingleEM(reads *ReadSet, haps [][]byte, nPos, nState, nSymbol int, cfg *Config,
	tracker *BestTracker, seed int64) *SingleEM {

	hmm := NewJHMM(reads, nPos, nState, nSymbol, cfg, seed)

	em := newSingleEM(hmm, cfg, tracker, cfg.Delta)
	em.reads = reads.Reads
	em.haps = haps
	em.seed = seed
	em.eps = cfg.Epsilon
	em.priorRho = cfg.PriorRho

	return em
}

// NewPolishEM prepares a run that continues from a previous result under
// the stricter PolishDelta threshold.
func NewPolishEM(or *OptimalResult, cfg *Config, tracker *BestTracker) *SingleEM {

	hmm := NewJHMMFromResult(or, cfg)

	em := newSingleEM(hmm, cfg, tracker, cfg.PolishDelta)
	em.reads = or.Reads
	em.haps = or.Haplotypes
	em.seed = or.Seed
	em.eps = or.Epsilon
	em.priorRho = or.PriorRho

	return em
}

func newSingleEM(model Model, cfg *Config, tracker *BestTracker, delta float64) *SingleEM {

	em := &SingleEM{
		model:   model,
		cfg:     cfg,
		tracker: tracker,
		delta:   delta,
		runID:   uuid.NewString(),
	}
	em.SetLogger(logrus.StandardLogger())

	return em
}

// SetLogger directs the progress messages of the run to logger.
func (em *SingleEM) SetLogger(logger *logrus.Logger) {
	em.log = logger.WithFields(logrus.Fields{
		"K":   em.model.Params().NState,
		"run": em.runID[:8],
	})
}

// Model returns the model being fit.
func (em *SingleEM) Model() Model {
	return em.model
}

// Iterations returns the number of completed EM iterations.
func (em *SingleEM) Iterations() int {
	return em.iterations
}

// History returns the log-likelihood observed before each iteration.  The
// first value is a placeholder.
func (em *SingleEM) History() []float64 {
	return em.history
}

// BestLogLike returns the best log-likelihood known to this run.
func (em *SingleEM) BestLogLike() float64 {
	return em.llhOpt
}

// Result returns the result of the run, or nil if Run has not been called.
func (em *SingleEM) Result() *OptimalResult {
	return em.result
}

// Run iterates EM until convergence or until one of the early stopping
// rules fires, then scores the final model.  Calling Run again returns the
// same result.
func (em *SingleEM) Run() *OptimalResult {

	if em.result != nil {
		return em.result
	}

	cfg := em.cfg
	em.llhOpt = em.tracker.Get()

	llh := math.SmallestNonzeroFloat64
	var oldllh float64
	reason := Converged

	for {
		it := em.iterations

		if cfg.SyncInterval > 0 && it > 0 && it%cfg.SyncInterval == 0 {
			em.tracker.Max(llh)
			em.llhOpt = math.Max(em.tracker.Get(), em.llhOpt)
		}

		em.history = append(em.history, llh)
		oldllh = llh
		llh = em.model.LogLike()
		dist := (oldllh - llh) / llh

		if dist < cfg.PreBreakImprovement || cfg.NoBreakThreshold {
			if cfg.PreBreakInterval > 0 && it > 0 && it%cfg.PreBreakInterval == 0 {
				em.log.Debugf("bias check: llf=%f bias=%f opt=%f", llh, llh-em.llhOpt*cfg.Bias, em.llhOpt)
				if llh-em.llhOpt*cfg.Bias < em.llhOpt {
					reason = PreBreak
					break
				}
			}
		}

		if cfg.StagnationWindow > 0 && it > cfg.StagnationWindow {
			if em.history[it-cfg.StagnationWindow]-llh > -cfg.StagnationTolerance {
				reason = Stagnated
				break
			}
		}

		if math.IsNaN(llh) || math.IsInf(llh, 0) {
			em.diagnose(llh)
			reason = NumericallyInvalid
			break
		}

		if cfg.Debug {
			em.log.Debugf("iteration %d: llf=%f dist=%g delta=%g", it, llh, dist, em.delta)
		}

		em.model.Advance()
		em.iterations++

		if !(math.Abs(dist) > em.delta) {
			break
		}
	}

	em.log.Infof("%s after %d iterations: llf=%f opt=%f max=%f", reason, em.iterations, llh,
		em.llhOpt, em.tracker.Get())

	em.result = em.calcBIC(reason)

	return em.result
}

// diagnose logs every invalid value found in the model.
func (em *SingleEM) diagnose(llh float64) {

	em.log.Warnf("log-likelihood is %f at iteration %d", llh, em.iterations)
	for _, msg := range em.model.Diagnose() {
		em.log.Warn(msg)
	}
}

// calcBIC scores the final model and takes a snapshot of its parameters.
func (em *SingleEM) calcBIC(reason Termination) *OptimalResult {

	llh := em.model.TerminalLogLike()
	if d := math.Abs(llh - em.model.LogLike()); d > 1e-6*math.Abs(llh) {
		em.log.Warnf("recomputed log-likelihood %f differs from %f", llh, em.model.LogLike())
	}

	par := em.model.Params().Copy()
	nread := em.model.ReadCount()
	free := par.FreeParams(em.cfg.FreeParamThreshold)

	or := &OptimalResult{
		RunID:       em.runID,
		NRead:       nread,
		NState:      par.NState,
		NPos:        par.NPos,
		NSymbol:     par.NSymbol,
		Reads:       copyReads(em.reads),
		Haplotypes:  em.haps,
		Rho:         par.Rho,
		Pi:          par.Pi,
		Mu:          par.Mu,
		LogLike:     llh,
		BIC:         BIC(llh, free, nread),
		FreeParams:  free,
		PriorRho:    em.priorRho,
		Epsilon:     em.eps,
		Seed:        em.seed,
		Iterations:  em.iterations,
		Termination: reason,
	}

	if em.cfg.BICDir != "" {
		if err := appendBIC(em.cfg.BICDir, or); err != nil {
			em.log.WithError(err).Error("cannot record BIC")
		}
	}

	if dist := or.HaplotypeDistances(); dist != nil {
		em.log.Debugf("consensus distances to haplotypes: %v", dist)
	}

	if llh >= em.llhOpt {
		em.tracker.Max(llh)
	}

	return or
}

// copyReads returns deep copies of the reads, so that later changes to a
// read set do not reach a stored result.
func copyReads(reads []*Read) []*Read {
	c := make([]*Read, len(reads))
	for i, r := range reads {
		c[i] = r.Copy()
	}
	return c
}
