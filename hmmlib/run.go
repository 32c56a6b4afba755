package hmmlib

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar"
	"github.com/sirupsen/logrus"
)

// Job describes one EM run from random starting values.
type Job struct {
	NState int
	Seed   int64
}

// Jobs returns restarts jobs for every number of states from kmin to kmax.
// Seeds are consecutive, starting at seed.
func Jobs(kmin, kmax, restarts int, seed int64) []Job {

	var jobs []Job
	for k := kmin; k <= kmax; k++ {
		for r := 0; r < restarts; r++ {
			jobs = append(jobs, Job{NState: k, Seed: seed})
			seed++
		}
	}

	return jobs
}

// FitAll runs every job concurrently, all sharing the same tracker, and
// returns the results in the order of the jobs.  At most
// cfg.MaxConcurrentRuns runs are active at once if that is positive.
func FitAll(reads *ReadSet, haps [][]byte, nPos, nSymbol int, jobs []Job, cfg *Config,
	tracker *BestTracker, msglogger *logrus.Logger) []*OptimalResult {

	return runAll(len(jobs), cfg, func(i int) *SingleEM {
		return NewSingleEM(reads, haps, nPos, jobs[i].NState, nSymbol, cfg, tracker, jobs[i].Seed)
	}, msglogger)
}

// PolishAll resumes every result under the stricter convergence threshold
// and returns the polished results in the same order.
func PolishAll(results []*OptimalResult, cfg *Config, tracker *BestTracker,
	msglogger *logrus.Logger) []*OptimalResult {

	return runAll(len(results), cfg, func(i int) *SingleEM {
		return NewPolishEM(results[i], cfg, tracker)
	}, msglogger)
}

func runAll(n int, cfg *Config, build func(int) *SingleEM, msglogger *logrus.Logger) []*OptimalResult {

	if msglogger == nil {
		msglogger = logrus.StandardLogger()
	}

	results := make([]*OptimalResult, n)
	bar := progressbar.New(n)

	var sem chan struct{}
	if cfg.MaxConcurrentRuns > 0 {
		sem = make(chan struct{}, cfg.MaxConcurrentRuns)
	}

	var wg sync.WaitGroup
	var mut sync.Mutex

	for i := 0; i < n; i++ {

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			em := build(i)
			em.SetLogger(msglogger)
			results[i] = em.Run()
			mut.Lock()
			_ = bar.Add(1)
			mut.Unlock()
		}(i)
	}

	wg.Wait()

	fmt.Printf("\n") // returns the prompt in the usual place

	return results
}
