package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/g1o/QuasiRecomb/hmmlib"
	"github.com/g1o/QuasiRecomb/resultstore"
)

type options struct {
	reads      string
	haplotypes string
	config     string
	logname    string
	storeDir   string
	sqlite     string

	nPos     int
	nSymbol  int
	kmin     int
	kmax     int
	restarts int

	polish bool
}

func main() {

	var opts options

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Fit profile HMMs with a range of state counts to a read set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.reads, "reads", "r", "", "Read set file")
	cmd.Flags().StringVar(&opts.haplotypes, "haplotypes", "", "Reference haplotype file (optional)")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "JSON configuration file (optional)")
	cmd.Flags().StringVar(&opts.logname, "logname", "hmm", "Prefix of log files")
	cmd.Flags().StringVar(&opts.storeDir, "store-dir", "", "Directory to save results in (optional)")
	cmd.Flags().StringVar(&opts.sqlite, "sqlite", "", "SQLite database to save results in (optional)")
	cmd.Flags().IntVarP(&opts.nPos, "npos", "L", 0, "Genome length, defaults to the end of the last read")
	cmd.Flags().IntVar(&opts.nSymbol, "nsymbol", hmmlib.DefaultNSymbol, "Alphabet size")
	cmd.Flags().IntVar(&opts.kmin, "kmin", 1, "Smallest number of states")
	cmd.Flags().IntVar(&opts.kmax, "kmax", 5, "Largest number of states")
	cmd.Flags().IntVar(&opts.restarts, "restarts", 3, "Random restarts per number of states")
	cmd.Flags().BoolVar(&opts.polish, "polish", false, "Resume every run under the stricter threshold")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {

	if opts.reads == "" {
		return errors.New("'reads' is required")
	}
	if opts.kmin < 1 || opts.kmax < opts.kmin {
		return errors.Errorf("invalid state range %d..%d", opts.kmin, opts.kmax)
	}

	cfg := hmmlib.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = hmmlib.ReadConfig(opts.config); err != nil {
			return err
		}
	}

	logs, err := hmmlib.SetLogger(opts.logname, cfg.Debug)
	if err != nil {
		return err
	}
	defer logs.Close()
	msglogger := logs.Msg

	reads, err := hmmlib.ReadReadSet(opts.reads)
	if err != nil {
		return err
	}

	nPos, err := reads.GenomeLength(opts.nPos)
	if err != nil {
		return errors.Wrap(err, opts.reads)
	}

	var haps [][]byte
	if opts.haplotypes != "" {
		if haps, err = hmmlib.ReadHaplotypes(opts.haplotypes); err != nil {
			return err
		}
	}

	msglogger.WithFields(logrus.Fields{
		"reads":    reads.NRead(),
		"distinct": reads.Len(),
		"L":        nPos,
		"n":        opts.nSymbol,
	}).Info("read set loaded")

	stores, err := openStores(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range stores {
			_ = s.Close()
		}
	}()

	tracker := hmmlib.NewBestTracker()
	jobs := hmmlib.Jobs(opts.kmin, opts.kmax, opts.restarts, cfg.Seed)
	results := hmmlib.FitAll(reads, haps, nPos, opts.nSymbol, jobs, cfg, tracker, msglogger)

	if opts.polish {
		results = hmmlib.PolishAll(results, cfg, tracker, msglogger)
	}

	fmt.Printf("%-4s %-10s %-20s %14s %14s\n", "K", "run", "reason", "llh", "BIC")
	for _, or := range results {
		hmmlib.WriteSummary(logs.Par, or, nil)
		for _, s := range stores {
			if err := s.Save(ctx, or); err != nil {
				return err
			}
		}
		fmt.Printf("%-4d %-10s %-20s %14.4f %14.4f\n", or.NState, or.RunID[:8], or.Termination, or.LogLike, or.BIC)
	}

	return nil
}

func openStores(ctx context.Context, opts *options) ([]resultstore.Store, error) {

	var stores []resultstore.Store
	fail := func(err error) ([]resultstore.Store, error) {
		for _, s := range stores {
			_ = s.Close()
		}
		return nil, err
	}

	for _, loc := range []struct{ kind, loc string }{
		{"sqlite", opts.sqlite},
		{"gobdir", opts.storeDir},
	} {
		if loc.loc == "" {
			continue
		}
		s, err := resultstore.NewStore(loc.kind, loc.loc)
		if err != nil {
			return fail(err)
		}
		if err := s.Init(ctx); err != nil {
			_ = s.Close()
			return fail(errors.Wrapf(err, "init %s store", loc.kind))
		}
		stores = append(stores, s)
	}

	return stores, nil
}
