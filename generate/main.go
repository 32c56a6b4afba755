package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/g1o/QuasiRecomb/hmmlib"
	"github.com/g1o/QuasiRecomb/hmmsim"
)

func main() {

	var outname string
	var nHap, nPos, seed int
	var divergence float64
	var freq []float64
	var d hmmsim.Design

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Simulate reads from random haplotypes",
		RunE: func(cmd *cobra.Command, args []string) error {

			if outname == "" {
				return errors.New("'outname' is required")
			}
			if len(freq) > 0 {
				d.Freq = freq
			}

			rng := rand.New(rand.NewSource(int64(seed)))
			haps := hmmsim.RandomHaplotypes(rng, nHap, nPos, d.NSymbol, divergence)

			reads, err := hmmsim.Simulate(rng, haps, d)
			if err != nil {
				return err
			}

			if err := reads.Save(outname + "_reads.gob.gz"); err != nil {
				return err
			}
			if err := hmmlib.SaveHaplotypes(outname+"_haps.gob.gz", haps); err != nil {
				return err
			}

			fmt.Printf("%d reads, %d distinct\n", reads.NRead(), reads.Len())
			for _, h := range haps {
				fmt.Println(hmmlib.DecodeBases(h))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outname, "outname", "o", "", "Output file name prefix")
	cmd.Flags().IntVar(&nHap, "nhap", 2, "Number of haplotypes")
	cmd.Flags().IntVar(&nPos, "npos", 100, "Genome length")
	cmd.Flags().IntVar(&seed, "seed", 1, "Random seed")
	cmd.Flags().Float64Var(&divergence, "divergence", 0.05, "Per-position divergence between haplotypes")
	cmd.Flags().Float64SliceVar(&freq, "freq", nil, "Haplotype frequencies")
	cmd.Flags().IntVarP(&d.NRead, "nread", "n", 1000, "Number of reads")
	cmd.Flags().IntVar(&d.ReadLen, "readlen", 30, "Read or mate length")
	cmd.Flags().IntVar(&d.Insert, "insert", -1, "Gap between mates, negative for single-end reads")
	cmd.Flags().IntVar(&d.NSymbol, "nsymbol", 4, "Alphabet size")
	cmd.Flags().Float64Var(&d.Epsilon, "epsilon", 1e-3, "Per-symbol sequencing error rate")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
