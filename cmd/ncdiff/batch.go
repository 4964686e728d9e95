package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/qri-io/ncdiff"
)

// Pair is a single comparison in a batch file
type Pair struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// BatchFile lists pairs of containers to compare:
//
//	pairs:
//	  - left: obs/2023.nc
//	    right: obs/2024.nc
type BatchFile struct {
	Pairs []Pair `yaml:"pairs"`
}

func loadBatch(path string) (*BatchFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := &BatchFile{}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(b); err != nil {
		return nil, errors.Wrapf(err, "decoding batch file %s", path)
	}
	for i, p := range b.Pairs {
		if p.Left == "" || p.Right == "" {
			return nil, errors.Errorf("batch file %s: pair %d needs both left & right", path, i)
		}
	}
	return b, nil
}

type batchResult struct {
	report *ncdiff.Report
	err    error
}

func newBatch(g *Globals) *cobra.Command {
	o := &CompareOptions{}
	var jobs int
	cmd := &cobra.Command{
		Use:   "batch PAIRS.yaml",
		Short: "compare several pairs of containers",
		Long: "batch runs every comparison listed in a YAML file concurrently, writing one report per pair in file order. " +
			"A pair that fails doesn't stop the others.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config(cmd)
			if err != nil {
				return err
			}
			if o.Format == "xlsx" {
				return errors.New("xlsx output holds a single report, use compare")
			}
			b, err := loadBatch(args[0])
			if err != nil {
				return err
			}

			results := make([]batchResult, len(b.Pairs))
			if jobs < 1 {
				jobs = 1
			}
			eg := errgroup.Group{}
			eg.SetLimit(jobs)
			for i, p := range b.Pairs {
				i, p := i, p
				eg.Go(func() error {
					// each comparison gets its own copy of the configuration
					c := *cfg
					r, err := g.compare(cmd.Context(), p.Left, p.Right, &c)
					results[i] = batchResult{report: r, err: err}
					return nil
				})
			}
			_ = eg.Wait()

			w, closeOutput, err := o.writer(cmd)
			if err != nil {
				return err
			}
			defer closeOutput()

			var failed, differ int
			for i, res := range results {
				p := b.Pairs[i]
				if o.Format == "text" || o.Format == "" {
					fmt.Fprintf(w, "== %s %s\n", p.Left, p.Right)
				}
				if res.err != nil {
					failed++
					g.log.WithField("pair", i).Errorf("comparing %s & %s: %s", p.Left, p.Right, res.err)
				} else if res.report.Stats.HasDifferences() {
					differ++
				}
				if res.report == nil {
					continue
				}
				if err := o.render(w, res.report); err != nil {
					return err
				}
			}

			switch {
			case failed > 0:
				return errors.Errorf("%d of %d comparisons failed", failed, len(results))
			case differ > 0:
				return errDifferences
			}
			return nil
		},
	}
	o.addFlags(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "number of comparisons to run at once")
	return cmd
}
