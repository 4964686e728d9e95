package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qri-io/ncdiff"
)

// CompareOptions are flags of the compare & batch commands
type CompareOptions struct {
	Threshold   float64
	Scoring     string
	Ignore      []string
	Chunks      bool
	MatchGroups bool
	ConfigFile  string

	Format    string
	Output    string
	NoColor   bool
	OnlyDiffs bool
}

func (o *CompareOptions) addFlags(cmd *cobra.Command) {
	def := ncdiff.DefaultConfig()
	fs := cmd.Flags()
	fs.Float64VarP(&o.Threshold, "threshold", "t", def.SimilarityThreshold, "minimum name similarity (0-1) for pairing renames, 1 disables")
	fs.StringVar(&o.Scoring, "scoring", string(def.ScoringFunction), "name scoring function: edit-distance or token-overlap")
	fs.StringArrayVarP(&o.Ignore, "ignore", "i", nil, "glob of qualified names to skip, eg. '/*:history' (repeatable)")
	fs.BoolVar(&o.Chunks, "chunks", def.CompareChunks, "compare variable chunk sizes")
	fs.BoolVar(&o.MatchGroups, "match-groups", def.MatchGroups, "pair renamed groups by name similarity")
	fs.StringVarP(&o.ConfigFile, "config", "c", "", "YAML configuration file, flags override its values")
	fs.StringVarP(&o.Format, "format", "f", "text", "output format: text, csv, json or xlsx")
	fs.StringVarP(&o.Output, "output", "o", "", "write the report to a file instead of stdout, a .xlsx name implies --format xlsx")
	fs.BoolVar(&o.NoColor, "no-color", false, "disable colored text output")
	fs.BoolVar(&o.OnlyDiffs, "only-diffs", false, "omit records of unchanged entities")
}

// config merges the config file with flags set on the command line
func (o *CompareOptions) config(cmd *cobra.Command) (*ncdiff.Config, error) {
	cfg := ncdiff.DefaultConfig()
	if o.ConfigFile != "" {
		var err error
		if cfg, err = ncdiff.LoadConfigFile(o.ConfigFile); err != nil {
			return nil, err
		}
	}

	fs := cmd.Flags()
	if fs.Changed("threshold") {
		cfg.SimilarityThreshold = o.Threshold
	}
	if fs.Changed("scoring") {
		cfg.ScoringFunction = ncdiff.ScoringFunction(o.Scoring)
	}
	if fs.Changed("chunks") {
		cfg.CompareChunks = o.Chunks
	}
	if fs.Changed("match-groups") {
		cfg.MatchGroups = o.MatchGroups
	}
	cfg.Ignore = append(cfg.Ignore, o.Ignore...)

	if !fs.Changed("format") && strings.EqualFold(filepath.Ext(o.Output), ".xlsx") {
		o.Format = "xlsx"
	}
	return cfg, cfg.Validate()
}

func (o *CompareOptions) sink(w io.Writer) (ncdiff.Sink, error) {
	switch o.Format {
	case "text", "":
		return ncdiff.NewTextSink(w, o.color(w)), nil
	case "csv":
		return ncdiff.NewCSVSink(w), nil
	case "json":
		return ncdiff.NewJSONSink(w), nil
	case "xlsx":
		return ncdiff.NewXLSXSink(w), nil
	}
	return nil, errors.Errorf("unknown output format %q", o.Format)
}

// color is on for text written to a terminal unless disabled
func (o *CompareOptions) color(w io.Writer) bool {
	if o.NoColor || o.Output != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (o *CompareOptions) render(w io.Writer, r *ncdiff.Report) error {
	s, err := o.sink(w)
	if err != nil {
		return err
	}
	if o.OnlyDiffs {
		r = r.Differences()
	}
	return r.Render(s)
}

// output renders r to the report destination
func (o *CompareOptions) output(cmd *cobra.Command, r *ncdiff.Report) error {
	w, closeOutput, err := o.writer(cmd)
	if err != nil {
		return err
	}
	err = o.render(w, r)
	if cerr := closeOutput(); err == nil {
		err = cerr
	}
	return err
}

// writer opens the report destination, closing is a no-op for stdout
func (o *CompareOptions) writer(cmd *cobra.Command) (io.Writer, func() error, error) {
	if o.Output == "" || o.Output == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(o.Output)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newCompare(g *Globals) *cobra.Command {
	o := &CompareOptions{}
	cmd := &cobra.Command{
		Use:   "compare LEFT RIGHT",
		Short: "compare the structure of two containers",
		Long: "compare reads two containers & reports every group, dimension, variable & attribute found on either side.\n\n" +
			"Inputs ending in .cdl or .txt are read as ncdump CDL headers, .yaml, .yml & .json as snapshots. " +
			"Anything else is read with `ncdump -hs`.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config(cmd)
			if err != nil {
				return err
			}

			// an aborted comparison still writes the groups it got through
			r, err := g.compare(cmd.Context(), args[0], args[1], cfg)
			if r != nil {
				if rerr := o.output(cmd, r); err == nil {
					err = rerr
				}
			}
			if err != nil {
				return err
			}
			if r.Stats.HasDifferences() {
				return errDifferences
			}
			return nil
		},
	}
	o.addFlags(cmd)
	return cmd
}

// compare opens & compares two containers. A partial report is returned
// with any error from the comparison itself
func (g *Globals) compare(ctx context.Context, leftPath, rightPath string, cfg *ncdiff.Config) (*ncdiff.Report, error) {
	left, err := g.open(ctx, leftPath)
	if err != nil {
		return nil, err
	}
	right, err := g.open(ctx, rightPath)
	if err != nil {
		return nil, err
	}

	log := g.log.WithFields(logrus.Fields{"left": leftPath, "right": rightPath})
	r, err := ncdiff.Compare(ctx, g.accessor(left), g.accessor(right),
		ncdiff.OptionConfig(cfg),
		ncdiff.OptionLogger(log),
	)
	if r != nil && r.Aborted {
		return r, errors.Wrap(err, "comparison aborted")
	} else if err != nil {
		return nil, err
	}
	if r.Stats.Unreadable > 0 {
		log.Warnf("%d groups could not be read", r.Stats.Unreadable)
	}
	return r, nil
}
