package ncdiff

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Compare walks the group hierarchies of two containers from their roots,
// producing a report of every group, dimension, variable & attribute found on
// either side.
//
// Structural differences are never errors. Groups that can't be read are
// reported as changed records & counted in Stats.Unreadable. Compare returns
// an error before reading anything if the configuration is invalid. If ctx is
// cancelled Compare stops between groups & returns the partial report, flagged
// Aborted, alongside ctx.Err()
func Compare(ctx context.Context, left, right Accessor, opts ...CompareOption) (*Report, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	ignore, err := cfg.compileIgnore()
	if err != nil {
		return nil, err
	}
	if left == nil || right == nil {
		return nil, &ConfigurationError{Field: "accessor", Value: nil, Reason: "both containers are required"}
	}

	w := newWalker(cfg, left, right, ignore)
	err = w.run(ctx)
	report := w.b.Finalize()
	if cfg.Stats != nil {
		*cfg.Stats = report.Stats
	}

	w.log.WithFields(logrus.Fields{
		"records":    len(report.Records),
		"unreadable": report.Stats.Unreadable,
		"aborted":    report.Aborted,
	}).Debug("comparison complete")
	return report, err
}

// CompareOption is a function that adjusts a config, zero or more
// CompareOptions can be passed to the Compare function
type CompareOption func(cfg *Config)

// OptionConfig replaces the comparison parameters with those of c, keeping
// any logger or stats pointer already set
func OptionConfig(c *Config) CompareOption {
	return func(cfg *Config) {
		if c == nil {
			return
		}
		logger, stats := cfg.Logger, cfg.Stats
		*cfg = *c
		if cfg.Logger == nil {
			cfg.Logger = logger
		}
		if cfg.Stats == nil {
			cfg.Stats = stats
		}
	}
}

// OptionSimilarityThreshold sets the minimum score for rename pairing
func OptionSimilarityThreshold(t float64) CompareOption {
	return func(cfg *Config) {
		cfg.SimilarityThreshold = t
	}
}

// OptionScoringFunction selects a built-in name scorer
func OptionScoringFunction(f ScoringFunction) CompareOption {
	return func(cfg *Config) {
		cfg.ScoringFunction = f
	}
}

// OptionScorer sets a custom name scorer
func OptionScorer(s Scorer) CompareOption {
	return func(cfg *Config) {
		cfg.Scorer = s
	}
}

// OptionIgnore adds ignore patterns
func OptionIgnore(patterns ...string) CompareOption {
	return func(cfg *Config) {
		cfg.Ignore = append(cfg.Ignore, patterns...)
	}
}

// OptionCompareChunks toggles chunk size comparison
func OptionCompareChunks(compare bool) CompareOption {
	return func(cfg *Config) {
		cfg.CompareChunks = compare
	}
}

// OptionMatchGroups toggles rename detection for subgroups
func OptionMatchGroups(match bool) CompareOption {
	return func(cfg *Config) {
		cfg.MatchGroups = match
	}
}

// OptionLogger sets the logger for a comparison
func OptionLogger(l logrus.FieldLogger) CompareOption {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

// OptionSetStats will set the passed-in stats pointer when Compare is called
func OptionSetStats(st *Stats) CompareOption {
	return func(cfg *Config) {
		cfg.Stats = st
	}
}
