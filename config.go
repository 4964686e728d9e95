package ncdiff

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultSimilarityThreshold is the minimum score for two names to be paired
// as a rename
const DefaultSimilarityThreshold = 0.7

// Config are the parameters of a comparison. Config can be decoded from YAML
// with LoadConfig, or adjusted with CompareOptions
type Config struct {
	// SimilarityThreshold is the minimum score in [0,1] for pairing unmatched
	// names as renames. 1 disables rename detection
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// ScoringFunction selects the built-in name scorer
	ScoringFunction ScoringFunction `yaml:"scoring_function"`
	// Ignore lists glob patterns matched against qualified entity names:
	// "/group/var" for groups, dimensions & variables, "/group/var:attr"
	// for variable attributes & "/group:attr" for group attributes. "*"
	// doesn't cross a "/"
	Ignore []string `yaml:"ignore"`
	// CompareChunks adds chunk sizes to variable comparison
	CompareChunks bool `yaml:"compare_chunks"`
	// MatchGroups enables rename detection for subgroups. when false
	// subgroups pair only by exact name
	MatchGroups bool `yaml:"match_groups"`

	// Scorer overrides ScoringFunction when non-nil
	Scorer Scorer `yaml:"-"`
	// Logger receives progress & warnings about the walk. defaults to
	// discarding everything
	Logger logrus.FieldLogger `yaml:"-"`
	// Provide a non-nil stats pointer & Compare will populate it with the
	// report's stats
	Stats *Stats `yaml:"-"`
}

// DefaultConfig returns the configuration used when no options are given
func DefaultConfig() *Config {
	return &Config{
		SimilarityThreshold: DefaultSimilarityThreshold,
		ScoringFunction:     EditDistance,
		MatchGroups:         true,
	}
}

// ConfigurationError reports an invalid configuration value. configuration
// errors are detected before any container is read
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Validate checks configuration values, returning a *ConfigurationError for
// the first invalid one
func (cfg *Config) Validate() error {
	_, err := cfg.compileIgnore()
	return err
}

// compileIgnore validates cfg & compiles its ignore patterns
func (cfg *Config) compileIgnore() ([]glob.Glob, error) {
	t := cfg.SimilarityThreshold
	if math.IsNaN(t) || t < 0 || t > 1 {
		return nil, &ConfigurationError{Field: "similarity_threshold", Value: t, Reason: "must be between 0 and 1"}
	}
	if cfg.Scorer == nil && cfg.ScoringFunction.Scorer() == nil {
		return nil, &ConfigurationError{
			Field:  "scoring_function",
			Value:  cfg.ScoringFunction,
			Reason: fmt.Sprintf("expected %q or %q", EditDistance, TokenOverlap),
		}
	}

	globs := make([]glob.Glob, 0, len(cfg.Ignore))
	for _, pattern := range cfg.Ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, &ConfigurationError{Field: "ignore", Value: pattern, Reason: err.Error()}
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func (cfg *Config) scorer() Scorer {
	if cfg.Scorer != nil {
		return cfg.Scorer
	}
	return cfg.ScoringFunction.Scorer()
}

func (cfg *Config) logger() logrus.FieldLogger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return &logrus.Logger{
		Out:       io.Discard,
		Formatter: new(logrus.TextFormatter),
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.PanicLevel,
	}
}

// LoadConfig decodes YAML configuration from r. Keys missing from the
// document keep their default values, unknown keys are an error
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile reads configuration from a YAML file at path
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening config")
	}
	defer f.Close()

	cfg, err := LoadConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}
