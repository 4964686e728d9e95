package ncdiff

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cases := []struct {
		description string
		input       string
		expect      *Config
	}{
		{"empty document", "", DefaultConfig()},
		{"comment only", "# nothing here\n", DefaultConfig()},
		{"partial", "similarity_threshold: 0.5\n", &Config{
			SimilarityThreshold: 0.5,
			ScoringFunction:     EditDistance,
			MatchGroups:         true,
		}},
		{"full", `similarity_threshold: 1
scoring_function: token-overlap
ignore:
  - "/*:history"
  - "/**/time_bnds"
compare_chunks: true
match_groups: false
`, &Config{
			SimilarityThreshold: 1,
			ScoringFunction:     TokenOverlap,
			Ignore:              []string{"/*:history", "/**/time_bnds"},
			CompareChunks:       true,
			MatchGroups:         false,
		}},
	}

	ignore := cmpopts.IgnoreFields(Config{}, "Scorer", "Logger", "Stats")
	for i, c := range cases {
		got, err := LoadConfig(strings.NewReader(c.input))
		if err != nil {
			t.Fatalf("%d. %s unexpected error: %s", i, c.description, err)
		}
		if diff := cmp.Diff(c.expect, got, ignore); diff != "" {
			t.Errorf("%d. %s result mismatch (-want +got):\n%s", i, c.description, diff)
		}
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cases := []struct {
		input string
		field string
		msg   string
	}{
		{"similarity_threshold: 1.5\n", "similarity_threshold", "invalid similarity_threshold 1.5: must be between 0 and 1"},
		{"scoring_function: soundex\n", "scoring_function", `invalid scoring_function soundex: expected "edit-distance" or "token-overlap"`},
		{"ignore: ['[']\n", "ignore", ""},
		{"threshold: 0.5\n", "", ""},
		{"similarity_threshold: [1]\n", "", ""},
	}

	for i, c := range cases {
		_, err := LoadConfig(strings.NewReader(c.input))
		require.Error(t, err, "case %d", i)

		var cfgErr *ConfigurationError
		if c.field == "" {
			assert.False(t, errors.As(err, &cfgErr), "case %d: decoding failures aren't configuration errors", i)
			assert.Contains(t, err.Error(), "decoding config")
			continue
		}
		require.True(t, errors.As(err, &cfgErr), "case %d: %v", i, err)
		assert.Equal(t, c.field, cfgErr.Field)
		if c.msg != "" {
			assert.Equal(t, c.msg, err.Error())
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ncdiff.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compare_chunks: true\n"), 0644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.CompareChunks)
	assert.Equal(t, DefaultSimilarityThreshold, cfg.SimilarityThreshold)

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, os.IsNotExist(errors.Cause(err)), "expected not-exist error, got %v", err)
}

func TestOptionConfig(t *testing.T) {
	stats := &Stats{}
	cfg := DefaultConfig()
	for _, opt := range []CompareOption{
		OptionSetStats(stats),
		OptionConfig(&Config{SimilarityThreshold: 0.2, ScoringFunction: TokenOverlap}),
		OptionIgnore("/a"),
		OptionConfig(nil),
	} {
		opt(cfg)
	}

	assert.Equal(t, 0.2, cfg.SimilarityThreshold)
	assert.Equal(t, TokenOverlap, cfg.ScoringFunction)
	assert.Equal(t, []string{"/a"}, cfg.Ignore)
	assert.False(t, cfg.MatchGroups)
	assert.True(t, cfg.Stats == stats, "stats pointer should survive OptionConfig")
	assert.NotNil(t, cfg.logger())
}

func TestValidateIgnorePatterns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ignore = []string{"/*:history", "/**/qc", "/{lat,lon}"}
	globs, err := cfg.compileIgnore()
	require.NoError(t, err)
	require.Len(t, globs, 3)

	w := &walker{ignore: globs}
	cases := map[string]bool{
		"/:history":          true,
		"/temp:history":      true,
		"/g1/temp:history":   false,
		"/a/b/qc":            true,
		"/qc":                false,
		"/lat":               true,
		"/g1/lat":            false,
		"/temp:units":        false,
		"/forecast:history2": false,
	}
	for name, expect := range cases {
		assert.Equal(t, expect, w.ignored(name), name)
	}
}
