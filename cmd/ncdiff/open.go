package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/qri-io/ncdiff"
	"github.com/qri-io/ncdiff/cdl"
	"github.com/qri-io/ncdiff/snapshot"
)

// open reads the structure of a container. CDL & snapshot files are decoded
// directly, anything else is handed to ncdump
func (g *Globals) open(ctx context.Context, path string) (*ncdiff.Group, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".cdl", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		root, err := cdl.Decode(f)
		return root, errors.Wrapf(err, "reading %s", path)
	case ".yaml", ".yml", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		root, err := snapshot.Decode(f)
		return root, errors.Wrapf(err, "reading %s", path)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	g.log.WithFields(logrus.Fields{"path": path, "ncdump": g.Ncdump}).Debug("dumping header")
	stderr := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, g.Ncdump, "-hs", path)
	cmd.Stderr = stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(err, "running %s on %s: %s", g.Ncdump, path, strings.TrimSpace(stderr.String()))
	}
	root, err := cdl.Parse(string(out))
	return root, errors.Wrapf(err, "parsing header of %s", path)
}
