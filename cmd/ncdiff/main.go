// Command ncdiff compares the structure of NetCDF containers
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qri-io/ncdiff"
)

// exit codes
const (
	exitSame        = 0
	exitDifferences = 1
	exitError       = 2
)

// errDifferences is returned by commands that completed but found
// differences
var errDifferences = errors.New("containers differ")

// DebugConfig holds logging flags shared by every command
type DebugConfig struct {
	Debug bool
}

// SetupDebug configures the command's logger
func (c *DebugConfig) SetupDebug(log *logrus.Logger) {
	log.SetOutput(os.Stderr)
	if c.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
}

// Globals are flags available to every command
type Globals struct {
	DebugConfig
	Ncdump string

	log *logrus.Logger
	// accessor exposes a decoded container to the comparison
	accessor func(*ncdiff.Group) ncdiff.Accessor
}

func newGlobals() *Globals {
	return &Globals{log: logrus.New(), accessor: ncdiff.NewTreeAccessor}
}

func newRoot(g *Globals, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "ncdiff",
		Short: "compare the structure of NetCDF containers",
		Long: "ncdiff compares groups, dimensions, variables & attributes of two NetCDF containers, " +
			"pairing renamed entities by name similarity. Data values are never read.\n\n" +
			"Exit status is 0 when containers are structurally identical, 1 when they differ & 2 on error.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			g.SetupDebug(g.log)
		},
	}
	root.SetOut(stdout)
	root.PersistentFlags().BoolVar(&g.Debug, "debug", false, "turn on debug logging")
	root.PersistentFlags().StringVar(&g.Ncdump, "ncdump", "ncdump", "ncdump binary used to read NetCDF files")

	root.AddCommand(
		newCompare(g),
		newBatch(g),
		newSnapshot(g),
	)
	return root
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// an interrupt stops the comparison after the current group, the
	// partial report is still written
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx, newGlobals(), args, stdout, stderr)
}

func execute(ctx context.Context, g *Globals, args []string, stdout, stderr io.Writer) int {
	root := newRoot(g, stdout)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitSame
	case errors.Is(err, errDifferences):
		return exitDifferences
	default:
		fmt.Fprintf(stderr, "error: %s\n", err)
		return exitError
	}
}
