// Package commands implements the despesas-cli command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"despesas/internal/buildinfo"
	"despesas/internal/records"
	"despesas/internal/report"
	"despesas/internal/services"
)

// Runtime is what a command needs from the process: the record store and,
// for queued imports, the ingestion publisher.
type Runtime struct {
	Store         records.Store
	Publisher     services.Publisher
	MaxCategories int
	Close         func() error
}

// Opener builds the runtime. withPublisher is set when the command will
// publish to the ingestion queue.
type Opener func(ctx context.Context, withPublisher bool) (*Runtime, error)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "despesas-cli",
		Short:   "Card expense reports from the command line",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newReportCommand(open),
		newMonthsCommand(open),
		newYearsCommand(),
		newImportCommand(open),
	)

	return rootCmd
}

// withRuntime opens the runtime, runs fn and closes it again.
func withRuntime(ctx context.Context, open Opener, withPublisher bool, fn func(*Runtime) error) error {
	rt, err := open(ctx, withPublisher)
	if err != nil {
		return err
	}
	defer func() {
		if rt.Close != nil {
			_ = rt.Close()
		}
	}()
	return fn(rt)
}

func (rt *Runtime) service() *report.Service {
	return report.NewService(rt.Store, report.NewEngine(rt.MaxCategories), nil)
}
