package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/missionlog/internal/conflict"
	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/merge"
	"github.com/roach88/missionlog/internal/mission"
	"github.com/roach88/missionlog/internal/schema"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	Output string
}

// mergeReport is the machine-readable summary of a merge.
type mergeReport struct {
	Inputs    int                   `json:"inputs"`
	Events    int                   `json:"events"`
	Conflicts []conflict.Resolution `json:"conflicts,omitempty"`
	Anomalies []event.Anomaly       `json:"anomalies,omitempty"`
	Digest    string                `json:"digest"`
}

// NewMergeCommand merges N JSONL logs into one canonical log.
//
// The merged log goes to --output (default stdout); the report (conflict
// trace, anomalies, digest) goes to stdout in the configured format.
// Merge never fails on semantic problems - anomalies are reported and the
// offending events retained. Only unreadable/invalid input files fail.
func NewMergeCommand(root *RootOptions) *cobra.Command {
	opts := &MergeOptions{}

	cmd := &cobra.Command{
		Use:   "merge <log.jsonl> [log.jsonl...]",
		Short: "Merge event logs into one canonical log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd.OutOrStdout(), root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the merged JSONL log to this file")

	return cmd
}

func runMerge(out io.Writer, root *RootOptions, opts *MergeOptions, paths []string) error {
	formatter := &OutputFormatter{Format: root.Format, Writer: out}

	validator, err := schema.NewValidator()
	if err != nil {
		return WrapExitError(ExitCommandError, "load envelope schema", err)
	}

	logs := make([][]event.Event, 0, len(paths))
	for _, path := range paths {
		events, errs := ReadLog(path, validator, LoadModeFailFast)
		if len(errs) > 0 {
			return formatter.Failure(ExitFailure, "E_LOG_INVALID", errs[0].Error(), nil)
		}
		logs = append(logs, events)
		slog.Debug("log loaded", "path", path, "events", len(events))
	}

	// The union table: merge is domain-agnostic, so every registered
	// domain's precedence rules apply.
	table := conflict.Merge(mission.Spec(nil).Conflicts)

	result, err := merge.Merge(table, logs...)
	if err != nil {
		return WrapExitError(ExitCommandError, "merge logs", err)
	}

	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "create output", err)
		}
		defer f.Close()
		if err := WriteLog(f, result.Events); err != nil {
			return WrapExitError(ExitCommandError, "write merged log", err)
		}
	} else if root.Format != "json" {
		if err := WriteLog(out, result.Events); err != nil {
			return WrapExitError(ExitCommandError, "write merged log", err)
		}
	}

	report := mergeReport{
		Inputs:    len(paths),
		Events:    len(result.Events),
		Conflicts: result.Conflicts,
		Anomalies: result.Anomalies,
		Digest:    result.Digest,
	}

	return formatter.Success(report, func(w io.Writer) {
		fmt.Fprintf(w, "merged %d logs: %d events, %d conflict groups, %d anomalies\n",
			report.Inputs, report.Events, len(report.Conflicts), len(report.Anomalies))
		for _, a := range report.Anomalies {
			fmt.Fprintf(w, "anomaly: %s\n", a)
		}
		fmt.Fprintf(w, "digest: %s\n", report.Digest)
	})
}
