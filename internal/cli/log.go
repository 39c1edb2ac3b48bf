package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	DBPath      string
	Correlation string
	Aggregate   string
	JSONL       bool
}

// NewLogCommand dumps the local log in canonical order.
//
// With --jsonl the output is a valid merge input: one compact event per
// line, round-trippable through the loader.
func NewLogCommand(root *RootOptions) *cobra.Command {
	opts := &LogOptions{}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Dump the local event log in canonical order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd.OutOrStdout(), root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "missionlog.db", "path to the local log database")
	cmd.Flags().StringVar(&opts.Correlation, "correlation", "", "restrict to one correlation ID")
	cmd.Flags().StringVar(&opts.Aggregate, "aggregate", "", "restrict to one aggregate ref")
	cmd.Flags().BoolVar(&opts.JSONL, "jsonl", false, "emit JSONL suitable as merge input")

	return cmd
}

func runLog(out io.Writer, root *RootOptions, opts *LogOptions) error {
	formatter := &OutputFormatter{Format: root.Format, Writer: out}

	s, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open log database", err)
	}
	defer s.Close()

	ctx := context.Background()
	var events []event.Event
	switch {
	case opts.Correlation != "":
		events, err = s.ReadByCorrelation(ctx, opts.Correlation)
	case opts.Aggregate != "":
		events, err = s.ReadByAggregate(ctx, opts.Aggregate)
	default:
		events, err = s.ReadAll(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "read log", err)
	}

	if opts.JSONL {
		if err := WriteLog(out, events); err != nil {
			return WrapExitError(ExitCommandError, "write log", err)
		}
		return nil
	}

	return formatter.Success(events, func(w io.Writer) {
		for _, ev := range events {
			fmt.Fprintf(w, "%6d  %s  %-26s  %s\n",
				ev.LogicalClock, ev.ID, ev.Type, ev.AggregateRef)
		}
		fmt.Fprintf(w, "%d events\n", len(events))
	})
}
