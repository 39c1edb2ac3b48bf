package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/mission"
	"github.com/roach88/missionlog/internal/reduce"
	"github.com/roach88/missionlog/internal/schema"
	"github.com/roach88/missionlog/internal/status"
)

// ReduceOptions holds flags for the reduce command.
type ReduceOptions struct {
	Domain string
	Mode   string
	Seed   string
}

// reduceReport is the machine-readable reduction outcome.
type reduceReport struct {
	Domain      string          `json:"domain"`
	Mode        string          `json:"mode"`
	State       any             `json:"state"`
	Anomalies   []event.Anomaly `json:"anomalies,omitempty"`
	Processed   int             `json:"processed"`
	LastEventID string          `json:"last_event_id,omitempty"`
}

// NewReduceCommand replays a JSONL log through a domain reducer.
//
// A strict-mode integrity violation exits 1 and identifies the offending
// event; permissive mode reports anomalies and exits 0.
func NewReduceCommand(root *RootOptions) *cobra.Command {
	opts := &ReduceOptions{}

	cmd := &cobra.Command{
		Use:   "reduce <log.jsonl>",
		Short: "Rebuild domain state from an event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReduce(cmd.OutOrStdout(), root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "mission", "domain reducer (status|mission)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "permissive", "reduction mode (strict|permissive)")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "YAML roster seed for strict partial-window reduction")

	return cmd
}

func runReduce(out io.Writer, root *RootOptions, opts *ReduceOptions, path string) error {
	formatter := &OutputFormatter{Format: root.Format, Writer: out}

	mode, err := reduce.ParseMode(opts.Mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse mode", err)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return WrapExitError(ExitCommandError, "load envelope schema", err)
	}

	events, errs := ReadLog(path, validator, LoadModeFailFast)
	if len(errs) > 0 {
		return formatter.Failure(ExitFailure, "E_LOG_INVALID", errs[0].Error(), nil)
	}

	var seed *mission.Seed
	if opts.Seed != "" {
		seed, err = LoadSeed(opts.Seed)
		if err != nil {
			return WrapExitError(ExitCommandError, "load seed", err)
		}
	}

	report := reduceReport{Domain: opts.Domain, Mode: mode.String()}
	switch opts.Domain {
	case "status":
		res, err := status.Reduce(events, mode)
		if err != nil {
			return integrityFailure(formatter, err)
		}
		report.State = res.State
		report.Anomalies = res.Anomalies
		report.Processed = res.Processed
		report.LastEventID = res.LastEventID
	case "mission":
		res, err := mission.Reduce(events, mode, seed)
		if err != nil {
			return integrityFailure(formatter, err)
		}
		report.State = res.State
		report.Anomalies = res.Anomalies
		report.Processed = res.Processed
		report.LastEventID = res.LastEventID
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown domain %q (status|mission)", opts.Domain))
	}

	return formatter.Success(report, func(w io.Writer) {
		fmt.Fprintf(w, "%s reduction (%s): %d events folded\n",
			report.Domain, report.Mode, report.Processed)
		for _, a := range report.Anomalies {
			fmt.Fprintf(w, "anomaly: %s\n", a)
		}
	})
}

func integrityFailure(formatter *OutputFormatter, err error) error {
	var ie *reduce.IntegrityError
	if errors.As(err, &ie) {
		return formatter.Failure(ExitFailure, "E_INTEGRITY", ie.Error(), map[string]any{
			"event_id":   ie.EventID,
			"event_type": string(ie.EventType),
			"reason":     ie.Reason,
		})
	}
	return WrapExitError(ExitCommandError, "reduce log", err)
}
