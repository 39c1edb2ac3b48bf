package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/missionlog/internal/schema"
)

// validateReport summarizes structural validation of one log file.
type validateReport struct {
	Path   string   `json:"path"`
	Events int      `json:"events"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand checks JSONL logs against the envelope schema.
//
// All lines of every file are checked (collect-all, like a compiler);
// any invalid line makes the command exit 1.
func NewValidateCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <log.jsonl> [log.jsonl...]",
		Short: "Validate event logs against the envelope schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), root, args)
		},
	}
	return cmd
}

func runValidate(out io.Writer, root *RootOptions, paths []string) error {
	formatter := &OutputFormatter{Format: root.Format, Writer: out}

	validator, err := schema.NewValidator()
	if err != nil {
		return WrapExitError(ExitCommandError, "load envelope schema", err)
	}

	reports := make([]validateReport, 0, len(paths))
	failed := false
	for _, path := range paths {
		events, errs := ReadLog(path, validator, LoadModeCollectAll)
		report := validateReport{Path: path, Events: len(events)}
		for _, e := range errs {
			report.Errors = append(report.Errors, e.Error())
		}
		if len(errs) > 0 {
			failed = true
		}
		reports = append(reports, report)
	}

	if failed {
		return formatter.Failure(ExitFailure, "E_LOG_INVALID", "one or more logs failed validation", reports)
	}

	return formatter.Success(reports, func(w io.Writer) {
		for _, r := range reports {
			fmt.Fprintf(w, "%s: %d events ok\n", r.Path, r.Events)
		}
	})
}
