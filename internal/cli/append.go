package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/store"
)

// AppendOptions holds flags for the append command.
type AppendOptions struct {
	DBPath      string
	Type        string
	Aggregate   string
	Payload     string
	Correlation string
	Parent      string
	Origin      string
	Tier        int
}

// NewAppendCommand stamps and appends one event to the local log.
//
// The logical clock resumes past the highest clock value already in the
// log (Lamport observe), so events appended after an import sort after
// everything the producer has seen.
func NewAppendCommand(root *RootOptions) *cobra.Command {
	opts := &AppendOptions{}

	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append an event to the local log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(cmd.OutOrStdout(), root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "missionlog.db", "path to the local log database")
	cmd.Flags().StringVar(&opts.Type, "type", "", "event type tag (required)")
	cmd.Flags().StringVar(&opts.Aggregate, "aggregate", "", "aggregate ref the event concerns (required)")
	cmd.Flags().StringVar(&opts.Payload, "payload", "", "JSON payload")
	cmd.Flags().StringVar(&opts.Correlation, "correlation", "", "correlation ID (default: new)")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "causal parent event ID")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "origin ID (default: hostname)")
	cmd.Flags().IntVar(&opts.Tier, "tier", 0, "sharing-scope tier")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("aggregate")

	return cmd
}

func runAppend(out io.Writer, root *RootOptions, opts *AppendOptions) error {
	formatter := &OutputFormatter{Format: root.Format, Writer: out}

	origin := opts.Origin
	if origin == "" {
		host, err := os.Hostname()
		if err != nil {
			return WrapExitError(ExitCommandError, "resolve origin", err)
		}
		origin = host
	}

	s, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open log database", err)
	}
	defer s.Close()

	ctx := context.Background()
	maxClock, err := s.MaxClock(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "resume clock", err)
	}
	clock := event.NewClockAt(maxClock)

	gen := event.UUIDv7Generator{}
	correlation := opts.Correlation
	if correlation == "" {
		correlation = gen.NewID()
	}

	ev := event.Event{
		ID:            gen.NewID(),
		Type:          event.Type(opts.Type),
		AggregateRef:  opts.Aggregate,
		OriginTime:    time.Now().UTC(),
		OriginID:      origin,
		LogicalClock:  clock.Tick(),
		CausalParent:  opts.Parent,
		CorrelationID: correlation,
		Tier:          opts.Tier,
	}
	if opts.Payload != "" {
		ev.Payload = json.RawMessage(opts.Payload)
	}

	if err := ev.Validate(); err != nil {
		return formatter.Failure(ExitFailure, "E_ENVELOPE", err.Error(), nil)
	}

	inserted, err := s.Append(ctx, ev)
	if err != nil {
		return WrapExitError(ExitCommandError, "append event", err)
	}

	slog.Debug("event appended",
		"id", ev.ID,
		"type", ev.Type,
		"aggregate", ev.AggregateRef,
		"clock", ev.LogicalClock,
		"inserted", inserted,
	)

	return formatter.Success(ev, func(w io.Writer) {
		fmt.Fprintf(w, "appended %s (%s) clock=%d aggregate=%s\n",
			ev.ID, ev.Type, ev.LogicalClock, ev.AggregateRef)
	})
}
