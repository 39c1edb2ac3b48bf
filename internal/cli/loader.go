package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/mission"
	"github.com/roach88/missionlog/internal/schema"
)

// LoadMode controls how errors are handled during log loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first invalid line.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects every invalid line before returning.
	LoadModeCollectAll
)

// ReadLog loads a JSONL event log from a file. Every non-empty line is
// validated against the CUE envelope schema, decoded, and re-validated as
// a constructed Event (tier-1 fail fast: malformed lines never reach the
// engine). Blank lines are skipped.
func ReadLog(path string, validator *schema.Validator, mode LoadMode) ([]event.Event, []error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, []error{fmt.Errorf("open log %s: %w", path, err)}
	}
	defer f.Close()

	events, errs := DecodeLog(f, validator, mode)
	for i, e := range errs {
		errs[i] = fmt.Errorf("%s: %w", path, e)
	}
	return events, errs
}

// DecodeLog reads JSONL events from a reader. See ReadLog.
func DecodeLog(r io.Reader, validator *schema.Validator, mode LoadMode) ([]event.Event, []error) {
	var (
		events []event.Event
		errs   []error
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if err := validator.Validate(line); err != nil {
			var ve *schema.ValidationError
			if ok := asValidation(err, &ve); ok {
				ve.Line = lineNo
				errs = append(errs, ve)
			} else {
				errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
			}
			if mode == LoadModeFailFast {
				return events, errs
			}
			continue
		}

		var ev event.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			errs = append(errs, fmt.Errorf("line %d: decode event: %w", lineNo, err))
			if mode == LoadModeFailFast {
				return events, errs
			}
			continue
		}
		if err := ev.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
			if mode == LoadModeFailFast {
				return events, errs
			}
			continue
		}

		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("read log: %w", err))
	}

	return events, errs
}

func asValidation(err error, target **schema.ValidationError) bool {
	ve, ok := err.(*schema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

// WriteLog writes events as JSONL, one compact record per line.
// The output of merge round-trips through ReadLog unchanged.
func WriteLog(w io.Writer, events []event.Event) error {
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
	}
	return nil
}

// LoadSeed reads a YAML roster seed file for strict-mode reduction over a
// partial event window.
func LoadSeed(path string) (*mission.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}

	var seed mission.Seed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}

	for i, m := range seed.Roster {
		if m.Participant == "" {
			return nil, fmt.Errorf("seed %s: roster[%d]: participant must not be empty", path, i)
		}
	}

	return &seed, nil
}
