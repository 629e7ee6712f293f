package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPayload is returned when the body is not a non-empty JSON array.
	ErrEmptyPayload = errors.New("webhook returned empty or invalid payload")
	// ErrMissingDiff is returned when no diff can be resolved outside test mode.
	ErrMissingDiff = errors.New("no code_changes diff found in payload")
)

// Extraction is the event selected from a payload and its resolved diff.
type Extraction struct {
	Event Event
	Diff  string
}

// Latest decodes only the most recent (last) event of a webhook body.
// Older entries are never inspected, so a malformed one cannot abort a run.
func Latest(body []byte) (Event, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrEmptyPayload, err)
	}
	if len(raw) == 0 {
		return Event{}, ErrEmptyPayload
	}

	var ev Event
	if err := json.Unmarshal(raw[len(raw)-1], &ev); err != nil {
		return Event{}, fmt.Errorf("decoding latest event: %w", err)
	}
	return ev, nil
}

// ResolveDiff returns the diff of the event's last commit, falling back to
// the event's own code_changes.
func ResolveDiff(ev Event) string {
	if n := len(ev.Commits); n > 0 {
		if d := ev.Commits[n-1].CodeChanges; strings.TrimSpace(d) != "" {
			return d
		}
	}
	if strings.TrimSpace(ev.CodeChanges) != "" {
		return ev.CodeChanges
	}
	return ""
}

// Extract selects the most recent event in body and resolves its diff. In
// test mode a missing diff is not an error.
func Extract(body []byte, testMode bool) (Extraction, error) {
	latest, err := Latest(body)
	if err != nil {
		return Extraction{}, err
	}

	diff := ResolveDiff(latest)
	if diff == "" && !testMode {
		return Extraction{Event: latest}, ErrMissingDiff
	}
	return Extraction{Event: latest, Diff: diff}, nil
}
