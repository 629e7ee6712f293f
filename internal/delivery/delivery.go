package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/prsentry/internal/heuristic"
	"github.com/dshills/prsentry/internal/review"
)

// Destination names used in outcomes and configuration.
const (
	DestinationComment = "comment"
	DestinationChat    = "chat"
)

// ErrSkipped marks a destination that was not attempted. Destinations wrap
// it to explain why.
var ErrSkipped = errors.New("destination skipped")

var (
	ErrMissingCredential = fmt.Errorf("missing credential: %w", ErrSkipped)
	ErrMissingTarget     = fmt.Errorf("event does not identify a pull request: %w", ErrSkipped)
)

// Status is the result of one delivery attempt.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome records what happened at one destination.
type Outcome struct {
	Destination string `json:"destination"`
	Mode        string `json:"mode,omitempty"`
	Status      Status `json:"status"`
	Detail      string `json:"detail,omitempty"`
}

// Succeeded reports whether the message reached the destination.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// Target identifies the pull request a message is about.
type Target struct {
	Owner    string
	Repo     string
	PRNumber int
	Title    string
	// Diff is the resolved unified diff, used to anchor inline comments.
	Diff string
}

// Valid reports whether the target names a repository and pull request.
func (t Target) Valid() bool {
	return t.Owner != "" && t.Repo != "" && t.PRNumber > 0
}

// Label returns "PR #n - owner/repo", or "" for an invalid target.
func (t Target) Label() string {
	if !t.Valid() {
		return ""
	}
	return fmt.Sprintf("PR #%d - %s/%s", t.PRNumber, t.Owner, t.Repo)
}

// Baseline is the heuristic summary attached to a message.
type Baseline struct {
	Commits  heuristic.CommitQualityReport
	Findings []heuristic.Finding
}

// Message is what gets delivered. A non-empty Text replaces the formatted
// result entirely.
type Message struct {
	Mode     review.Mode
	Result   review.Result
	Baseline *Baseline
	Text     string
}

// Destination posts a message somewhere. Deliver returns a short detail on
// success, an error wrapping ErrSkipped when it did not attempt delivery, or
// any other error on failure.
type Destination interface {
	Name() string
	Deliver(ctx context.Context, target Target, msg Message) (string, error)
}

// Multiplexer delivers a message to every destination independently.
type Multiplexer struct {
	destinations []Destination
	logger       *slog.Logger
}

// NewMultiplexer creates a Multiplexer over destinations.
func NewMultiplexer(logger *slog.Logger, destinations ...Destination) *Multiplexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multiplexer{destinations: destinations, logger: logger}
}

// Only returns a Multiplexer restricted to the named destinations.
func (m *Multiplexer) Only(names ...string) *Multiplexer {
	var kept []Destination
	for _, d := range m.destinations {
		if slices.Contains(names, d.Name()) {
			kept = append(kept, d)
		}
	}
	return &Multiplexer{destinations: kept, logger: m.logger}
}

// Names lists the destination names in delivery order.
func (m *Multiplexer) Names() []string {
	names := make([]string, len(m.destinations))
	for i, d := range m.destinations {
		names[i] = d.Name()
	}
	return names
}

// Deliver posts msg to all destinations in parallel and returns one outcome
// per destination in configuration order. It never fails as a whole.
func (m *Multiplexer) Deliver(ctx context.Context, target Target, msg Message) []Outcome {
	outcomes := make([]Outcome, len(m.destinations))

	var g errgroup.Group
	for i, d := range m.destinations {
		g.Go(func() error {
			outcomes[i] = m.deliverOne(ctx, d, target, msg)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (m *Multiplexer) deliverOne(ctx context.Context, d Destination, target Target, msg Message) Outcome {
	out := Outcome{Destination: d.Name(), Mode: string(msg.Mode)}

	detail, err := d.Deliver(ctx, target, msg)
	switch {
	case err == nil:
		out.Status = StatusSucceeded
		out.Detail = detail
		m.logger.Info("delivered", "destination", out.Destination, "mode", out.Mode, "detail", detail)
	case errors.Is(err, ErrSkipped):
		out.Status = StatusSkipped
		out.Detail = err.Error()
		m.logger.Info("delivery skipped", "destination", out.Destination, "reason", err)
	default:
		out.Status = StatusFailed
		out.Detail = err.Error()
		m.logger.Error("delivery failed", "destination", out.Destination, "mode", out.Mode, "error", err)
	}
	return out
}

// Failed counts outcomes with StatusFailed.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == StatusFailed {
			n++
		}
	}
	return n
}
