package gitctx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/dshills/prsentry/internal/diff"
	"github.com/dshills/prsentry/internal/payload"
	"github.com/dshills/prsentry/internal/redact"
)

// Repo runs git in Dir. An empty Dir means the working directory.
type Repo struct {
	Dir string
	// Exclude drops files matching these glob patterns from diffs.
	Exclude []string
}

// Commit is one commit in a revision range.
type Commit struct {
	SHA     string
	Subject string
}

// Diff returns the combined diff for revRange. An empty range diffs the
// working tree, staged changes included, against HEAD. A two-dot range is
// compared from the merge base.
func (r Repo) Diff(ctx context.Context, revRange string) (string, error) {
	args := []string{"diff"}
	if revRange == "" {
		args = append(args, "HEAD")
	} else {
		args = append(args, mergeBaseRange(revRange))
	}
	out, err := r.git(ctx, append(args, "--")...)
	if err != nil {
		return "", fmt.Errorf("git diff %s: %w", revRange, err)
	}
	if len(r.Exclude) == 0 {
		return out, nil
	}

	var b strings.Builder
	for _, f := range diff.ParseUnified(out) {
		if !redact.ShouldRedactPath(f.Path, r.Exclude) {
			b.WriteString(f.Text)
		}
	}
	return b.String(), nil
}

// Commits returns the commits in revRange, oldest first.
func (r Repo) Commits(ctx context.Context, revRange string) ([]Commit, error) {
	if revRange == "" {
		return nil, nil
	}
	out, err := r.git(ctx, "rev-list", "--reverse", "--format=%s", revRange)
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", revRange, err)
	}

	// Output is "commit <sha>\n<subject>\n" per commit.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var commits []Commit
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "commit ") {
			continue
		}
		c := Commit{SHA: strings.TrimPrefix(line, "commit ")}
		if i+1 < len(lines) {
			c.Subject = strings.TrimSpace(lines[i+1])
			i++
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// Remote returns the owner and name of the origin remote. Both are empty
// when there is no origin or its URL is not a host/owner/name URL.
func (r Repo) Remote(ctx context.Context) (owner, name string) {
	out, err := r.git(ctx, "remote", "get-url", "origin")
	if err != nil {
		return "", ""
	}
	owner, name, _ = ParseRemote(strings.TrimSpace(out))
	return owner, name
}

var remoteRE = regexp.MustCompile(`[:/]([^/:]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRemote extracts owner and repository name from an SSH or HTTPS
// remote URL.
func ParseRemote(url string) (owner, name string, ok bool) {
	m := remoteRE.FindStringSubmatch(url)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func mergeBaseRange(revRange string) string {
	if strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		return strings.Replace(revRange, "..", "...", 1)
	}
	return revRange
}

func (r Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", err
	}
	return string(out), nil
}

// Source builds a webhook payload from a local revision range, so local
// changes run through the same pipeline as webhook events.
type Source struct {
	Repo  Repo
	Range string
	// PRNumber and Title identify the pull request results are delivered to.
	// Zero leaves the event without a delivery target.
	PRNumber int
	Title    string
}

// Event assembles the pull-request event for the range.
func (s Source) Event(ctx context.Context) (payload.Event, error) {
	d, err := s.Repo.Diff(ctx, s.Range)
	if err != nil {
		return payload.Event{}, err
	}
	commits, err := s.Repo.Commits(ctx, s.Range)
	if err != nil {
		return payload.Event{}, err
	}

	ev := payload.Event{
		PRNumber:    payload.PRNumber(s.PRNumber),
		PRTitle:     s.Title,
		CodeChanges: d,
	}
	ev.RepoOwner, ev.RepoName = s.Repo.Remote(ctx)
	for _, c := range commits {
		ev.Commits = append(ev.Commits, payload.Commit{SHA: c.SHA, Message: c.Subject})
	}
	return ev, nil
}

// Fetch returns the event encoded as a one-element webhook body.
func (s Source) Fetch(ctx context.Context) ([]byte, error) {
	ev, err := s.Event(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal([]payload.Event{ev})
}
