package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Event is one pull-request event delivered by the webhook source.
type Event struct {
	RepoOwner   string   `json:"repo_owner"`
	RepoName    string   `json:"repo_name"`
	PRNumber    PRNumber `json:"pr_number"`
	PRTitle     string   `json:"pr_title,omitempty"`
	Commits     []Commit `json:"commits"`
	CodeChanges string   `json:"code_changes,omitempty"`
}

// Commit is a commit attached to an Event.
type Commit struct {
	SHA         string `json:"sha"`
	Message     string `json:"message"`
	CodeChanges string `json:"code_changes,omitempty"`
}

// Repo returns "owner/name", or "" when either part is missing.
func (e Event) Repo() string {
	if e.RepoOwner == "" || e.RepoName == "" {
		return ""
	}
	return e.RepoOwner + "/" + e.RepoName
}

// Messages returns the commit messages in order.
func (e Event) Messages() []string {
	msgs := make([]string, len(e.Commits))
	for i, c := range e.Commits {
		msgs[i] = c.Message
	}
	return msgs
}

// PRNumber is a pull-request number that may be encoded as a JSON number or
// a numeric string.
type PRNumber int

func (n *PRNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimPrefix(strings.TrimSpace(s), "#")
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("pr_number %q: %w", s, err)
		}
		*n = PRNumber(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("pr_number: %w", err)
	}
	*n = PRNumber(int(f))
	return nil
}
