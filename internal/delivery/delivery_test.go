package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/prsentry/internal/heuristic"
	"github.com/dshills/prsentry/internal/review"
)

type fakeDestination struct {
	name   string
	detail string
	err    error
	calls  atomic.Int32
}

func (f *fakeDestination) Name() string { return f.name }

func (f *fakeDestination) Deliver(_ context.Context, _ Target, _ Message) (string, error) {
	f.calls.Add(1)
	return f.detail, f.err
}

var testTarget = Target{Owner: "a", Repo: "b", PRNumber: 1}

func sampleResult() review.Result {
	return review.Result{
		OverallAssessment: "Mostly fine.",
		Approve:           false,
		Concerns: []review.Concern{
			{FilePath: "main.go", LineStart: 2, LineEnd: 2, Severity: review.SeverityHigh, Type: "Bug", Description: "nil map write", Suggestion: "initialize the map"},
			{FilePath: "db.go", LineStart: 10, LineEnd: 12, Severity: review.SeverityCritical, Type: "Security", Description: "SQL built from input"},
			{FilePath: "util.go", LineStart: 1, LineEnd: 1, Severity: review.SeverityLow, Type: "Readability", Description: "long name"},
			{FilePath: "x.go", LineStart: 3, LineEnd: 4, Severity: review.SeverityMedium, Type: "Best Practice", Description: "unchecked error"},
		},
	}
}

func TestMultiplexer_IndependentOutcomes(t *testing.T) {
	ok := &fakeDestination{name: "ok", detail: "posted"}
	bad := &fakeDestination{name: "bad", err: errors.New("boom")}
	skip := &fakeDestination{name: "skip", err: ErrMissingCredential}

	m := NewMultiplexer(nil, ok, bad, skip)
	outcomes := m.Deliver(context.Background(), testTarget, Message{Mode: review.ModeReview, Result: sampleResult()})

	require.Len(t, outcomes, 3)
	assert.Equal(t, Outcome{Destination: "ok", Mode: "review", Status: StatusSucceeded, Detail: "posted"}, outcomes[0])
	assert.Equal(t, StatusFailed, outcomes[1].Status)
	assert.Equal(t, "boom", outcomes[1].Detail)
	assert.Equal(t, StatusSkipped, outcomes[2].Status)
	assert.True(t, outcomes[0].Succeeded())
	assert.False(t, outcomes[2].Succeeded())
	assert.Equal(t, 1, Failed(outcomes))

	for _, d := range []*fakeDestination{ok, bad, skip} {
		assert.Equal(t, int32(1), d.calls.Load(), d.name)
	}
}

func TestMultiplexer_Only(t *testing.T) {
	comment := &fakeDestination{name: DestinationComment}
	chat := &fakeDestination{name: DestinationChat}

	m := NewMultiplexer(nil, comment, chat).Only(DestinationComment)
	assert.Equal(t, []string{DestinationComment}, m.Names())

	outcomes := m.Deliver(context.Background(), testTarget, Message{Text: TestCommentText})
	require.Len(t, outcomes, 1)
	assert.Equal(t, int32(0), chat.calls.Load())
}

func TestCommentBody(t *testing.T) {
	body := CommentBody(Message{Mode: review.ModeReview, Result: sampleResult()}, 3)

	assert.Contains(t, body, "Automated PR Review (prsentry)** - Code Review")
	assert.Contains(t, body, "Overall: Mostly fine.\n")
	assert.Contains(t, body, "Decision: Request changes\n")
	assert.Contains(t, body, "Concerns: 4\n")
	assert.Contains(t, body, "1. [HIGH/Bug] main.go - nil map write\n")
	assert.Contains(t, body, "3. [LOW/Readability] util.go - long name\n")
	assert.NotContains(t, body, "4. [MEDIUM")
	assert.Contains(t, body, "...and 1 more")
	assert.NotContains(t, body, "Baseline:")
}

func TestCommentBody_Baseline(t *testing.T) {
	msg := Message{
		Result: review.Result{OverallAssessment: "ok", Approve: true, Concerns: []review.Concern{}},
		Baseline: &Baseline{
			Commits:  heuristic.ScoreCommits([]string{"Fix bug", "temp commit", "Add feature"}),
			Findings: heuristic.PlaceholderFindings,
		},
	}
	body := CommentBody(msg, 0)

	assert.Contains(t, body, "Decision: Approve\n")
	assert.Contains(t, body, "Baseline: commit quality 66% (2 good, 1 bad of 3)")
	assert.Contains(t, body, "pattern scan found nothing specific")
}

func TestCommentBody_Text(t *testing.T) {
	assert.Equal(t, TestCommentText, CommentBody(Message{Text: TestCommentText}, 3))
	assert.Contains(t, TestCommentText, "integration check")
}

func TestChatMessage(t *testing.T) {
	wm := ChatMessage(testTarget, Message{Mode: review.ModeVulnerability, Result: sampleResult()})

	assert.Equal(t, "PR Review: Changes Requested", wm.Text)
	require.NotNil(t, wm.Blocks)

	raw, err := json.Marshal(wm)
	require.NoError(t, err)
	s := string(raw)
	assert.Contains(t, s, "⚠️ PR #1 - a/b")
	assert.Contains(t, s, `*Decision:*\nChanges Requested`)
	assert.Contains(t, s, `*Concerns Found:*\n4`)
	assert.Contains(t, s, "Vulnerability Scan")
	assert.Contains(t, s, "*🔍 Detailed Concerns:*")
	assert.Contains(t, s, "*2. 🔴 CRITICAL - Security*")
	assert.Contains(t, s, "(Lines 10-12)")
	assert.Contains(t, s, "*Suggestion:* No suggestion provided")

	// header, fields, assessment, divider, concerns heading, 4 concerns, 3 dividers
	assert.Len(t, wm.Blocks.BlockSet, 12)
}

func TestChatMessage_NoConcerns(t *testing.T) {
	res := review.Result{OverallAssessment: "Clean.", Approve: true, Concerns: []review.Concern{}}
	wm := ChatMessage(Target{}, Message{Result: res})

	raw, err := json.Marshal(wm)
	require.NoError(t, err)
	s := string(raw)
	assert.Contains(t, s, "✅ New Pull Request Analyzed")
	assert.Contains(t, s, "No concerns found - code looks good!")
	assert.NotContains(t, s, "Detailed Concerns")
	assert.Equal(t, "PR Review: Approved", wm.Text)
}

func TestChatMessage_FallbackRespectsSectionLimit(t *testing.T) {
	res := review.FallbackResult(strings.Repeat("x", 8500))
	res.OverallAssessment = strings.Repeat("y", 4000)
	wm := ChatMessage(testTarget, Message{Result: res})

	for _, b := range wm.Blocks.BlockSet {
		sec, ok := b.(*slack.SectionBlock)
		if !ok || sec.Text == nil {
			continue
		}
		assert.LessOrEqual(t, utf8.RuneCountInString(sec.Text.Text), 3000)
	}
	last := wm.Blocks.BlockSet[len(wm.Blocks.BlockSet)-1].(*slack.SectionBlock)
	assert.True(t, strings.HasSuffix(last.Text.Text, "…"))
}

func TestChatMessage_CapsBlocks(t *testing.T) {
	concerns := make([]review.Concern, 30)
	for i := range concerns {
		concerns[i] = review.Concern{Severity: review.SeverityLow, Type: "Style", Description: "nit"}
	}
	target := Target{Owner: "a", Repo: strings.Repeat("r", 300), PRNumber: 1}
	wm := ChatMessage(target, Message{Result: review.Result{OverallAssessment: "Many nits.", Concerns: concerns}})

	blocks := wm.Blocks.BlockSet
	assert.LessOrEqual(t, len(blocks), 50)

	header := blocks[0].(*slack.HeaderBlock)
	assert.LessOrEqual(t, utf8.RuneCountInString(header.Text.Text), 150)

	last := blocks[len(blocks)-1].(*slack.SectionBlock)
	assert.Contains(t, last.Text.Text, "and 8 more concerns")

	raw, err := json.Marshal(wm)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "*22. 🟢 LOW - Style*")
	assert.NotContains(t, string(raw), "*23. ")
}

// githubServer records Authorization headers and answers the issue comment
// endpoint with the status chosen by respond.
type githubServer struct {
	mu      sync.Mutex
	auths   []string
	inline  map[string]any
	respond func(auth string) int
}

func (s *githubServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/a/b/issues/1/comments", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		s.mu.Lock()
		s.auths = append(s.auths, auth)
		s.mu.Unlock()

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"body":`)

		code := s.respond(auth)
		w.WriteHeader(code)
		if code >= 400 {
			w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		w.Write([]byte(`{"id":1}`))
	})
	mux.HandleFunc("GET /repos/a/b/pulls/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"number":1,"head":{"sha":"abc123"}}`))
	})
	mux.HandleFunc("POST /repos/a/b/pulls/1/comments", func(w http.ResponseWriter, r *http.Request) {
		var m map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		s.mu.Lock()
		s.inline = m
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":2}`))
	})
	return mux
}

func newTestGitHub(t *testing.T, url, token string, inline bool) *GitHub {
	t.Helper()
	g, err := NewGitHub(GitHubOptions{Token: token, BaseURL: url, Inline: inline}, nil)
	require.NoError(t, err)
	return g
}

func TestGitHub_PrimarySchemeSucceeds(t *testing.T) {
	gs := &githubServer{respond: func(string) int { return http.StatusCreated }}
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	g := newTestGitHub(t, server.URL, "tok", false)
	detail, err := g.Deliver(context.Background(), testTarget, Message{Result: sampleResult()})
	require.NoError(t, err)
	assert.Contains(t, detail, "token scheme")
	assert.Equal(t, []string{"token tok"}, gs.auths)
}

func TestGitHub_FallsBackOn401(t *testing.T) {
	gs := &githubServer{respond: func(auth string) int {
		if strings.HasPrefix(auth, "Bearer ") {
			return http.StatusCreated
		}
		return http.StatusUnauthorized
	}}
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	m := NewMultiplexer(nil, newTestGitHub(t, server.URL, "tok", false))
	outcomes := m.Deliver(context.Background(), testTarget, Message{Result: sampleResult()})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Succeeded(), outcomes[0].Detail)
	assert.Equal(t, []string{"token tok", "Bearer tok"}, gs.auths)
}

func TestGitHub_BothSchemesRejected(t *testing.T) {
	gs := &githubServer{respond: func(string) int { return http.StatusUnauthorized }}
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	_, err := newTestGitHub(t, server.URL, "tok", false).Deliver(context.Background(), testTarget, Message{Result: sampleResult()})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSkipped))
	assert.Len(t, gs.auths, 2)
}

func TestGitHub_NoFallbackOnOtherErrors(t *testing.T) {
	gs := &githubServer{respond: func(string) int { return http.StatusForbidden }}
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	_, err := newTestGitHub(t, server.URL, "tok", false).Deliver(context.Background(), testTarget, Message{Result: sampleResult()})
	require.Error(t, err)
	assert.Len(t, gs.auths, 1)
}

func TestGitHub_Non201IsFailure(t *testing.T) {
	gs := &githubServer{respond: func(string) int { return http.StatusOK }}
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	_, err := newTestGitHub(t, server.URL, "tok", false).Deliver(context.Background(), testTarget, Message{Result: sampleResult()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 200")
}

func TestGitHub_SkipsWithoutCredentialOrTarget(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	_, err := newTestGitHub(t, server.URL, "", false).Deliver(context.Background(), testTarget, Message{})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.ErrorIs(t, err, ErrSkipped)

	_, err = newTestGitHub(t, server.URL, "tok", false).Deliver(context.Background(), Target{Owner: "a"}, Message{})
	assert.ErrorIs(t, err, ErrMissingTarget)

	assert.Equal(t, int32(0), hits.Load())
}

func TestGitHub_InlineComment(t *testing.T) {
	gs := &githubServer{respond: func(string) int { return http.StatusCreated }}
	server := httptest.NewServer(gs.handler(t))
	defer server.Close()

	target := testTarget
	target.Diff = "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1,2 +1,3 @@\n package main\n+import \"os\"\n func main() {}\n"

	detail, err := newTestGitHub(t, server.URL, "tok", true).Deliver(context.Background(), target, Message{Result: sampleResult()})
	require.NoError(t, err)
	assert.Contains(t, detail, "inline comment on main.go:2")

	require.NotNil(t, gs.inline)
	assert.Equal(t, "abc123", gs.inline["commit_id"])
	assert.Equal(t, "main.go", gs.inline["path"])
	assert.Equal(t, float64(2), gs.inline["position"])
	assert.Contains(t, gs.inline["body"], "nil map write")
}

func TestGitHub_InlineFailureKeepsSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/a/b/issues/1/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	})
	mux.HandleFunc("GET /repos/a/b/pulls/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	target := testTarget
	target.Diff = "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1,1 +1,2 @@\n package main\n+var x = 1\n"

	detail, err := newTestGitHub(t, server.URL, "tok", true).Deliver(context.Background(), target, Message{Result: sampleResult()})
	require.NoError(t, err)
	assert.NotContains(t, detail, "inline")
}

func TestSlack_Deliver(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := NewSlack(server.URL, 0, nil)
	detail, err := s.Deliver(context.Background(), testTarget, Message{Result: sampleResult()})
	require.NoError(t, err)
	assert.Equal(t, "chat message posted (12 blocks)", detail)
	assert.Equal(t, "PR Review: Changes Requested", got["text"])
	assert.Len(t, got["blocks"], 12)
}

func TestSlack_Non200IsFailure(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := NewMultiplexer(nil, NewSlack(server.URL, 0, nil))
	outcomes := m.Deliver(context.Background(), testTarget, Message{Result: sampleResult()})

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSlack_SkipsWithoutWebhook(t *testing.T) {
	_, err := NewSlack("", 0, nil).Deliver(context.Background(), testTarget, Message{})
	assert.ErrorIs(t, err, ErrMissingCredential)
}
