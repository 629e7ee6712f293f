package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/dshills/prsentry/internal/diff"
	"github.com/dshills/prsentry/internal/review"
)

// DefaultCommentTimeout bounds each comment API request.
const DefaultCommentTimeout = 15 * time.Second

// Authorization schemes, tried in order. The alternate scheme is used only
// after the primary one is answered with 401.
const (
	SchemePrimary   = "token"
	SchemeAlternate = "Bearer"
)

// GitHubOptions configures the comment destination.
type GitHubOptions struct {
	Token string
	// BaseURL overrides the REST API root, e.g. for GitHub Enterprise.
	BaseURL     string
	Timeout     time.Duration
	Inline      bool
	MaxConcerns int
}

// GitHub posts results as pull-request comments.
type GitHub struct {
	opts    GitHubOptions
	clients []schemeClient
	logger  *slog.Logger
}

type schemeClient struct {
	scheme string
	gh     *gh.Client
}

// NewGitHub creates the comment destination. An empty token is allowed: the
// destination then reports every delivery as skipped.
func NewGitHub(opts GitHubOptions, logger *slog.Logger) (*GitHub, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCommentTimeout
	}
	if opts.MaxConcerns <= 0 {
		opts.MaxConcerns = DefaultMaxConcerns
	}

	var baseURL *url.URL
	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing comment API base URL: %w", err)
		}
		baseURL = u
	}

	// PR detail lookups are conditional GETs served from this cache.
	cache := httpcache.NewMemoryCacheTransport()

	g := &GitHub{opts: opts, logger: logger}
	for _, scheme := range []string{SchemePrimary, SchemeAlternate} {
		httpClient := &http.Client{
			Timeout:   opts.Timeout,
			Transport: &authTransport{scheme: scheme, token: opts.Token, base: cache},
		}
		client := gh.NewClient(httpClient)
		if baseURL != nil {
			client.BaseURL = baseURL
		}
		g.clients = append(g.clients, schemeClient{scheme: scheme, gh: client})
	}
	return g, nil
}

func (g *GitHub) Name() string { return DestinationComment }

// Deliver posts the top-level comment, falling back to the alternate auth
// scheme once on 401. When inline comments are enabled it then anchors the
// first locatable concern to the PR head commit; that step never affects the
// outcome.
func (g *GitHub) Deliver(ctx context.Context, target Target, msg Message) (string, error) {
	if g.opts.Token == "" {
		return "", ErrMissingCredential
	}
	if !target.Valid() {
		return "", ErrMissingTarget
	}

	body := CommentBody(msg, g.opts.MaxConcerns)

	for i, c := range g.clients {
		_, resp, err := c.gh.Issues.CreateComment(ctx, target.Owner, target.Repo, target.PRNumber,
			&gh.IssueComment{Body: gh.Ptr(body)})
		if err != nil {
			if statusOf(err) == http.StatusUnauthorized && i < len(g.clients)-1 {
				g.logger.Debug("comment API rejected auth scheme, trying alternate",
					"scheme", c.scheme, "repo", target.Owner+"/"+target.Repo, "pr", target.PRNumber)
				continue
			}
			return "", fmt.Errorf("posting PR comment (%s scheme): %w", c.scheme, err)
		}
		if resp.StatusCode != http.StatusCreated {
			return "", fmt.Errorf("posting PR comment: unexpected status %d", resp.StatusCode)
		}

		detail := fmt.Sprintf("comment posted with %s scheme", c.scheme)
		if g.opts.Inline && msg.Text == "" {
			if where, err := g.postInline(ctx, c.gh, target, msg.Result.Concerns); err != nil {
				g.logger.Warn("inline comment failed", "pr", target.PRNumber, "error", err)
			} else if where != "" {
				detail += "; inline comment on " + where
			}
		}
		return detail, nil
	}
	return "", errors.New("posting PR comment: no auth scheme accepted")
}

// postInline places a file-scoped comment for the first concern whose line
// falls inside the diff. It returns "" when no concern could be anchored.
func (g *GitHub) postInline(ctx context.Context, client *gh.Client, target Target, concerns []review.Concern) (string, error) {
	positions, err := diff.BuildPositionMap(diff.ParseUnified(target.Diff))
	if err != nil {
		return "", err
	}

	concern, position, ok := firstAnchored(positions, concerns)
	if !ok {
		return "", nil
	}

	pr, _, err := client.PullRequests.Get(ctx, target.Owner, target.Repo, target.PRNumber)
	if err != nil {
		return "", fmt.Errorf("fetching PR head commit: %w", err)
	}
	sha := pr.GetHead().GetSHA()
	if sha == "" {
		return "", errors.New("PR detail has no head commit")
	}

	_, _, err = client.PullRequests.CreateComment(ctx, target.Owner, target.Repo, target.PRNumber, &gh.PullRequestComment{
		Body:     gh.Ptr(InlineBody(concern)),
		CommitID: gh.Ptr(sha),
		Path:     gh.Ptr(concern.FilePath),
		Position: gh.Ptr(position),
	})
	if err != nil {
		return "", fmt.Errorf("posting inline comment: %w", err)
	}
	return fmt.Sprintf("%s:%d", concern.FilePath, concern.LineStart), nil
}

func firstAnchored(positions diff.PositionMap, concerns []review.Concern) (review.Concern, int, bool) {
	for _, c := range concerns {
		if c.FilePath == "" || c.Type == review.ParsingErrorType {
			continue
		}
		for _, line := range []int{c.LineStart, c.LineEnd} {
			if pos, ok := positions.Position(c.FilePath, line); ok {
				return c, pos, true
			}
		}
	}
	return review.Concern{}, 0, false
}

func statusOf(err error) int {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

// authTransport sets the Authorization header with a fixed scheme.
type authTransport struct {
	scheme string
	token  string
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", t.scheme+" "+t.token)
	return t.base.RoundTrip(req)
}
