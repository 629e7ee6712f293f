package delivery

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/dshills/prsentry/internal/heuristic"
	"github.com/dshills/prsentry/internal/review"
)

// TestCommentText is posted instead of a review when the pipeline runs in
// test mode.
const TestCommentText = "Test comment from prsentry: integration check ✅"

const defaultChatTitle = "New Pull Request Analyzed"

// DefaultMaxConcerns is how many concerns a PR comment lists.
const DefaultMaxConcerns = 3

// Slack rejects section text over 3000 characters, header text over 150 and
// messages with more than 50 blocks.
const (
	maxChatSectionText = 2900
	maxChatHeaderText  = 150
	// 5 fixed blocks + 2 per listed concern + 1 overflow section = 50.
	maxChatConcerns = 22
)

func decisionWords(approve bool) (comment, chat string) {
	if approve {
		return "Approve", "Approved"
	}
	return "Request changes", "Changes Requested"
}

// CommentBody renders msg as a markdown PR comment listing at most
// maxConcerns concerns.
func CommentBody(msg Message, maxConcerns int) string {
	if msg.Text != "" {
		return msg.Text
	}
	if maxConcerns <= 0 {
		maxConcerns = DefaultMaxConcerns
	}

	res := msg.Result
	decision, _ := decisionWords(res.Approve)

	var b strings.Builder
	b.WriteString("**Automated PR Review (prsentry)**")
	if msg.Mode != "" {
		fmt.Fprintf(&b, " - %s", msg.Mode.Title())
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Overall: %s\n", res.OverallAssessment)
	fmt.Fprintf(&b, "Decision: %s\n", decision)
	fmt.Fprintf(&b, "Concerns: %d\n", len(res.Concerns))

	if len(res.Concerns) > 0 {
		b.WriteString("\n")
		for i, c := range res.Concerns {
			if i == maxConcerns {
				fmt.Fprintf(&b, "\n_...and %d more_\n", len(res.Concerns)-maxConcerns)
				break
			}
			fmt.Fprintf(&b, "%d. [%s/%s] %s - %s\n", i+1, c.Severity, c.Type, orUnknown(c.FilePath), c.Description)
		}
	}

	if msg.Baseline != nil {
		b.WriteString("\n")
		b.WriteString(baselineLine(*msg.Baseline))
		b.WriteString("\n")
	}
	return b.String()
}

func baselineLine(bl Baseline) string {
	cq := bl.Commits
	line := fmt.Sprintf("Baseline: commit quality %d%% (%d good, %d bad of %d)", cq.QualityScore, cq.Good, cq.Bad, cq.Total)
	if heuristic.Matched(bl.Findings) {
		line += fmt.Sprintf(", pattern scan found %d potential issue(s)", len(bl.Findings))
	} else {
		line += ", pattern scan found nothing specific"
	}
	return line
}

// InlineBody renders a single concern for a file-scoped review comment.
func InlineBody(c review.Concern) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s %s** (%s)\n\n", severityEmoji(c.Severity), c.Type, c.Severity)
	if c.VulnerabilityType != "" {
		fmt.Fprintf(&b, "Vulnerability: %s\n\n", c.VulnerabilityType)
	}
	b.WriteString(c.Description)
	if c.Suggestion != "" {
		fmt.Fprintf(&b, "\n\n**Suggestion:** %s", c.Suggestion)
	}
	return b.String()
}

func severityEmoji(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "🔴"
	case review.SeverityHigh:
		return "🟠"
	case review.SeverityMedium:
		return "🟡"
	case review.SeverityLow:
		return "🟢"
	default:
		return "⚪"
	}
}

// ChatMessage renders msg as a block-structured Slack webhook message.
func ChatMessage(target Target, msg Message) *slack.WebhookMessage {
	if msg.Text != "" {
		return &slack.WebhookMessage{Text: msg.Text}
	}

	res := msg.Result
	_, decision := decisionWords(res.Approve)

	title := target.Label()
	if title == "" {
		title = defaultChatTitle
	}
	status := "⚠️"
	if res.Approve {
		status = "✅"
	}

	fields := []*slack.TextBlockObject{
		markdown(fmt.Sprintf("*Decision:*\n%s", decision)),
		markdown(fmt.Sprintf("*Concerns Found:*\n%d", len(res.Concerns))),
	}
	if msg.Mode != "" {
		fields = append(fields, markdown(fmt.Sprintf("*Analysis:*\n%s", msg.Mode.Title())))
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(status+" "+title, maxChatHeaderText), true, false)),
		slack.NewSectionBlock(nil, fields, nil),
		slack.NewSectionBlock(markdown(truncate("*Overall Assessment:*\n"+res.OverallAssessment, maxChatSectionText)), nil, nil),
		slack.NewDividerBlock(),
	}

	if len(res.Concerns) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(markdown("✨ *No concerns found - code looks good!*"), nil, nil))
	} else {
		blocks = append(blocks, slack.NewSectionBlock(markdown("*🔍 Detailed Concerns:*"), nil, nil))
		for i, c := range res.Concerns {
			if i == maxChatConcerns {
				more := fmt.Sprintf("_…and %d more concerns_", len(res.Concerns)-maxChatConcerns)
				blocks = append(blocks, slack.NewSectionBlock(markdown(more), nil, nil))
				break
			}
			blocks = append(blocks, slack.NewSectionBlock(markdown(truncate(chatConcern(i+1, c), maxChatSectionText)), nil, nil))
			if i < len(res.Concerns)-1 {
				blocks = append(blocks, slack.NewDividerBlock())
			}
		}
	}

	return &slack.WebhookMessage{
		Text:   "PR Review: " + decision,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func chatConcern(idx int, c review.Concern) string {
	suggestion := c.Suggestion
	if suggestion == "" {
		suggestion = "No suggestion provided"
	}
	return fmt.Sprintf("*%d. %s %s - %s*\n📁 `%s` (Lines %s-%s)\n*Issue:* %s\n*Suggestion:* %s",
		idx, severityEmoji(c.Severity), c.Severity, c.Type,
		orUnknown(c.FilePath), lineLabel(c.LineStart), lineLabel(c.LineEnd),
		c.Description, suggestion)
}

// truncate shortens s to at most limit characters, marking the cut with an
// ellipsis.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func lineLabel(n int) string {
	if n <= 0 {
		return "?"
	}
	return fmt.Sprint(n)
}

func orUnknown(path string) string {
	if path == "" {
		return "Unknown file"
	}
	return path
}
