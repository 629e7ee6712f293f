package heuristic

import "strings"

var (
	goodKeywords = []string{"fix", "add", "update", "improve", "refactor", "implement", "create"}
	badKeywords  = []string{"temp", "debug", "test", "wip", "work in progress", "temporary"}
)

// Suggestions emitted by ScoreCommits.
const (
	SuggestCleanup   = "Consider cleaning up temporary or debug commits before merging"
	SuggestSplit     = "Consider breaking this PR into smaller, more focused changes"
	SuggestClarity   = "Review commit messages for clarity and consistency"
	SuggestSingleMsg = "Single commit PRs should have clear, descriptive messages"
)

const (
	maxCommitsBeforeSplit = 20
	minGoodRatio          = 0.7
)

// Class is the classification of a single commit message.
type Class string

const (
	ClassGood Class = "good"
	ClassBad  Class = "bad"
)

// CommitScore is the classification of one commit.
type CommitScore struct {
	Message string `json:"message"`
	Class   Class  `json:"class"`
}

// CommitQualityReport summarizes commit-message quality.
type CommitQualityReport struct {
	Total        int           `json:"total"`
	Good         int           `json:"good"`
	Bad          int           `json:"bad"`
	QualityScore int           `json:"qualityScore"`
	Suggestions  []string      `json:"suggestions"`
	Breakdown    []CommitScore `json:"breakdown,omitempty"`
}

// Classify returns the class of a commit message. Good keywords win over bad
// ones and anything unmatched counts as good.
func Classify(message string) Class {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, goodKeywords):
		return ClassGood
	case containsAny(msg, badKeywords):
		return ClassBad
	default:
		return ClassGood
	}
}

// ScoreCommits classifies each commit message and derives advisory
// suggestions.
func ScoreCommits(messages []string) CommitQualityReport {
	r := CommitQualityReport{
		Total:       len(messages),
		Suggestions: []string{},
		Breakdown:   make([]CommitScore, 0, len(messages)),
	}
	for _, m := range messages {
		class := Classify(m)
		if class == ClassBad {
			r.Bad++
		} else {
			r.Good++
		}
		r.Breakdown = append(r.Breakdown, CommitScore{Message: m, Class: class})
	}

	if r.Bad > 0 {
		r.Suggestions = append(r.Suggestions, SuggestCleanup)
	}
	if r.Total > maxCommitsBeforeSplit {
		r.Suggestions = append(r.Suggestions, SuggestSplit)
	}
	if r.Total > 0 && float64(r.Good)/float64(r.Total) < minGoodRatio {
		r.Suggestions = append(r.Suggestions, SuggestClarity)
	}
	if r.Total == 1 && r.Bad == 1 {
		r.Suggestions = append(r.Suggestions, SuggestSingleMsg)
	}

	if r.Total > 0 {
		r.QualityScore = r.Good * 100 / r.Total
	}
	return r
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
