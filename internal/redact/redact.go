package redact

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dshills/prsentry/internal/diff"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Generic secrets/tokens/passwords in quoted assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// Authorization header values
	regexp.MustCompile(`(?i)(Bearer|token)\s+[A-Za-z0-9._-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+([A-Z]+\s+)?PRIVATE KEY-----`),
	// GitHub classic and fine-grained tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`),
	// Slack tokens and incoming-webhook URLs
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`https://hooks\.slack\.com/services/[A-Za-z0-9/_-]+`),
	// NVIDIA API catalog keys
	regexp.MustCompile(`nvapi-[A-Za-z0-9_-]{20,}`),
	// Anthropic and OpenAI API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// Long hex strings in an assignment
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	for _, pat := range secretPatterns {
		text = pat.ReplaceAllLiteralString(text, placeholder)
	}
	return text
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// "**/.env" style patterns match on the file name
		cleanPattern := strings.TrimPrefix(pattern, "**/")
		if cleanPattern != pattern {
			matched, err = filepath.Match(cleanPattern, filepath.Base(path))
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Diff redacts a unified diff file by file. Patches of files matching
// pathPatterns are replaced wholesale; the rest have secrets redacted.
func Diff(text string, pathPatterns []string) string {
	if len(pathPatterns) == 0 {
		return Secrets(text)
	}
	files := diff.ParseUnified(text)
	if !anyPathMatches(files, pathPatterns) {
		return Secrets(text)
	}

	var b strings.Builder
	for _, f := range files {
		if f.Path != "" && ShouldRedactPath(f.Path, pathPatterns) {
			b.WriteString(fileHeader(f))
			b.WriteString(placeholder + " (file content redacted by path policy)\n")
			continue
		}
		b.WriteString(Secrets(f.Text))
	}
	return b.String()
}

func anyPathMatches(files []diff.FileDiff, patterns []string) bool {
	for _, f := range files {
		if f.Path != "" && ShouldRedactPath(f.Path, patterns) {
			return true
		}
	}
	return false
}

// fileHeader keeps the lines before the first hunk so the reader still sees
// which file changed.
func fileHeader(f diff.FileDiff) string {
	var b strings.Builder
	for _, line := range strings.Split(f.Text, "\n") {
		if strings.HasPrefix(line, "@@") {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Mask hides all but the last four characters of a credential for display.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
