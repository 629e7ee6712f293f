package diff

import (
	"path"
	"strings"
)

// FileDiff is the patch text for a single file.
type FileDiff struct {
	Path string
	Text string
}

// Ext returns the lower-cased extension of the file path, including the dot.
func (f FileDiff) Ext() string {
	return strings.ToLower(path.Ext(f.Path))
}

// ParseUnified splits a unified diff into per-file patches. Sections start at
// "diff --git" headers; a diff without them is split on "--- "/"+++ " file
// header pairs instead, and a bare hunk list yields a single unnamed file.
func ParseUnified(input string) []FileDiff {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	if strings.Contains(input, "diff --git ") {
		return splitOn(input, func(lines []string, i int) bool {
			return strings.HasPrefix(lines[i], "diff --git ")
		})
	}
	if strings.Contains(input, "\n+++ ") {
		return splitOn(input, func(lines []string, i int) bool {
			return strings.HasPrefix(lines[i], "--- ") &&
				i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ ")
		})
	}
	return []FileDiff{{Text: ensureNewline(input)}}
}

func splitOn(input string, isHeader func(lines []string, i int) bool) []FileDiff {
	lines := strings.Split(input, "\n")
	var files []FileDiff
	var current strings.Builder
	started := false

	flush := func() {
		s := current.String()
		if strings.TrimSpace(s) != "" {
			files = append(files, FileDiff{Path: pathFromSection(s), Text: s})
		}
		current.Reset()
	}

	for i, line := range lines {
		if isHeader(lines, i) {
			if started {
				flush()
			}
			started = true
		}
		if !started {
			continue
		}
		current.WriteString(line)
		if i < len(lines)-1 {
			current.WriteString("\n")
		}
	}
	if started {
		flush()
	}
	return files
}

func pathFromSection(section string) string {
	var fromHeader string
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ "):
			p := strings.TrimSpace(strings.TrimPrefix(line, "+++ "))
			if p != "/dev/null" {
				return strings.TrimPrefix(p, "b/")
			}
		case strings.HasPrefix(line, "diff --git ") && fromHeader == "":
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				fromHeader = strings.TrimPrefix(parts[3], "b/")
			}
		case strings.HasPrefix(line, "@@"):
			return fromHeader
		}
	}
	return fromHeader
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
