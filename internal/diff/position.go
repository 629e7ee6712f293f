package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// PositionMap maps new-file line numbers to review-comment diff positions.
//
// A position counts lines below the first hunk header of a file: the line
// right after that header is position 1, and later hunk headers take a
// position of their own.
type PositionMap map[string]map[int]int

// BuildPositionMap computes positions for every file in files.
func BuildPositionMap(files []FileDiff) (PositionMap, error) {
	pm := PositionMap{}
	for _, file := range files {
		m, err := filePositions(file.Text)
		if err != nil {
			return nil, fmt.Errorf("build position map for %q: %w", file.Path, err)
		}
		if len(m) > 0 {
			pm[file.Path] = m
		}
	}
	return pm, nil
}

// Position returns the diff position of line in the new version of path.
func (p PositionMap) Position(path string, line int) (int, bool) {
	fileMap, ok := p[path]
	if !ok {
		return 0, false
	}
	pos, ok := fileMap[line]
	return pos, ok
}

func filePositions(text string) (map[int]int, error) {
	positions := map[int]int{}

	pos := 0
	newLine := 0
	inPatch := false

	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if m := hunkHeaderRE.FindStringSubmatch(line); m != nil {
			start, err := strconv.Atoi(m[3])
			if err != nil {
				return nil, fmt.Errorf("invalid hunk header: %q", line)
			}
			newLine = start
			if inPatch {
				pos++
			}
			inPatch = true
			continue
		}
		if !inPatch {
			continue
		}

		pos++
		switch {
		case line == "", strings.HasPrefix(line, " "):
			positions[newLine] = pos
			newLine++
		case strings.HasPrefix(line, "+"):
			positions[newLine] = pos
			newLine++
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "\\"):
			// removed lines and "\ No newline at end of file" have no new-file line
		}
	}
	return positions, nil
}
