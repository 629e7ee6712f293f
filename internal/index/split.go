package index

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order when splitting text.
var DefaultSeparators = []string{"\n\n", "\n", ".", " ", ""}

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// Split breaks text into chunks of at most size bytes, preferring the
// coarsest separator that keeps pieces small. Neighbouring chunks share up
// to overlap bytes.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	s := splitter{size: size, overlap: overlap}
	return s.split(text, DefaultSeparators)
}

type splitter struct {
	size    int
	overlap int
}

func (s splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = runes(text)
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks, small []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if len(p) < s.size {
			small = append(small, p)
			continue
		}
		if len(small) > 0 {
			chunks = append(chunks, s.merge(small, sep)...)
			small = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, p)
		} else {
			chunks = append(chunks, s.split(p, rest)...)
		}
	}
	if len(small) > 0 {
		chunks = append(chunks, s.merge(small, sep)...)
	}
	return chunks
}

// merge joins pieces into chunks no longer than size, carrying trailing
// pieces totalling at most overlap bytes into the next chunk.
func (s splitter) merge(pieces []string, sep string) []string {
	var chunks, current []string
	total := 0

	for _, p := range pieces {
		joinLen := 0
		if len(current) > 0 {
			joinLen = len(sep)
		}
		if total+len(p)+joinLen > s.size && len(current) > 0 {
			if c := strings.TrimSpace(strings.Join(current, sep)); c != "" {
				chunks = append(chunks, c)
			}
			for total > s.overlap || (total+len(p)+joinLen > s.size && total > 0) {
				drop := len(current[0])
				if len(current) > 1 {
					drop += len(sep)
				}
				total -= drop
				current = current[1:]
				if len(current) == 0 {
					joinLen = 0
				}
			}
		}
		if len(current) > 0 {
			total += len(sep)
		}
		current = append(current, p)
		total += len(p)
	}
	if c := strings.TrimSpace(strings.Join(current, sep)); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

func runes(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for len(s) > 0 {
		_, n := utf8.DecodeRuneInString(s)
		out = append(out, s[:n])
		s = s[n:]
	}
	return out
}
