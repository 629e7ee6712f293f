package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoSource is returned when the retriever has no codebase configured.
var ErrNoSource = errors.New("no codebase path configured")

var termRE = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]+`)

// Options configures a Retriever.
type Options struct {
	// SourcePath is a codebase dump file or a directory to walk.
	SourcePath string
	// Dir holds the index database. Empty disables persistence.
	Dir          string
	ChunkSize    int
	ChunkOverlap int
}

type document struct {
	text  string
	terms map[string]int
}

// Retriever serves top-k codebase chunks for a query. The index is built on
// first use, exactly once even under concurrent callers; afterwards reads
// take no lock.
type Retriever struct {
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	ready  atomic.Bool
	builds int

	docs []document
	idf  map[string]float64
}

// NewRetriever creates a Retriever. Nothing is read until the first Build or
// Retrieve call.
func NewRetriever(opts Options, logger *slog.Logger) *Retriever {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap <= 0 {
		opts.ChunkOverlap = DefaultChunkOverlap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{opts: opts, logger: logger}
}

// Build constructs the index if it has not been built yet.
func (r *Retriever) Build(ctx context.Context) error {
	if r.ready.Load() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready.Load() {
		return nil
	}

	start := time.Now()
	chunks, reused, err := r.loadChunks(ctx)
	if err != nil {
		return err
	}
	r.docs, r.idf = buildDocuments(chunks)
	r.builds++
	r.ready.Store(true)

	r.logger.Info("retrieval index ready",
		"chunks", len(r.docs),
		"reused", reused,
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// Len returns the number of indexed chunks, building the index if needed.
func (r *Retriever) Len(ctx context.Context) (int, error) {
	if err := r.Build(ctx); err != nil {
		return 0, err
	}
	return len(r.docs), nil
}

// Retrieve returns up to k chunks ranked by tf-idf weighted term overlap
// with query. Chunks sharing no term with the query are never returned.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if err := r.Build(ctx); err != nil {
		return nil, err
	}
	if k <= 0 || len(r.docs) == 0 {
		return nil, nil
	}

	qTerms := termCounts(query)

	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i, d := range r.docs {
		var s float64
		for t := range qTerms {
			if tf := d.terms[t]; tf > 0 {
				s += (1 + math.Log(float64(tf))) * r.idf[t]
			}
		}
		if s > 0 {
			hits = append(hits, scored{idx: i, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = r.docs[h.idx].text
	}
	return out, nil
}

// loadChunks returns the chunks for the configured source, reusing the
// persisted index when its fingerprint matches.
func (r *Retriever) loadChunks(ctx context.Context) ([]string, bool, error) {
	if r.opts.SourcePath == "" {
		return nil, false, ErrNoSource
	}
	text, err := LoadSource(r.opts.SourcePath)
	if err != nil {
		return nil, false, err
	}
	fp := Fingerprint(text, r.opts.ChunkSize, r.opts.ChunkOverlap)

	if r.opts.Dir == "" {
		return Split(text, r.opts.ChunkSize, r.opts.ChunkOverlap), false, nil
	}

	path, err := DBPath(r.opts.Dir)
	if err != nil {
		return nil, false, err
	}
	store, err := OpenStore(path)
	if err != nil {
		return nil, false, err
	}
	defer store.Close()

	stored, err := store.Fingerprint(ctx)
	if err != nil {
		return nil, false, err
	}
	if stored == fp {
		chunks, err := store.Chunks(ctx)
		if err != nil {
			return nil, false, err
		}
		return chunks, true, nil
	}

	chunks := Split(text, r.opts.ChunkSize, r.opts.ChunkOverlap)
	if err := store.Replace(ctx, fp, chunks); err != nil {
		return nil, false, fmt.Errorf("persisting index: %w", err)
	}
	return chunks, false, nil
}

func buildDocuments(chunks []string) ([]document, map[string]float64) {
	docs := make([]document, len(chunks))
	df := map[string]int{}
	for i, c := range chunks {
		terms := termCounts(c)
		docs[i] = document{text: c, terms: terms}
		for t := range terms {
			df[t]++
		}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for t, d := range df {
		idf[t] = math.Log(1 + n/float64(d))
	}
	return docs, idf
}

func termCounts(text string) map[string]int {
	counts := map[string]int{}
	for _, t := range termRE.FindAllString(text, -1) {
		counts[strings.ToLower(t)]++
	}
	return counts
}
