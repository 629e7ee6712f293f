package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_SmallTextIsOneChunk(t *testing.T) {
	chunks := Split("hello world", 2000, 200)
	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestSplit_RespectsSizeAndOverlap(t *testing.T) {
	var paras []string
	for i := 0; i < 20; i++ {
		paras = append(paras, strings.Repeat("word ", 30)) // 150 bytes
	}
	text := strings.Join(paras, "\n\n")

	chunks := Split(text, 400, 160)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 400)
	}
	// consecutive chunks share a paragraph
	assert.True(t, strings.HasPrefix(chunks[1], strings.TrimSpace(paras[0])[:20]))
}

func TestSplit_FallsBackToFinerSeparators(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50) // no separators at all
	chunks := Split(text, 100, 10)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
	assert.Equal(t, "abcdefghij", chunks[0][:10])
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split("   \n\n  ", 100, 10))
}

func writeCodebase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codebase.txt")
	content := strings.Join([]string{
		"func connectDatabase(dsn string) (*sql.DB, error) { return sql.Open(\"sqlite\", dsn) }",
		"func renderTemplate(w io.Writer, name string) error { return tmpl.ExecuteTemplate(w, name, nil) }",
		"func hashPassword(password string) string { return bcrypt(password) }",
	}, "\n\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRetriever_RanksByTermOverlap(t *testing.T) {
	r := NewRetriever(Options{SourcePath: writeCodebase(t), ChunkSize: 100, ChunkOverlap: 10}, nil)

	got, err := r.Retrieve(context.Background(), "+ password := hashPassword(password)", 4)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Contains(t, got[0], "hashPassword")

	got, err = r.Retrieve(context.Background(), "zzz unrelated qqq", 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetriever_TopK(t *testing.T) {
	r := NewRetriever(Options{SourcePath: writeCodebase(t), ChunkSize: 100, ChunkOverlap: 10}, nil)
	got, err := r.Retrieve(context.Background(), "func string return error", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRetriever_BuildsOnceUnderConcurrency(t *testing.T) {
	r := NewRetriever(Options{SourcePath: writeCodebase(t), Dir: t.TempDir(), ChunkSize: 100, ChunkOverlap: 10}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Retrieve(context.Background(), "sql database", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, r.builds)
}

func TestRetriever_PersistsAndReuses(t *testing.T) {
	src := writeCodebase(t)
	dir := t.TempDir()
	ctx := context.Background()

	first := NewRetriever(Options{SourcePath: src, Dir: dir, ChunkSize: 100, ChunkOverlap: 10}, nil)
	n, err := first.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	path, err := DBPath(dir)
	require.NoError(t, err)
	store, err := OpenStore(path)
	require.NoError(t, err)
	fp, err := store.Fingerprint(ctx)
	require.NoError(t, err)
	chunks, err := store.Chunks(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(string(data), 100, 10), fp)
	assert.Len(t, chunks, 3)

	// Changing the source invalidates the stored index.
	require.NoError(t, os.WriteFile(src, []byte("func only() {}"), 0o644))
	second := NewRetriever(Options{SourcePath: src, Dir: dir, ChunkSize: 100, ChunkOverlap: 10}, nil)
	n, err = second.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRetriever_NoSource(t *testing.T) {
	r := NewRetriever(Options{}, nil)
	_, err := r.Retrieve(context.Background(), "q", 4)
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestLoadSource_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "a.go"), []byte("package pkg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin.dat"), []byte{0, 1, 2}, 0o644))

	text, err := LoadSource(dir)
	require.NoError(t, err)
	assert.Contains(t, text, "File: pkg/a.go\npackage pkg")
	assert.NotContains(t, text, "ref")
	assert.NotContains(t, text, "bin.dat")
}

func TestRemove(t *testing.T) {
	src := writeCodebase(t)
	dir := t.TempDir()

	r := NewRetriever(Options{SourcePath: src, Dir: dir, ChunkSize: 100, ChunkOverlap: 10}, nil)
	_, err := r.Len(context.Background())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, dbFileName))

	require.NoError(t, Remove(dir))
	assert.NoFileExists(t, filepath.Join(dir, dbFileName))

	// Removing again is a no-op.
	require.NoError(t, Remove(dir))
}
