package gitctx

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/prsentry/internal/payload"
)

// setupTestRepo creates a temp git repo on branch main with one commit and
// returns its path and a helper that runs commands inside it.
func setupTestRepo(t *testing.T) (string, func(args ...string) string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "command %v: %s", args, out)
		return strings.TrimSpace(string(out))
	}

	run("git", "init")
	run("git", "checkout", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	run("git", "add", "-A")
	run("git", "commit", "-m", "init")
	return dir, run
}

func addCommit(t *testing.T, dir string, run func(...string) string, file, content, msg string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, file)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	run("git", "add", "-A")
	run("git", "commit", "-m", msg)
}

func TestRepo_CommitsAndDiff(t *testing.T) {
	dir, run := setupTestRepo(t)
	ctx := context.Background()
	run("git", "checkout", "-b", "feature")
	addCommit(t, dir, run, "a.go", "package main\n\nvar a = 1\n", "Add a")
	addCommit(t, dir, run, "vendor/lib.go", "package lib\n", "Vendor lib")

	repo := Repo{Dir: dir}
	commits, err := repo.Commits(ctx, "main..feature")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "Add a", commits[0].Subject)
	assert.Equal(t, "Vendor lib", commits[1].Subject)
	assert.Len(t, commits[0].SHA, 40)

	d, err := repo.Diff(ctx, "main..feature")
	require.NoError(t, err)
	assert.Contains(t, d, "+++ b/a.go")
	assert.Contains(t, d, "+++ b/vendor/lib.go")

	repo.Exclude = []string{"vendor/**"}
	d, err = repo.Diff(ctx, "main..feature")
	require.NoError(t, err)
	assert.Contains(t, d, "+var a = 1")
	assert.NotContains(t, d, "vendor/lib.go")
}

func TestRepo_EmptyRange(t *testing.T) {
	dir, _ := setupTestRepo(t)
	commits, err := Repo{Dir: dir}.Commits(context.Background(), "HEAD..HEAD")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestRepo_WorkingTreeDiff(t *testing.T) {
	dir, _ := setupTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() { panic(1) }\n"), 0o644))

	d, err := Repo{Dir: dir}.Diff(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, d, "+func main() { panic(1) }")
}

func TestRepo_BadRange(t *testing.T) {
	dir, _ := setupTestRepo(t)
	_, err := Repo{Dir: dir}.Diff(context.Background(), "nope..main")
	assert.Error(t, err)
}

func TestParseRemote(t *testing.T) {
	tests := []struct {
		url         string
		owner, name string
		ok          bool
	}{
		{"git@github.com:acme/widgets.git", "acme", "widgets", true},
		{"https://github.com/acme/widgets.git", "acme", "widgets", true},
		{"https://github.com/acme/widgets", "acme", "widgets", true},
		{"ssh://git@ghe.example.com/acme/widgets/", "acme", "widgets", true},
		{"widgets", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, name, ok := ParseRemote(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestSource_FetchProducesWebhookBody(t *testing.T) {
	dir, run := setupTestRepo(t)
	run("git", "remote", "add", "origin", "git@github.com:acme/widgets.git")
	run("git", "checkout", "-b", "feature")
	addCommit(t, dir, run, "db.py", "cursor.execute(\"SELECT * FROM t WHERE id=\" + uid)\n", "Add lookup")

	src := Source{Repo: Repo{Dir: dir}, Range: "main..feature", PRNumber: 9, Title: "Lookup"}
	body, err := src.Fetch(context.Background())
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	require.Len(t, raw, 1)

	ex, err := payload.Extract(body, false)
	require.NoError(t, err)
	assert.Equal(t, "acme/widgets", ex.Event.Repo())
	assert.Equal(t, payload.PRNumber(9), ex.Event.PRNumber)
	assert.Equal(t, []string{"Add lookup"}, ex.Event.Messages())
	assert.Contains(t, ex.Diff, "+++ b/db.py")
}
