package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/naka-gawa/pages-portfolio/internal/output"
	"github.com/naka-gawa/pages-portfolio/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoRepos = `[{"name":"demo-site","has_pages":true,"fork":false,"description":null,"topics":[]},
{"name":"octocat.github.io","has_pages":true,"fork":false,"description":"home","topics":[]},
{"name":"forked","has_pages":true,"fork":true,"description":"fork","topics":[]}]`

// newTestServer serves demoRepos as the first page of octocat's repositories
// and an empty list for any later page.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/users/octocat/repos" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		if page := r.URL.Query().Get("page"); page != "" && page != "1" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, demoRepos)
	}))
	t.Cleanup(server.Close)
	return server
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{"GITHUB_ACTOR", "GITHUB_TOKEN", "GH_TOKEN", "GITHUB_REPOSITORY", "PORTFOLIO_USER"} {
		t.Setenv(env, "")
	}
}

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	clearEnv(t)
	return executeCommandContext(context.Background(), args...)
}

func executeCommandContext(ctx context.Context, args ...string) (string, string, error) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	root := newRootCmd(&output.UI{Out: out, ErrOut: errOut})
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestRenderCommand(t *testing.T) {
	server := newTestServer(t)
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "template.html")
	outPath := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(tmplPath, []byte("<h1>{USERNAME}</h1>\n<div>{projects_grid}</div>\n"), 0o644))

	_, stderr, err := executeCommand(t, "render", "--user", "octocat", "--api-url", server.URL+"/",
		"--template", tmplPath, "--output", outPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Successfully generated")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, "<h1>octocat</h1>")
	assert.Contains(t, doc, "https://octocat.github.io/demo-site")
	assert.Contains(t, doc, "No description provided.")
	assert.Contains(t, doc, "octocat.github.io/octocat.github.io/")
	assert.NotContains(t, doc, "forked")
}

func TestRenderCommand_MissingTemplate(t *testing.T) {
	server := newTestServer(t)
	dir := t.TempDir()

	_, _, err := executeCommand(t, "render", "--user", "octocat", "--api-url", server.URL+"/",
		"--template", filepath.Join(dir, "template.html"), "--output", filepath.Join(dir, "index.html"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not find")

	_, statErr := os.Stat(filepath.Join(dir, "index.html"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderCommand_MissingUser(t *testing.T) {
	_, _, err := executeCommand(t, "render")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GitHub user is required")
}

func TestUpdateCommand_CreatesDefaultPage(t *testing.T) {
	server := newTestServer(t)
	indexPath := filepath.Join(t.TempDir(), "index.html")

	_, stderr, err := executeCommand(t, "update", "--user", "octocat", "--api-url", server.URL+"/", "--index", indexPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "default page")
	assert.Contains(t, stderr, "Index updated successfully")

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, page.DefaultMarkers.Start)
	assert.Contains(t, doc, page.DefaultMarkers.End)
	assert.Contains(t, doc, "<h3>Demo Site</h3>")
	assert.Contains(t, doc, "https://octocat.github.io/forked/")
	assert.NotContains(t, doc, "octocat.github.io/octocat.github.io/")
}

func TestUpdateCommand_KeepsSurroundingContent(t *testing.T) {
	server := newTestServer(t)
	indexPath := filepath.Join(t.TempDir(), "index.html")
	m := page.DefaultMarkers
	original := "<header>mine</header>\n" + m.Start + "\nstale\n" + m.End + "\n<footer>mine</footer>\n"
	require.NoError(t, os.WriteFile(indexPath, []byte(original), 0o644))

	_, _, err := executeCommand(t, "update", "--user", "octocat", "--api-url", server.URL+"/", "--index", indexPath)
	require.NoError(t, err)
	first, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Contains(t, string(first), "<header>mine</header>")
	assert.Contains(t, string(first), "<footer>mine</footer>")
	assert.NotContains(t, string(first), "stale")

	_, _, err = executeCommand(t, "update", "--user", "octocat", "--api-url", server.URL+"/", "--index", indexPath)
	require.NoError(t, err)
	second, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestUpdateCommand_StrictLeavesFileUntouched(t *testing.T) {
	server := newTestServer(t)
	indexPath := filepath.Join(t.TempDir(), "index.html")
	original := "<html><body>hand written</body></html>\n"
	require.NoError(t, os.WriteFile(indexPath, []byte(original), 0o644))

	_, _, err := executeCommand(t, "update", "--user", "octocat", "--api-url", server.URL+"/", "--index", indexPath, "--strict")
	require.Error(t, err)
	assert.ErrorIs(t, err, page.ErrMarkersNotFound)

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestUpdateCommand_DryRun(t *testing.T) {
	server := newTestServer(t)
	indexPath := filepath.Join(t.TempDir(), "index.html")

	stdout, _, err := executeCommand(t, "update", "--user", "octocat", "--api-url", server.URL+"/", "--index", indexPath, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<h3>Demo Site</h3>")

	_, statErr := os.Stat(indexPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUpdateCommand_TransportErrorIsFatal(t *testing.T) {
	server := newTestServer(t)
	indexPath := filepath.Join(t.TempDir(), "index.html")

	_, _, err := executeCommand(t, "update", "--user", "nobody", "--api-url", server.URL+"/", "--index", indexPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list repositories")

	_, statErr := os.Stat(indexPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUpdateCommand_ExplicitUserBeatsRepositoryOwner(t *testing.T) {
	server := newTestServer(t)
	indexPath := filepath.Join(t.TempDir(), "index.html")
	clearEnv(t)
	t.Setenv("GITHUB_REPOSITORY", "someone-else/site")
	t.Setenv("GITHUB_ACTOR", "someone-else")

	_, _, err := executeCommandContext(context.Background(),
		"update", "--user", "octocat", "--api-url", server.URL+"/", "--index", indexPath)
	require.NoError(t, err)

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://octocat.github.io/demo-site/")
}

func TestUpdateCommand_RepositoryOwnerFromEnvironment(t *testing.T) {
	server := newTestServer(t)
	indexPath := filepath.Join(t.TempDir(), "index.html")
	clearEnv(t)
	t.Setenv("GITHUB_REPOSITORY", "octocat/octocat.github.io")
	t.Setenv("GITHUB_ACTOR", "dependabot")

	_, _, err := executeCommandContext(context.Background(),
		"update", "--api-url", server.URL+"/", "--index", indexPath)
	require.NoError(t, err)

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://octocat.github.io/demo-site/")
}

func TestScheduleCommand_RunOnStartupUntilCancelled(t *testing.T) {
	server := newTestServer(t)
	indexPath := filepath.Join(t.TempDir(), "index.html")
	clearEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		stderr string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		_, stderr, err := executeCommandContext(ctx, "schedule", "--user", "octocat", "--api-url", server.URL+"/",
			"--mode", "update", "--run-on-startup", "--cron", "0 0 1 1 *", "--index", indexPath)
		done <- result{stderr: stderr, err: err}
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(indexPath)
		return err == nil
	}, 10*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Contains(t, res.stderr, "Scheduler started")
		assert.Contains(t, res.stderr, "Index updated successfully")
		assert.Contains(t, res.stderr, "Shutting down")
	case <-time.After(10 * time.Second):
		t.Fatal("schedule did not stop after cancellation")
	}

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h3>Demo Site</h3>")
}

func TestScheduleCommand_RenderMode(t *testing.T) {
	server := newTestServer(t)
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "template.html")
	outPath := filepath.Join(dir, "out.html")
	require.NoError(t, os.WriteFile(tmplPath, []byte("<div>{projects_grid}</div>"), 0o644))
	clearEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, _, err := executeCommandContext(ctx, "schedule", "--user", "octocat", "--api-url", server.URL+"/",
			"--mode", "render", "--run-on-startup", "--cron", "0 0 1 1 *", "--template", tmplPath, "--output", outPath)
		done <- err
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(outPath)
		return err == nil
	}, 10*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("schedule did not stop after cancellation")
	}

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h3>demo-site</h3>")
}

func TestScheduleCommand_InvalidCron(t *testing.T) {
	_, _, err := executeCommand(t, "schedule", "--user", "octocat", "--cron", "whenever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
}
