package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel/sitecheck/internal/history"
)

// writeTestSite builds the three-document tree used across scenarios:
// an article with an explicit slug, an article with an alias, and an
// about page plus section index that must contribute nothing.
func writeTestSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	docs := map[string]string{
		"blog/home.md":   "---\ntitle: Home Post\nslug: home\n---\n\nHello.\n",
		"blog/post.md":   "---\ntitle: Old Post\naliases:\n  - /old/path/\n---\n\nMoved here.\n",
		"blog/_index.md": "---\ntitle: Blog\n---\n",
		"misc/about.md":  "---\ntitle: About\n---\n",
	}
	for rel, content := range docs {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestCheckCommandFailureScenario(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blog/home/", "/old/path/":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	contentDir := writeTestSite(t)
	out, err := execute(t, "check",
		"--url", server.URL,
		"--content", contentDir,
		"--timeout", "5s",
		"--no-color")

	require.Error(t, err)
	assert.EqualError(t, err, "1 URL(s) failed")

	assert.Contains(t, out, "Testing URLs against: "+server.URL)
	assert.Contains(t, out, "Collected 3 URLs to test")
	assert.Contains(t, out, "✓ /blog/home/")
	assert.Contains(t, out, "✓ /old/path/")
	assert.Contains(t, out, "✗ /blog/post/ (status: 404)")
	assert.Contains(t, out, "Results: 2 passed, 1 failed")
	assert.Contains(t, out, "Failed URLs:")
	assert.Contains(t, out, "  - /blog/post/ (status: 404)")
}

func TestCheckCommandAllPass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	contentDir := writeTestSite(t)
	out, err := execute(t, "check",
		"--url", server.URL,
		"--content", contentDir,
		"--timeout", "5s",
		"--no-color")

	require.NoError(t, err)
	assert.Contains(t, out, "Results: 3 passed, 0 failed")
	assert.NotContains(t, out, "Failed URLs:")
}

func TestCheckCommandMissingContentDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	_, err := execute(t, "check",
		"--url", server.URL,
		"--content", filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to collect URLs")
}

func TestCheckCommandInvalidWorkers(t *testing.T) {
	_, err := execute(t, "check", "--workers", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestCheckCommandConfigFile(t *testing.T) {
	var mu sync.Mutex
	var gotPaths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPaths = append(gotPaths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	contentDir := writeTestSite(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := fmt.Sprintf("base_url: %s\ncontent_dir: %s\nworkers: 2\ntimeout: 5s\n",
		server.URL, contentDir)
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	out, err := execute(t, "check", "--config", configPath, "--no-color")

	require.NoError(t, err)
	assert.Contains(t, out, "Results: 3 passed, 0 failed")
	assert.Len(t, gotPaths, 3)
}

func TestCheckCommandFlagsOverrideConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	contentDir := writeTestSite(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	// Config points at a dead base URL; the flag must win.
	require.NoError(t, os.WriteFile(configPath,
		[]byte("base_url: http://127.0.0.1:1\ncontent_dir: somewhere-else\n"), 0644))

	out, err := execute(t, "check",
		"--config", configPath,
		"--url", server.URL,
		"--content", contentDir,
		"--timeout", "5s",
		"--no-color")

	require.NoError(t, err)
	assert.Contains(t, out, "Testing URLs against: "+server.URL)
	assert.Contains(t, out, "Results: 3 passed, 0 failed")
}

func TestCheckCommandRecordsHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	contentDir := writeTestSite(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := fmt.Sprintf("base_url: %s\ncontent_dir: %s\ntimeout: 5s\nhistory:\n  db_path: %s\n",
		server.URL, contentDir, dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	_, err := execute(t, "check", "--config", configPath, "--history", "--no-color")
	require.NoError(t, err)

	store, err := history.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Total)
	assert.Equal(t, 3, runs[0].Passed)
	assert.Equal(t, 0, runs[0].Failed)
	assert.Equal(t, server.URL, runs[0].BaseURL)
}
