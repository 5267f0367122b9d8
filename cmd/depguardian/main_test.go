package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/depguardian/internal/store"
	"github.com/acheong08/depguardian/pkg/models"
)

const donePayload = `{"final_report":{"packages":[{"name":"lodash","version":"4.17.20","risk_level":"High","security":"2 high vulns","freshness":"Significantly outdated"},{"name":"chalk","version":"5.3.0","risk_level":"Secure","security":"No known vulnerabilities"}]}}`

// setupEnv points the CLI at a fresh store directory and backend
func setupEnv(t *testing.T, backendURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("STORE", "file")
	t.Setenv("STORE_DIR", filepath.Join(dir, "store"))
	t.Setenv("BACKEND_URL", backendURL)
	t.Setenv("STREAM_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedReport(t *testing.T, dir string) models.StoredReport {
	t.Helper()
	s, err := store.NewFileStore(filepath.Join(dir, "store"), nil)
	require.NoError(t, err)
	stored, err := s.Append(context.Background(), models.StoredReport{Title: "Shop", Data: json.RawMessage(donePayload)})
	require.NoError(t, err)
	return stored
}

func TestSubmit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /run", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("GET /stream", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: step\ndata: fetcher_agent\n\n")
		fmt.Fprint(w, "event: done\ndata: "+donePayload+"\n\n")
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	dir := setupEnv(t, backend.URL)
	path := filepath.Join(dir, "package.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dependencies":{"lodash":"4.17.20","chalk":"5.3.0"}}`), 0o644))

	out, err := execute(t, "", "submit", path, "--title", "Shop")
	require.NoError(t, err)
	assert.Contains(t, out, "2 declared dependencies")
	assert.Contains(t, out, "Fetching package metadata")
	assert.Contains(t, out, "Shop")

	out, err = execute(t, "", "reports", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Shop")
}

func TestSubmitRejectsUnsupportedFile(t *testing.T) {
	dir := setupEnv(t, "http://127.0.0.1:0")
	path := filepath.Join(dir, "manifest.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	_, err := execute(t, "", "submit", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only .txt or .json files are allowed")
}

func TestReportsShow(t *testing.T) {
	dir := setupEnv(t, "http://127.0.0.1:0")
	stored := seedReport(t, dir)

	out, err := execute(t, "", "reports", "show", stored.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "lodash")
	assert.Contains(t, out, "chalk")
	assert.Contains(t, out, "Critical update")

	out, err = execute(t, "", "reports", "show", stored.ID, "--risk", "Secure")
	require.NoError(t, err)
	assert.Contains(t, out, "chalk")
	assert.NotContains(t, out, "4.17.20")

	out, err = execute(t, "", "reports", "show", stored.ID, "--where", `"2 High Vulns" in vulns`)
	require.NoError(t, err)
	assert.Contains(t, out, "4.17.20")
	assert.NotContains(t, out, "5.3.0")

	_, err = execute(t, "", "reports", "show", stored.ID, "--risk", "Critical")
	assert.Error(t, err)

	_, err = execute(t, "", "reports", "show", "missing")
	assert.Error(t, err)
}

func TestReportsPackage(t *testing.T) {
	dir := setupEnv(t, "http://127.0.0.1:0")
	stored := seedReport(t, dir)

	out, err := execute(t, "", "reports", "package", stored.ID, "0")
	require.NoError(t, err)
	assert.Contains(t, out, "https://www.npmjs.com/package/lodash")

	_, err = execute(t, "", "reports", "package", stored.ID, "5")
	assert.Error(t, err)
	_, err = execute(t, "", "reports", "package", stored.ID, "first")
	assert.Error(t, err)
}

func TestReportsDelete(t *testing.T) {
	dir := setupEnv(t, "http://127.0.0.1:0")
	stored := seedReport(t, dir)

	out, err := execute(t, "n\n", "reports", "delete", stored.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	out, err = execute(t, "", "reports", "list")
	require.NoError(t, err)
	assert.Contains(t, out, stored.ID)

	out, err = execute(t, "", "reports", "delete", stored.ID, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	out, err = execute(t, "", "reports", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No reports yet.")
}
