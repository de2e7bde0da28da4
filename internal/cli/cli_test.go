package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/docman/internal/apperr"
	"github.com/mithrel/docman/internal/server"
	"github.com/mithrel/docman/pkg/api"
)

// startStub runs the in-memory service and points the CLI at it with an
// isolated config, data dir and file-backed session.
func startStub(t *testing.T) *server.Server {
	t.Helper()
	srv, err := server.New(server.Config{})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("DOCMAN_DATA_DIR", filepath.Join(tmp, "data"))
	t.Setenv("DOCMAN_API_BASE_URL", ts.URL)
	t.Setenv("DOCMAN_AUTH_TOKEN_STORE", "file")
	t.Setenv("DOCMAN_LOG_LEVEL", "error")
	return srv
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func login(t *testing.T) {
	t.Helper()
	out, _, err := runCLI(t, "9876543210\n1234\n", "login", "--no-tui")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as ******3210")
}

func TestLoginUploadSearchLogout(t *testing.T) {
	startStub(t)
	login(t)

	out, _, err := runCLI(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ******3210")
	assert.Contains(t, out, "Token store: file:")

	file := filepath.Join(t.TempDir(), "policy.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF-1.4"), 0o600))
	out, _, err = runCLI(t, "", "upload", file,
		"--major-head", "HR", "--minor-head", "Policy",
		"--date", "2024-03-05", "--tags", "urgent,finance", "--tags", "urgent",
		"--remarks", "leave policy", "--user-id", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Document uploaded successfully: policy.pdf")

	out, _, err = runCLI(t, "", "search", "--output", "json", "--tags", "finance")
	require.NoError(t, err)
	var docs []api.DocumentRecord
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "HR", docs[0].MajorHead)
	assert.Equal(t, "05-03-2024", docs[0].DocumentDate)
	assert.Equal(t, []string{"urgent", "finance"}, docs[0].TagNames())

	out, _, err = runCLI(t, "", "search", "--output", "json", "--from", "01-04-2024")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	out, _, err = runCLI(t, "", "tags", "fin")
	require.NoError(t, err)
	assert.Equal(t, "finance\n", out)

	out, _, err = runCLI(t, "", "recent", "-o", "json")
	require.NoError(t, err)
	var d dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, 1, d.Total)
	assert.Equal(t, 2, d.TagsCount)
	require.Len(t, d.Recent, 1)

	out, _, err = runCLI(t, "", "logout", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Logged out\n", out)

	out, _, err = runCLI(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestLoginRepromptsOnErrors(t *testing.T) {
	startStub(t)
	out, errOut, err := runCLI(t, "12345\n9876543210\n12\n0000\nr\n1234\n", "login", "--no-tui")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")
	assert.Contains(t, errOut, "Please enter a valid mobile number")
	assert.Contains(t, errOut, "Please enter a valid OTP")
	assert.Contains(t, errOut, "Invalid OTP")
	assert.Contains(t, errOut, "Please wait", "resend is blocked during the cooldown")
}

func TestLoginEOF(t *testing.T) {
	startStub(t)
	_, _, err := runCLI(t, "9876543210\n", "login", "--no-tui")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestSearchRequiresLogin(t *testing.T) {
	startStub(t)
	_, _, err := runCLI(t, "", "search")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAppClosedWhenCommandFails(t *testing.T) {
	startStub(t)
	t.Setenv("DOCMAN_LOG_LEVEL", "debug")

	_, errOut, err := runCLI(t, "", "search")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 1, strings.Count(errOut, "app closed"))

	_, errOut, err = runCLI(t, "", "status")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(errOut, "app closed"), "closed once on success too")
}

func TestSearchPages(t *testing.T) {
	srv := startStub(t)
	for i := 1; i <= 23; i++ {
		srv.Seed(api.DocumentRecord{
			MajorHead:    "Finance",
			MinorHead:    "Invoice",
			DocumentDate: fmt.Sprintf("%02d-01-2024", i),
			UploadedBy:   "bob",
		})
	}
	login(t)

	out, _, err := runCLI(t, "", "search", "--page", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 21 to 23 of 23 • Page 3 of 3")
	assert.Equal(t, 1+3+1, strings.Count(out, "\n"), "header, three rows, footer")

	out, _, err = runCLI(t, "", "search", "--page", "9", "--noheaders")
	require.NoError(t, err)
	assert.Contains(t, out, "Page 3 of 3", "out of range pages clamp to the last one")
	assert.Equal(t, 3+1, strings.Count(out, "\n"))

	out, errOut, err := runCLI(t, "", "search", "--all", "-o", "ndjson", "--page-size", "5")
	require.NoError(t, err)
	assert.Equal(t, 23, strings.Count(out, "\n"))
	assert.Empty(t, errOut)

	_, _, err = runCLI(t, "", "search", "--page", "0")
	require.Error(t, err)
	_, _, err = runCLI(t, "", "search", "--from", "31-31-2024")
	require.ErrorContains(t, err, "invalid --from")
	_, _, err = runCLI(t, "", "search", "-o", "xml")
	require.ErrorContains(t, err, "invalid --output")
}

func TestUploadValidation(t *testing.T) {
	startStub(t)
	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o600))

	_, _, err := runCLI(t, "", "upload", file, "--major-head", "HR")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.Message(err), "minor_head")
	assert.Contains(t, apperr.Message(err), "user_id")

	_, _, err = runCLI(t, "", "upload", "--major-head", "HR", "--minor-head", "x", "--user-id", "u")
	assert.Equal(t, "Please select a file to upload", apperr.Message(err))

	out, _, err := runCLI(t, "", "upload", file, "--dry-run", "--major-head", "HR", "--minor-head", "x", "--user-id", "u", "--date", "01-02-2024")
	require.NoError(t, err, "dry run needs no session")
	assert.Contains(t, out, "blake3: ")
	assert.Contains(t, out, `"document_date":"01-02-2024"`)

	t.Setenv("DOCMAN_USER_ID", "cfg-user")
	out, _, err = runCLI(t, "", "upload", file, "--dry-run", "--major-head", "HR", "--minor-head", "x")
	require.NoError(t, err)
	assert.Contains(t, out, `"user_id":"cfg-user"`)
}

func TestConfigGenerateAndShow(t *testing.T) {
	startStub(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	_, _, err := runCLI(t, "", "config", "generate", "-o", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "page_size")

	_, _, err = runCLI(t, "", "config", "generate", "-o", path)
	require.ErrorContains(t, err, "already exists")

	out, _, err := runCLI(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "page_size: 10")
}

func TestCompletion(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"completion", "bash"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "docman")
}
