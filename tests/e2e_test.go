package tests

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mithrel/docman/internal/cli"
	"github.com/mithrel/docman/pkg/api"
)

const fixtures = `documents:
  - major_head: Finance
    minor_head: Invoice
    document_date: 12-01-2024
    document_remarks: january invoice from acme
    uploaded_by: bob
    tags: [{tag_name: acme}, {tag_name: q1}]
  - major_head: Finance
    minor_head: Receipt
    document_date: 03-02-2024
    uploaded_by: alice
    tags: [{tag_name: q1}]
  - major_head: HR
    minor_head: Policy
    document_date: 20-06-2024
    document_remarks: remote work policy
    uploaded_by: alice
`

// runCLI executes the CLI with the given args and returns stdout, stderr, and error.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func waitHealthy(base string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("stub server not healthy at %s", base)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestE2E_StubServerSession(t *testing.T) {
	// 1. Setup environment
	tmpDir := t.TempDir()
	seed := filepath.Join(tmpDir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(fixtures), 0o600))
	addr := freeAddr(t)
	base := "http://" + addr

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(tmpDir, "run"))
	t.Setenv("DOCMAN_DATA_DIR", filepath.Join(tmpDir, "data"))
	t.Setenv("DOCMAN_API_BASE_URL", base)
	t.Setenv("DOCMAN_AUTH_TOKEN_STORE", "sqlite")
	t.Setenv("DOCMAN_LOG_LEVEL", "error")
	t.Setenv("DOCMAN_METRICS_ENABLED", "true")

	// 2. Start the stub server through the CLI
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		cmd := cli.NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"stub-server", "--addr", addr, "--otp", "2468", "--seed", seed})
		done <- cmd.ExecuteContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("stub server did not stop")
		}
	})
	require.NoError(t, waitHealthy(base, 3*time.Second))

	// 3. Login with the configured OTP
	_, _, err := runCLI(t, "login", "--mobile", "9876543210", "--otp", "1234")
	require.Error(t, err, "default OTP is replaced by --otp")
	out, _, err := runCLI(t, "login", "--mobile", "9876543210", "--otp", "2468")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ******3210 (sqlite:")

	// 4. Filtered search over the seeded documents
	out, _, err = runCLI(t, "search", "-o", "yaml", "--major-head", "finance", "--from", "01-01-2024", "--to", "31-01-2024")
	require.NoError(t, err)
	var docs []api.DocumentRecord
	require.NoError(t, yaml.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "Invoice", docs[0].MinorHead)

	out, _, err = runCLI(t, "search", "remote", "--noheaders")
	require.NoError(t, err)
	assert.Contains(t, out, "Policy")
	assert.Contains(t, out, "Showing 1 to 1 of 1 • Page 1 of 1")

	out, _, err = runCLI(t, "search", "-o", "pretty", "--tags", "q1")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice")
	assert.Contains(t, out, "Receipt")

	// 5. Upload and see it on the dashboard
	doc := filepath.Join(tmpDir, "contract.txt")
	require.NoError(t, os.WriteFile(doc, []byte("terms"), 0o600))
	_, _, err = runCLI(t, "upload", doc, "--major-head", "Legal", "--minor-head", "Contract", "--tags", "acme", "--user-id", "carol")
	require.NoError(t, err)

	out, _, err = runCLI(t, "recent")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Contains(t, lines[1], "Legal", "newest upload first")
	assert.Equal(t, "4 documents, 2 tags", lines[len(lines)-1])

	// 6. The metrics endpoint saw the traffic
	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	resp.Body.Close()
	assert.Contains(t, body.String(), "docman_stub_http_requests_total")

	// 7. Logout clears the sqlite session
	_, _, err = runCLI(t, "logout", "--yes")
	require.NoError(t, err)
	out, _, err = runCLI(t, "status", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`{"logged_in":false,"base_url":%q,"token_store":"sqlite:%s"}`, base, filepath.Join(tmpDir, "data", "docman.db")), out)
}
