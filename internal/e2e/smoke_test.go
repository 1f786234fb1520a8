package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	_, stderr, err := runSA(t, binaryPath, home, "account", "add", "main", "--name", "Primary")
	require.NoError(t, err, "stderr: %s", stderr)

	_, stderr, err = runSA(t, binaryPath, home, "group", "set", "launch", "--accounts", "main")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runSA(t, binaryPath, home, "status")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "accounts: 1")
	assert.Contains(t, stdout, "Primary (main)")
	assert.Contains(t, stdout, "credentials: missing")

	_, err = os.Stat(filepath.Join(home, ".social-accounts", "accounts.toml"))
	require.NoError(t, err)
}

func TestSmokeVersion(t *testing.T) {
	stdout, _, err := runSA(t, buildBinary(t), t.TempDir(), "version")
	require.NoError(t, err)
	assert.NotEmpty(t, stdout)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "sa-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/sa")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build sa binary: %s", string(output))
	return binaryPath
}

func runSA(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
