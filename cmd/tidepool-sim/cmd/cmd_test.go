package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidepool-amm/tidepool/cmd/tidepool-sim/cmd"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cmd.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteCmd(t *testing.T) {
	out, err := execute(t, "quote",
		"--amount-in", "1000", "--reserve-in", "10000", "--reserve-out", "10000")
	require.NoError(t, err)
	require.Equal(t, "906", strings.TrimSpace(out))
}

func TestQuoteCmd_MissingFlags(t *testing.T) {
	_, err := execute(t, "quote", "--amount-in", "1000")
	require.Error(t, err)
}

func TestQuoteCmd_InvalidReserves(t *testing.T) {
	_, err := execute(t, "quote",
		"--amount-in", "1000", "--reserve-in", "0", "--reserve-out", "10000")
	require.Error(t, err)
}

func TestRunCmd_Scenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: "off"
accounts:
  - name: alice
    amount_a: 100000
    amount_b: 100000
  - name: bob
    amount_a: 10000
    amount_b: 10000
scenario:
  - op: provide
    account: alice
    amount_a_desired: 10000
    amount_b_desired: 10000
  - op: swap
    account: bob
    token_in: utide
    amount_in: 1000
  - op: remove
    account: alice
    shares: 5000
`), 0o600))

	out, err := execute(t, "run", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "final reserves")
	require.Contains(t, out, "outstanding shares: 5000")
}

func TestRunCmd_FailedStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: "off"
accounts:
  - name: bob
    amount_a: 100
    amount_b: 100
scenario:
  - op: swap
    account: bob
    token_in: utide
    amount_in: 10
`), 0o600))

	_, err := execute(t, "run", "--config", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "scenario step 0")
}

func TestRunCmd_BadConfig(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
