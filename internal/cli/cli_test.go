package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/LeJamon/ripplecalc/internal/config"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/LeJamon/ripplecalc/internal/fixture"
	"github.com/LeJamon/ripplecalc/internal/storage/journal"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLedger = `
accounts:
  - {name: alice, drops: 1000000000}
  - {name: bob, drops: 1000000000}
  - {name: gateway, drops: 1000000000}
lines:
  - {holder: alice, issuer: gateway, currency: USD, limit: "1000", balance: "100"}
  - {holder: bob, issuer: gateway, currency: USD, limit: "1000"}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func address(t *testing.T, name string) string {
	t.Helper()
	id, err := types.AccountFromName(name)
	require.NoError(t, err)
	return id.String()
}

func TestAddressCommand(t *testing.T) {
	out, err := execute(t, "address", "alice", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "alice\t"+address(t, "alice"))
	assert.Contains(t, out, "bob\t"+address(t, "bob"))

	_, err = execute(t, "address")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ripplecalc version "+version)
}

func TestCalcCommand(t *testing.T) {
	dir := t.TempDir()
	ledger := writeFile(t, dir, "ledger.yaml", testLedger)
	payment := writeFile(t, dir, "payment.yaml", "sender: alice\nreceiver: bob\ndeliver: 25/USD/gateway\n")

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "calc", "--ledger", ledger, "--payment", payment)
		require.NoError(t, err)
		assert.Contains(t, out, "Result:    tesSUCCESS")
		assert.Contains(t, out, "Delivered: 25/USD/")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "calc", "--ledger", ledger, "--payment", payment, "--json")
		require.NoError(t, err)
		var rep outcomeReport
		require.NoError(t, json.Unmarshal([]byte(out), &rep))
		assert.Equal(t, "tesSUCCESS", rep.Result)
		assert.Equal(t, "Success", rep.Kind)
		assert.Equal(t, 1, rep.Rounds)
		require.Len(t, rep.Paths, 1)
		assert.Equal(t, "tesSUCCESS", rep.Paths[0].Status)
	})

	t.Run("commit", func(t *testing.T) {
		after := filepath.Join(dir, "after.yaml")
		_, err := execute(t, "calc", "--ledger", ledger, "--payment", payment, "--commit", "--out", after)
		require.NoError(t, err)

		l, err := fixture.LoadLedger(after)
		require.NoError(t, err)
		balances := make(map[string]string)
		for _, line := range l.Lines {
			balances[line.Holder] = line.Balance
		}
		assert.Equal(t, "25", balances[address(t, "bob")])
		assert.Equal(t, "75", balances[address(t, "alice")])
	})

	t.Run("failure", func(t *testing.T) {
		short := writeFile(t, dir, "short.yaml", "sender: alice\nreceiver: bob\ndeliver: 500/USD/gateway\n")
		out, err := execute(t, "calc", "--ledger", ledger, "--payment", short)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tecPATH_PARTIAL")
		assert.Contains(t, out, "tecPATH_PARTIAL")
	})

	t.Run("missing flags", func(t *testing.T) {
		_, err := execute(t, "calc", "--ledger", ledger)
		assert.Error(t, err)
	})
}

func TestBatchCommand(t *testing.T) {
	out, err := execute(t, "batch", "--dir", filepath.Join("..", "fixture", "testdata", "scenarios"), "--jobs", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3 scenarios, 3 passed, 0 failed")

	dir := t.TempDir()
	writeFile(t, dir, "wrong.yaml", `
name: wrong expectation
ledger:
  accounts:
    - {name: alice, drops: 1000000000}
    - {name: bob, drops: 1000000000}
  lines:
    - {holder: bob, issuer: alice, currency: USD, limit: "100"}
payment:
  sender: alice
  receiver: bob
  deliver: 10/USD/bob
expect:
  result: tesSUCCESS
  delivered: "11"
`)
	writeFile(t, dir, "broken.yaml", "name: [")

	out, err = execute(t, "batch", "--dir", dir, "--json")
	require.Error(t, err)
	var results []scenarioResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	for _, res := range results {
		assert.False(t, res.Passed)
		assert.NotEmpty(t, res.Error)
	}

	_, err = execute(t, "batch", "--dir", t.TempDir())
	assert.Error(t, err)
}

func TestLedgerImportShow(t *testing.T) {
	t.Setenv("RIPPLECALC_STORE_BACKEND", "leveldb")
	t.Setenv("RIPPLECALC_STORE_PATH", filepath.Join(t.TempDir(), "ledger"))
	ledger := writeFile(t, t.TempDir(), "ledger.yaml", testLedger)

	out, err := execute(t, "ledger", "import", ledger)
	require.NoError(t, err)
	assert.Contains(t, out, "3 accounts, 2 lines, 0 offers")

	out, err = execute(t, "ledger", "show", "bob")
	require.NoError(t, err)
	l, err := fixture.ParseLedger([]byte(out))
	require.NoError(t, err)
	require.Len(t, l.Accounts, 1)
	assert.Equal(t, address(t, "bob"), l.Accounts[0].Name)
	require.Len(t, l.Lines, 1)
	assert.Equal(t, "1000", l.Lines[0].Limit)

	out, err = execute(t, "ledger", "show", "--json")
	require.NoError(t, err)
	var all fixture.Ledger
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Len(t, all.Accounts, 3)
}

func TestDaemonHandler(t *testing.T) {
	t.Setenv("RIPPLECALC_STORE_BACKEND", "memory")
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.GRPC.Enabled = false

	d, err := newDaemon(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(d.close)

	srv := httptest.NewServer(d.handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	resp2, err := http.Get(srv.URL + "/settlements?limit=5")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	var records []journal.Record
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&records))
	assert.Empty(t, records)

	resp3, err := http.Get(srv.URL + "/settlements?limit=zero")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)

	resp5, err := http.Get(srv.URL + "/settlements/" + uuid.NewString())
	require.NoError(t, err)
	resp5.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp5.StatusCode)

	resp6, err := http.Get(srv.URL + "/settlements/not-a-uuid")
	require.NoError(t, err)
	resp6.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp6.StatusCode)

	resp4, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp4.Body.Close()
	assert.Equal(t, http.StatusOK, resp4.StatusCode)
}
