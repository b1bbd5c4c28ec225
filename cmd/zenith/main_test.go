package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zenith/internal/common"
)

// testEnv runs zenith commands against a throwaway database.
type testEnv struct {
	t      *testing.T
	dir    string
	db     string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("logging:\n  level: error\n"), 0o600))
	return &testEnv{t: t, dir: dir, db: filepath.Join(dir, "zenith.db"), config: cfg}
}

func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	viper.Reset()
	t := e.t
	t.Cleanup(viper.Reset)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	require.NoError(e.t, err, out)
	return out
}

func requireUserError(t *testing.T, err error, contains string) {
	t.Helper()
	require.Error(t, err)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, contains)
}

func TestVersionCmd(t *testing.T) {
	out := newTestEnv(t).mustRun("version")
	assert.Equal(t, "zenith dev\n", out)
}

func TestSignupLoginWhoami(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("auth", "signup", "ada@example.com")
	assert.Contains(t, out, "Welcome to Zenith, ada@example.com!")

	out = env.mustRun("auth", "whoami")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "Free plan")

	_, err := env.run("", "auth", "signup", "ada@example.com")
	requireUserError(t, err, "already registered")

	_, err = env.run("", "auth", "login", "nobody@example.com")
	require.Error(t, err)
}

func TestUserFlagOverridesSession(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("auth", "signup", "ada@example.com")
	env.mustRun("auth", "signup", "grace@example.com")

	out := env.mustRun("--user", "ada@example.com", "auth", "whoami")
	assert.Contains(t, out, "ada@example.com")

	out = env.mustRun("auth", "whoami")
	assert.Contains(t, out, "grace@example.com")
}

func TestLedgerFlow(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("auth", "signup", "ada@example.com")

	out := env.mustRun("accounts", "add", "Checking", "--balance", "$1,000")
	assert.Contains(t, out, "Added checking account Checking")

	env.mustRun("transactions", "add", "Coffee", "--amount", "4.50", "--account", "checking", "--category", "Food")
	env.mustRun("transactions", "add", "Paycheck", "--type", "income", "--amount", "2000", "--account", "Checking")

	out = env.mustRun("accounts")
	assert.Contains(t, out, "Checking")
	assert.Contains(t, out, "$2,995.50")

	out = env.mustRun("summary")
	assert.Contains(t, out, "Net worth")
	assert.Contains(t, out, "$2,995.50")
	assert.Contains(t, out, "Food")

	out = env.mustRun("transactions")
	assert.Contains(t, out, "Coffee")
	assert.Contains(t, out, "Paycheck")

	_, err := env.run("", "transactions", "add", "Ghost", "--amount", "1", "--account", "Nowhere")
	require.Error(t, err)
}

func TestAmountValidation(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("auth", "signup", "ada@example.com")
	env.mustRun("accounts", "add", "Checking")

	_, err := env.run("", "transactions", "add", "Coffee", "--amount", "lots", "--account", "Checking")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not an amount")
}

func TestFreePlanBudgetLimit(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("auth", "signup", "ada@example.com")

	for _, cat := range []string{"Food", "Transport", "Bills"} {
		env.mustRun("budgets", "set", cat, "100")
	}
	_, err := env.run("", "budgets", "set", "Shopping", "50")
	requireUserError(t, err, "free plan allows 3 budgets")

	// Changing an existing budget is not a new one.
	env.mustRun("budgets", "set", "Food", "150")

	env.mustRun("auth", "upgrade")
	out := env.mustRun("budgets", "set", "Shopping", "50")
	assert.Contains(t, out, "Budget for Shopping set to $50.00")

	out = env.mustRun("budgets")
	assert.Contains(t, out, "Shopping")
	assert.Contains(t, out, "$150.00")
}

func TestExportRequiresPremium(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("auth", "signup", "ada@example.com")
	env.mustRun("accounts", "add", "Checking", "--balance", "50")

	dir := filepath.Join(env.dir, "out")
	_, err := env.run("", "export", "csv", "--dir", dir)
	requireUserError(t, err, "Premium feature")

	env.mustRun("auth", "upgrade")
	out := env.mustRun("export", "csv", "transactions", "--dir", dir)
	assert.Contains(t, out, "Transactions")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "zenith_transactions_"))

	_, err = env.run("", "export", "csv", "holdings", "--dir", dir)
	requireUserError(t, err, "Unknown collection")
}

func TestResetCmd(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("auth", "signup", "ada@example.com")
	env.mustRun("accounts", "add", "Checking", "--balance", "50")

	out, err := env.run("n\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing was changed")
	assert.Contains(t, env.mustRun("accounts"), "Checking")

	out, err = env.run("yes\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "All data erased")
	assert.NotContains(t, env.mustRun("accounts"), "Checking")

	env.mustRun("accounts", "add", "Savings")
	env.mustRun("reset", "--force")
	assert.NotContains(t, env.mustRun("accounts"), "Savings")
	assert.Contains(t, env.mustRun("auth", "whoami"), "ada@example.com")
}

func TestImportOFXDryRun(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("auth", "signup", "ada@example.com")
	env.mustRun("accounts", "add", "Checking")

	file := filepath.Join(env.dir, "statement.qfx")
	require.NoError(t, os.WriteFile(file, []byte(sampleOFX), 0o600))

	out := env.mustRun("import", "ofx", file, "--account", "Checking", "--dry-run")
	assert.Contains(t, out, "Would import 2 transaction(s)")
	assert.Contains(t, out, "COFFEE SHOP")
	assert.NotContains(t, env.mustRun("transactions"), "COFFEE SHOP")

	out = env.mustRun("import", "ofx", file, "--account", "Checking")
	assert.Contains(t, out, "Imported 2 transaction(s)")

	out = env.mustRun("import", "ofx", file, "--account", "Checking")
	assert.Contains(t, out, "skipped 2 already imported")
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.qfx", "b.qfx", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = expandFiles([]string{filepath.Join(dir, "c.txt")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "c.txt")}, files)

	_, err = expandFiles([]string{filepath.Join(dir, "*.ofx")})
	require.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: "12.5", want: "12.5"},
		{name: "dollar sign and commas", raw: "$1,234.56", want: "1234.56"},
		{name: "whitespace", raw: "  7 ", want: "7"},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmount("amount", tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240131120000
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>987654321
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101
<DTEND>20240131
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240105
<TRNAMT>-4.50
<FITID>TX001
<NAME>COFFEE SHOP
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240115
<TRNAMT>2000.00
<FITID>TX002
<NAME>PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1995.50
<DTASOF>20240131
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`
