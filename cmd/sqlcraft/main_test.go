package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/sqlcraft/internal/api"
	"github.com/sadopc/sqlcraft/internal/config"
)

// setupEnv isolates config, history and audit under a temp dir and points
// SQLCRAFT_DSN at a fresh SQLite file.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(config.EnvAdapter, "sqlite")
	t.Setenv(config.EnvDSN, filepath.Join(dir, "data.db"))
	return dir
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRender(t *testing.T) {
	dir := setupEnv(t)

	tests := []struct {
		name     string
		kind     string
		input    string
		want     string
		wantWarn bool
	}{
		{
			name: "select",
			kind: "select",
			input: `
tables: [users]
conditions:
  - {column: age, operator: ">=", value: 18}
limit: 10
`,
			want: "SELECT users.*\nFROM users\nWHERE age >= 18\nLIMIT 10;\n",
		},
		{
			name: "scoped update",
			kind: "update",
			input: `
table: users
set:
  name: {value: "O'Brien"}
conditions:
  - {column: id, value: 5}
`,
			want: "UPDATE users\nSET name = 'O''Brien'\nWHERE id = 5;\n",
		},
		{
			name:     "unscoped update",
			kind:     "update",
			input:    "table: users\nset:\n  active: {value: '0'}\n",
			want:     "UPDATE users\nSET active = '0';\n",
			wantWarn: true,
		},
		{
			name:  "incomplete update",
			kind:  "update",
			input: "table: ''\n",
			want:  "-- Select a table to build an UPDATE statement\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := writeFile(t, dir, "in.yaml", tt.input)
			out, errOut, err := run(t, "render", tt.kind, "-f", f)
			if err != nil {
				t.Fatalf("render error = %v (stderr %q)", err, errOut)
			}
			if out != tt.want {
				t.Errorf("stdout = %q, want %q", out, tt.want)
			}
			if got := strings.Contains(errOut, api.WarningUnscopedUpdate); got != tt.wantWarn {
				t.Errorf("warning shown = %v, want %v (stderr %q)", got, tt.wantWarn, errOut)
			}
		})
	}
}

func TestRender_Create(t *testing.T) {
	dir := setupEnv(t)
	f := writeFile(t, dir, "create.yaml", `
name: tags
columns:
  - {name: id, type: int, primary_key: true, auto_increment: true}
  - {name: label, type: varchar, length: "64"}
`)
	out, _, err := run(t, "render", "create", "-f", f)
	if err != nil {
		t.Fatalf("render create error = %v", err)
	}
	for _, want := range []string{"CREATE TABLE `tags`", "`label` VARCHAR(64)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_Errors(t *testing.T) {
	dir := setupEnv(t)
	bad := writeFile(t, dir, "bad.yaml", "tables: [users]\nlimit: -1\n")

	if _, _, err := run(t, "render", "select", "-f", bad); err == nil {
		t.Error("negative limit should fail")
	}
	if _, _, err := run(t, "render", "delete", "-f", bad); err == nil {
		t.Error("unknown statement kind should fail")
	}
	if _, _, err := run(t, "render", "select", "-f", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestQueryBrowseHistory(t *testing.T) {
	setupEnv(t)

	for _, q := range []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)",
		"INSERT INTO users (name, age) VALUES ('alice', 30), ('bob', NULL)",
	} {
		if _, errOut, err := run(t, "query", q); err != nil {
			t.Fatalf("query %q error = %v (%s)", q, err, errOut)
		}
	}

	out, _, err := run(t, "browse", "users", "--sort", "id", "-o", "csv")
	if err != nil {
		t.Fatalf("browse error = %v", err)
	}
	if want := "id,name,age\n1,alice,30\n2,bob,\n"; out != want {
		t.Errorf("browse csv = %q, want %q", out, want)
	}

	out, _, err = run(t, "query", "SELECT name FROM users WHERE age IS NULL", "-o", "json")
	if err != nil {
		t.Fatalf("select error = %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil || len(rows) != 1 || rows[0]["name"] != "bob" {
		t.Errorf("select json = %s (err %v)", out, err)
	}

	_, _, err = run(t, "query", "SELECT * FROM nope")
	if err == nil || !strings.Contains(err.Error(), "no such table") {
		t.Errorf("bad query error = %v, want no such table", err)
	}

	out, _, err = run(t, "history", "--action", "browse", "-o", "json")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("history json: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0]["table"] != "users" {
		t.Errorf("browse history = %v, want one entry for users", entries)
	}

	if _, _, err := run(t, "history", "--clear", "--yes"); err != nil {
		t.Fatalf("history --clear error = %v", err)
	}
	out, _, _ = run(t, "history", "-o", "json")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("history after clear = %s", out)
	}
}

func TestAlter_SQLiteUnsupported(t *testing.T) {
	dir := setupEnv(t)
	if _, _, err := run(t, "query", "CREATE TABLE t (id INTEGER PRIMARY KEY, note TEXT)"); err != nil {
		t.Fatal(err)
	}
	f := writeFile(t, dir, "actions.yaml", "- op: drop_column\n  column: note\n")

	out, _, err := run(t, "alter", "t", "-f", f, "--dry-run")
	if err != nil {
		t.Fatalf("alter --dry-run error = %v", err)
	}
	if !strings.Contains(out, "DROP COLUMN `note`") {
		t.Errorf("plan = %q", out)
	}

	// Without a terminal and without --yes nothing is applied.
	_, errOut, err := run(t, "alter", "t", "-f", f)
	if err != nil || !strings.Contains(errOut, "cancelled") {
		t.Errorf("unconfirmed alter: err=%v stderr=%q", err, errOut)
	}

	_, _, err = run(t, "alter", "t", "-f", f, "--yes")
	if err == nil || !strings.Contains(err.Error(), "cannot alter tables") {
		t.Errorf("alter on sqlite error = %v", err)
	}
}

func TestCodegen(t *testing.T) {
	dir := setupEnv(t)
	if _, _, err := run(t, "query", "CREATE TABLE order_items (id INTEGER PRIMARY KEY, sku TEXT)"); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "codegen", "--table", "ORDER_ITEMS")
	if err != nil {
		t.Fatalf("codegen error = %v", err)
	}
	if !strings.Contains(out, "class OrderItems") || !strings.Contains(out, ":pk_id") {
		t.Errorf("codegen output:\n%s", out)
	}

	path := filepath.Join(dir, "OrderItems.php")
	if _, _, err := run(t, "codegen", "-t", "order_items", "--class", "Items", "-o", path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "class Items") {
		t.Errorf("written class = %q (err %v)", data, err)
	}
}

func TestVersion(t *testing.T) {
	setupEnv(t)
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"sqlcraft dev", "mysql", "postgres", "sqlite"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}
