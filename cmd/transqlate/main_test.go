package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string, stdin string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunStdin(t *testing.T) {
	code, out, _ := runCLI(t,
		[]string{"--from", "mysql", "--to", "postgres"},
		"SELECT `id` FROM t LIMIT 5, 10;\n")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	want := "SELECT \"id\" FROM t LIMIT 10 OFFSET 5;\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestRunSummaryLine(t *testing.T) {
	code, _, errOut := runCLI(t,
		[]string{"--from", "postgres", "--to", "sqlite"},
		"SELECT 1;\nSELECT 2;\n")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(errOut, "2/2 statements translated") {
		t.Errorf("stderr = %q, want summary line", errOut)
	}
}

func TestRunMissingDialects(t *testing.T) {
	code, _, errOut := runCLI(t, nil, "")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(errOut, "--from and --to are required") {
		t.Errorf("stderr = %q, want missing dialect error", errOut)
	}
}

func TestRunUnknownDialect(t *testing.T) {
	code, _, _ := runCLI(t, []string{"--from", "db2", "--to", "postgres"}, "SELECT 1;")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunVersion(t *testing.T) {
	code, out, _ := runCLI(t, []string{"-v"}, "")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out, "transqlate version") {
		t.Errorf("stdout = %q, want version string", out)
	}
}

func TestRunHelp(t *testing.T) {
	code, out, _ := runCLI(t, []string{"-h"}, "")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("stdout = %q, want usage text", out)
	}
}

func TestRunTranslationFailure(t *testing.T) {
	code, _, errOut := runCLI(t,
		[]string{"--from", "postgres", "--to", "sqlite"},
		"SELECT FROM WHERE;\n")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "statement 1") {
		t.Errorf("stderr = %q, want per-statement diagnostic", errOut)
	}
}

func TestRunFileToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.sql")
	out := filepath.Join(dir, "out.sql")
	if err := os.WriteFile(in, []byte("SELECT TOP 3 id FROM t;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, _ := runCLI(t,
		[]string{"--from", "sqlserver", "--to", "sqlite", "-o", out, in}, "")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "SELECT id FROM t LIMIT 3;\n"
	if string(data) != want {
		t.Errorf("output file = %q, want %q", string(data), want)
	}
}

func TestRunCheckMode(t *testing.T) {
	code, out, _ := runCLI(t,
		[]string{"--from", "postgres", "--to", "sqlite", "--check"},
		"MERGE INTO t USING s ON t.id = s.id WHEN MATCHED THEN DELETE;\n")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "MERGE_STATEMENT") || !strings.Contains(out, "missing on sqlite") {
		t.Errorf("stdout = %q, want feature report", out)
	}
}

func TestRunCheckModeClean(t *testing.T) {
	code, out, _ := runCLI(t,
		[]string{"--from", "postgres", "--to", "mysql", "--check"},
		"SELECT id FROM t LIMIT 10;\n")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out, "statement 1: requires []") {
		t.Errorf("stdout = %q, want empty feature list", out)
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "transqlate.yaml")
	cfgText := "source: mysql\ntarget: postgres\npolicy: best-effort\n"
	if err := os.WriteFile(cfgPath, []byte(cfgText), 0644); err != nil {
		t.Fatal(err)
	}

	code, out, _ := runCLI(t,
		[]string{"-c", cfgPath},
		"SELECT id FROM t WHERE deleted = FALSE;\n")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out, "SELECT id FROM t WHERE deleted = FALSE;") {
		t.Errorf("stdout = %q", out)
	}
}

func TestOutputPath(t *testing.T) {
	if got := outputPath("sql/queries.sql", "mysql"); got != "sql/queries.mysql.sql" {
		t.Errorf("outputPath = %q", got)
	}
	if !isTranslated("sql/queries.mysql.sql") {
		t.Error("isTranslated should recognize generated names")
	}
	if isTranslated("sql/queries.sql") {
		t.Error("isTranslated misfired on a plain script")
	}
}
