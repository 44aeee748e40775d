package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediasort/internal/testsupport"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"data_dir = %q\nlog_dir = %q\nmode = \"copy\"\ncompare_content = true\n",
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLIOrganizeAndDuplicateFlow(t *testing.T) {
	env := setupCLITestEnv(t)
	source := t.TempDir()
	dest := t.TempDir()

	testsupport.WriteJPEG(t, filepath.Join(source, "img_001.jpg"), testsupport.EXIFFields{
		"DateTimeOriginal": "2023:05:10 14:30:00",
	})

	out, _, err := runCLI(t, []string{"organize", source, dest}, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	requireContains(t, out, "Copied")

	placed := filepath.Join(dest, "2023", "05", "10", "img_001.jpg")
	if _, err := os.Stat(placed); err != nil {
		t.Fatalf("expected %s placed: %v", placed, err)
	}

	// The second pass finds the byte-identical occupant.
	out, _, err = runCLI(t, []string{"organize", source, dest}, env.configPath)
	if err != nil {
		t.Fatalf("second organize: %v", err)
	}
	requireContains(t, out, "duplicates list")

	out, _, err = runCLI(t, []string{"duplicates", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("duplicates list: %v", err)
	}
	requireContains(t, out, "identical")
	requireContains(t, out, "delete-marked")

	out, _, err = runCLI(t, []string{"duplicates", "apply", "--move", dest}, env.configPath)
	if err != nil {
		t.Fatalf("duplicates apply: %v", err)
	}
	requireContains(t, out, "Applied 1")

	// Move mode carries the auto-mark out by trashing the source.
	if _, err := os.Stat(filepath.Join(source, "img_001.jpg")); !os.IsNotExist(err) {
		t.Fatalf("expected identical source trashed, got %v", err)
	}
	if _, err := os.Stat(placed); err != nil {
		t.Fatalf("destination must survive apply: %v", err)
	}
}

func TestCLIDuplicatesResolveRequiresOneFlag(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"duplicates", "resolve", "1"}, env.configPath); err == nil {
		t.Fatal("expected missing resolution flag to fail")
	}
	if _, _, err := runCLI(t, []string{"duplicates", "resolve", "1", "--skip", "--replace"}, env.configPath); err == nil {
		t.Fatal("expected conflicting resolution flags to fail")
	}
}

func TestCLIHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	source := t.TempDir()
	dest := t.TempDir()
	testsupport.WriteBareJPEG(t, filepath.Join(source, "a.jpg"))

	if _, _, err := runCLI(t, []string{"organize", source, dest}, env.configPath); err != nil {
		t.Fatalf("organize: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, dest)
}

func TestCLIConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}
