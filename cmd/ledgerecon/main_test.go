package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildBinary compiles the CLI into a temp dir and returns its path.
func buildBinary(t *testing.T) string {
	t.Helper()
	tmpBin := filepath.Join(t.TempDir(), "ledgerecon")
	buildCmd := exec.Command("go", "build", "-o", tmpBin, ".")
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\nOutput: %s", err, output)
	}
	return tmpBin
}

// TestMain_RequiredFlags tests that running without -serve or -input shows error and usage
func TestMain_RequiredFlags(t *testing.T) {
	tmpBin := buildBinary(t)

	cmd := exec.Command(tmpBin)
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Fatal("Expected non-zero exit code when no mode flag given")
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("Expected ExitError, got %T", err)
	}
	if exitErr.ExitCode() != 1 {
		t.Errorf("Expected exit code 1, got %d", exitErr.ExitCode())
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "either -serve or -input is required") {
		t.Errorf("Expected error about required mode flag, got:\n%s", outputStr)
	}
	if !strings.Contains(outputStr, "Usage:") {
		t.Errorf("Expected usage message, got:\n%s", outputStr)
	}
}

// TestMain_VersionFlag tests that -version prints version and exits 0
func TestMain_VersionFlag(t *testing.T) {
	tmpBin := buildBinary(t)

	cmd := exec.Command(tmpBin, "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Expected zero exit code for -version flag, got error: %v\nOutput:\n%s", err, output)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "ledgerecon version") {
		t.Errorf("Expected version output, got:\n%s", outputStr)
	}
}

// TestMain_OwnerValidation tests that preview mode rejects a missing owner id
func TestMain_OwnerValidation(t *testing.T) {
	tmpBin := buildBinary(t)

	dir := t.TempDir()
	stmt := filepath.Join(dir, "statement.txt")
	if err := os.WriteFile(stmt, []byte("03/07/2026;Bourbon Shopping;620,73\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "test.db")
	if err := os.WriteFile(cfg, []byte("database_path: "+dbPath+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(tmpBin, "-config", cfg, "-input", stmt, "-owner-id", "")
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Fatal("Expected non-zero exit code for empty owner id")
	}
	if !strings.Contains(string(output), "invalid owner flags") {
		t.Errorf("Expected owner validation error, got:\n%s", output)
	}
}
