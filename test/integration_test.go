// ABOUTME: Integration tests for lift CLI.
// ABOUTME: Builds the binary and runs a full program-building workflow.
package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestFullWorkflow(t *testing.T) {
	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	liftBinary := filepath.Join(projectRoot, "lift")

	buildCmd := exec.Command("go", "build", "-o", liftBinary, "./cmd/lift")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}
	defer os.Remove(liftBinary)

	// Use temp data and config dirs
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--data-dir", dataDir}, args...)
		cmd := exec.Command(liftBinary, fullArgs...)
		cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+filepath.Join(tmpDir, "config"), "NO_COLOR=1")
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	seed := filepath.Join(tmpDir, "catalog.yaml")
	if err := os.WriteFile(seed, []byte(`exercises:
  - id: press-banca
    name: Press banca
    primary_muscle: Pectoral mayor
  - id: remo
    name: Remo con barra
    primary_muscle: Espalda
`), 0600); err != nil {
		t.Fatalf("Failed to write seed: %v", err)
	}

	// Test catalog import
	output, err := run("exercises", "import", seed)
	if err != nil {
		t.Fatalf("Failed to import exercises: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Imported 2 exercises") {
		t.Errorf("Expected 'Imported 2 exercises' in output, got: %s", output)
	}

	// Test program add
	output, err = run("program", "add", "Torso")
	if err != nil {
		t.Fatalf("Failed to add program: %v\n%s", err, output)
	}
	m := regexp.MustCompile(`ID: (\S+)`).FindStringSubmatch(output)
	if m == nil {
		t.Fatalf("Expected program ID in output, got: %s", output)
	}
	programID := m[1]

	// Test day add
	output, err = run("day", "add", programID)
	if err != nil {
		t.Fatalf("Failed to add day: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Día A") {
		t.Errorf("Expected 'Día A' in output, got: %s", output)
	}

	// Test item add and set
	output, err = run("item", "add", programID, "1", "remo")
	if err != nil {
		t.Fatalf("Failed to add item: %v\n%s", err, output)
	}
	output, err = run("item", "set", programID, "remo", "--sets", "5", "--reps", "5")
	if err != nil {
		t.Fatalf("Failed to set item: %v\n%s", err, output)
	}
	if !strings.Contains(output, "5 × 5") {
		t.Errorf("Expected '5 × 5' in output, got: %s", output)
	}

	// Test show
	output, err = run("program", "show", programID)
	if err != nil {
		t.Fatalf("Failed to show program: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Remo con barra") {
		t.Errorf("Expected 'Remo con barra' in show output, got: %s", output)
	}

	// Test search
	output, err = run("exercises", "search", "pectoral")
	if err != nil {
		t.Fatalf("Failed to search: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Press banca") {
		t.Errorf("Expected 'Press banca' in search output, got: %s", output)
	}
}
