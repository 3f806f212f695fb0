package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// buildBinary compiles the command into dir
func buildBinary(t *testing.T, dir string) string {
	t.Helper()
	binaryPath := filepath.Join(dir, "icedrift-test")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, output)
	}
	return binaryPath
}

// TestBinaryProcess runs the built binary over a drift directory
func TestBinaryProcess(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("RUN_INTEGRATION_TESTS") != "1" {
		t.Skip("Skipping integration test (set RUN_INTEGRATION_TESTS=1 to run)")
	}

	tmpDir := t.TempDir()
	inDir := filepath.Join(tmpDir, "in")
	if err := os.Mkdir(inDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeDriftFile(t, inDir, "drift.csv", clusterRows())
	binaryPath := buildBinary(t, tmpDir)

	tests := []struct {
		name           string
		args           []string
		expectInOutput []string
		expectFail     bool
	}{
		{
			name: "process directory",
			args: []string{"--input", inDir, "--output-dir", filepath.Join(tmpDir, "out"), "--single-pass"},
			expectInOutput: []string{
				"icedrift version:",
				"Processing 1 drift file(s)",
				"5 observations, 1 scenes",
			},
		},
		{
			name: "summary only",
			args: []string{"--summary-only", "--input", inDir},
			expectInOutput: []string{
				"Found 1 drift file(s)",
				"Observations: 5, Scenes: 1",
			},
		},
		{
			name:           "missing config file",
			args:           []string{"--config=nonexistent.yaml", "--input", inDir},
			expectInOutput: []string{"config file not found"},
			expectFail:     true,
		},
		{
			name:           "invalid outlier type",
			args:           []string{"--input", inDir, "--outlier-type", "iqr"},
			expectInOutput: []string{"configuration error"},
			expectFail:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			cmd := exec.CommandContext(ctx, binaryPath, tt.args...)
			cmd.Dir = tmpDir
			output, err := cmd.CombinedOutput()
			outputStr := string(output)

			for _, expected := range tt.expectInOutput {
				if !strings.Contains(outputStr, expected) {
					t.Errorf("Expected output to contain '%s', but it didn't.\nFull output:\n%s",
						expected, outputStr)
				}
			}
			if tt.expectFail && err == nil {
				t.Error("Expected command to fail, but it succeeded")
			}
			if !tt.expectFail && err != nil {
				t.Errorf("Command failed: %v\n%s", err, outputStr)
			}
		})
	}
}

// TestBinaryServiceSignalHandling tests SIGINT handling of the HTTP service
func TestBinaryServiceSignalHandling(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "1" {
		t.Skip("Skipping integration test (set RUN_INTEGRATION_TESTS=1 to run)")
	}

	tmpDir := t.TempDir()
	writeDriftFile(t, tmpDir, "drift.csv", clusterRows())
	binaryPath := buildBinary(t, tmpDir)

	cmd := exec.Command(binaryPath, "--http", "--http-port", "18089",
		"--input", filepath.Join(tmpDir, "drift.csv"), "--output-dir", filepath.Join(tmpDir, "out"))
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start service: %v", err)
	}

	// Give it time to start
	time.Sleep(2 * time.Second)

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Logf("Failed to send SIGINT (process may have already exited): %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Service exited with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("Service did not shut down within timeout")
		if err := cmd.Process.Kill(); err != nil {
			t.Logf("Failed to kill process: %v", err)
		}
	}
}

// TestHelpFlag tests the --help output documents the mode flags
func TestHelpFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping go run in short mode")
	}
	cmd := exec.Command("go", "run", ".", "--help")
	output, err := cmd.CombinedOutput()
	if err != nil {
		if !strings.Contains(err.Error(), "exit status") {
			t.Fatalf("Failed to run --help: %v", err)
		}
	}

	outputStr := string(output)
	for _, flag := range []string{"-input", "-outlier-type", "-single-pass", "-mqtt", "-http"} {
		if !strings.Contains(outputStr, flag) {
			t.Errorf("Expected --help output to contain %s", flag)
		}
	}
}
