package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	want := map[string]bool{
		"debuginfo":  false,
		"executable": false,
		"source":     false,
		"version":    false,
	}

	for _, sub := range rootCmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}

	for name, seen := range want {
		if !seen {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	if !rootCmd.SilenceUsage {
		t.Error("root command should silence usage on runtime errors")
	}
	if !rootCmd.SilenceErrors {
		t.Error("root command should leave error printing to main")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "debuginfod-find") {
		t.Errorf("output %q does not name the tool", out)
	}
	if !strings.Contains(out, "Go version:") {
		t.Errorf("output %q does not report the Go version", out)
	}
}
