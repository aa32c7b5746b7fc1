package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cleanCorpus carries no fake-data placeholders, so every weave is
// byte-for-byte deterministic. Both sections have two subsections and
// every grid cell reads differently, which a 2x2 grid needs to pass the
// distinctness checks.
const cleanCorpus = `<html><body>
<h1>Alpha</h1>
<p>Alpha opening remarks.</p>
<h2>History</h2>
<p>Long ago the workshop produced brass instruments for touring orchestras across several northern provinces.</p>
<h2>Future</h2>
<p>Next year the cooperative plans to restore antique looms and teach weaving classes to local apprentices.</p>
<h1>Beta</h1>
<p>Beta opening remarks.</p>
<h2>Archive</h2>
<p>The archive holds photographs, ledgers and correspondence donated by retired members of the guild.</p>
<h2>Outlook</h2>
<p>Visits from traveling researchers keep growing, and the reading room now opens six days every week.</p>
</body></html>`

// writeCorpus drops a corpus document into a temp dir and returns its path.
func writeCorpus(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.html")
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

// runCommand executes a gossamerctl invocation against a fresh root
// command and returns stdout, stderr and the execution error.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestNewPreviewCmd(t *testing.T) {
	t.Parallel()

	cmd := NewPreviewCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "preview" {
			t.Errorf("expected use 'preview', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{"corpus", "c", ""},
			{"variant", "n", "1"},
			{"seed", "s", "0"},
			{"format", "f", "html"},
			{"output", "o", ""},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("%s shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("%s default = %q, want %q", tt.name, flag.DefValue, tt.defValue)
			}
		}
	})
}

func TestPreviewCmd_WeavesDeterministicVariant(t *testing.T) {
	t.Setenv("GOSSAMER_CORPUS", writeCorpus(t, cleanCorpus))
	t.Setenv("GOSSAMER_GROUPS", "2")
	t.Setenv("GOSSAMER_PER_GROUP", "2")

	out, errOut, err := runCommand(t, "preview", "--variant", "1", "--seed", "7", "--format", "text")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !strings.Contains(out, "brass instruments") {
		t.Errorf("variant 1 content missing from output:\n%s", out)
	}
	if strings.Contains(out, "<") {
		t.Errorf("text format leaked markup:\n%s", out)
	}
	if !strings.Contains(errOut, "variant=1 seed=7") {
		t.Errorf("weave summary missing from stderr: %q", errOut)
	}

	again, _, err := runCommand(t, "preview", "--variant", "1", "--seed", "7", "--format", "text")
	if err != nil {
		t.Fatalf("second preview failed: %v", err)
	}
	if out != again {
		t.Errorf("same variant and seed produced different pages")
	}
}

func TestPreviewCmd_WritesOutputFile(t *testing.T) {
	t.Setenv("GOSSAMER_CORPUS", writeCorpus(t, cleanCorpus))
	t.Setenv("GOSSAMER_GROUPS", "2")
	t.Setenv("GOSSAMER_PER_GROUP", "2")

	outPath := filepath.Join(t.TempDir(), "page.html")
	_, errOut, err := runCommand(t, "preview", "--variant", "2", "--seed", "7", "--output", outPath)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !strings.Contains(errOut, "wrote "+outPath) {
		t.Errorf("write confirmation missing from stderr: %q", errOut)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	if !strings.Contains(string(data), "antique looms") {
		t.Errorf("output file missing variant 2 content")
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Errorf("html output is not a full document")
	}
}

func TestPreviewCmd_RejectsVariantBeyondGrid(t *testing.T) {
	t.Setenv("GOSSAMER_CORPUS", writeCorpus(t, cleanCorpus))
	t.Setenv("GOSSAMER_GROUPS", "2")
	t.Setenv("GOSSAMER_PER_GROUP", "2")

	_, _, err := runCommand(t, "preview", "--variant", "99")
	if err == nil {
		t.Fatal("expected an error for a variant beyond the grid")
	}
	if !strings.Contains(err.Error(), "weave variant 99") {
		t.Errorf("error = %q, want it to name the variant", err.Error())
	}
}

func TestPreviewCmd_MissingCorpusFile(t *testing.T) {
	t.Setenv("GOSSAMER_CORPUS", filepath.Join(t.TempDir(), "absent.html"))

	_, _, err := runCommand(t, "preview")
	if err == nil {
		t.Fatal("expected an error for a missing corpus file")
	}
	if !strings.Contains(err.Error(), "load corpus") {
		t.Errorf("error = %q, want a load corpus failure", err.Error())
	}
}
