package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// executeCommand runs the root command in-process with args and returns its stdout
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		for _, c := range rootCmd.Commands() {
			resetFlags(c.Flags())
		}
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores flag defaults so one invocation does not leak into the next
func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// writeDocuments creates a small corpus and returns the input and output directories
func writeDocuments(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	in := filepath.Join(root, "documents")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"2024-01-15-cover-letter.txt": "Dear Hiring Manager,\n\nI believe in collaborative leadership. " +
			"Furthermore, I enjoy stakeholder management across product groups.\n" +
			"I look forward to discussing the role.\n\nSincerely,\nJordan",
		"2024-02-01-resume.txt": "Senior Software Engineer at TechCorp\n" +
			"- Led the payments team through a migration with careful stakeholder management.\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(in, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return in, filepath.Join(root, "lexicons")
}
