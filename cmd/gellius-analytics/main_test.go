package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/gellius/pkg/gellius"
	"github.com/cognicore/gellius/pkg/gellius/internalerr"
)

const fixture = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <text><body><div type="edition">
    <div type="textpart" subtype="book">
      <head>Liber I</head>
      <div type="textpart" subtype="chapter"><p>Plutarchus in libro, quem de Herculis animo scripsit.</p></div>
    </div>
  </div></body></text>
</TEI>`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.xml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSuccess(t *testing.T) {
	input := writeFixture(t, fixture)
	out := filepath.Join(t.TempDir(), "out")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-input", input, "-out", out, "-top", "5", "-report"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr.String())
	}
	for _, name := range []string{"book_dict.json", "preprocessed_book_dict.json", "top_words_all_books.json", "top_words_per_book.json", "manifest.json", "report.html"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("Missing %s", name)
		}
	}
	if !strings.Contains(stdout.String(), "Analyzing Liber I") {
		t.Errorf("Expected progress output, got:\n%s", stdout.String())
	}
}

func TestRunConfigFile(t *testing.T) {
	input := writeFixture(t, fixture)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gellius.yaml")
	cfg := fmt.Sprintf("input: %s\noutput_dir: %s\noutputs:\n  top_global: global.json\nlog_level: warn\n", input, dir)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-config", cfgPath}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "global.json")); err != nil {
		t.Error("Configured artifact name not used")
	}
	if stdout.Len() != 0 {
		t.Errorf("warn level should silence progress, got:\n%s", stdout.String())
	}
}

func TestRunExitCodes(t *testing.T) {
	good := writeFixture(t, fixture)
	noHead := writeFixture(t, strings.Replace(fixture, "<head>Liber I</head>", "", 1))
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"-nope"}, exitConfig},
		{"bad top", []string{"-input", good, "-out", t.TempDir(), "-top", "0"}, exitConfig},
		{"bad backend", []string{"-input", good, "-out", t.TempDir(), "-backend", "spacy"}, exitConfig},
		{"missing config", []string{"-config", "/nonexistent/gellius.yaml"}, exitConfig},
		{"missing input", []string{"-input", "/nonexistent/books.xml", "-out", t.TempDir()}, exitExtract},
		{"missing head", []string{"-input", noHead, "-out", t.TempDir()}, exitExtract},
		{"unwritable output", []string{"-input", good, "-out", blocker}, exitOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(context.Background(), tt.args, &stdout, &stderr); got != tt.want {
				t.Errorf("exit %d, want %d; stderr:\n%s", got, tt.want, stderr.String())
			}
		})
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-input", writeFixture(t, fixture), "-out", t.TempDir()}, &stdout, &stderr)
	if code != exitAnalyze {
		t.Errorf("exit %d, want %d", code, exitAnalyze)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{&gellius.StageError{Stage: gellius.StageExtract, Err: internalerr.ErrInvalidInput}, exitExtract},
		{&gellius.StageError{Stage: gellius.StageAnalyze, Err: context.Canceled}, exitAnalyze},
		{&gellius.StageError{Stage: gellius.StageOutput, Err: internalerr.ErrOutput}, exitOutput},
		{fmt.Errorf("build: %w", internalerr.ErrInvalidConfig), exitConfig},
		{fmt.Errorf("build cltk analyzer: %w", internalerr.ErrAnalyzer), exitAnalyze},
		{errors.New("unknown"), exitConfig},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
