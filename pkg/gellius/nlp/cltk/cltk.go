// Package cltk delegates analysis to the Python CLTK library through a
// long-lived worker process speaking JSON lines on stdin/stdout.
package cltk

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/cognicore/gellius/internal/logging"
	"github.com/cognicore/gellius/pkg/gellius/internalerr"
	"github.com/cognicore/gellius/pkg/gellius/nlp"
)

//go:embed worker.py
var workerScript []byte

const (
	DefaultPython       = "python3"
	DefaultStartTimeout = 2 * time.Minute
	maxLine             = 32 * 1024 * 1024
)

// Options configure the worker process.
type Options struct {
	// Python interpreter (default python3).
	Python string
	// Script overrides the embedded worker script.
	Script string
	// Command replaces the whole argv when set.
	Command []string
	// Env is appended to the current environment.
	Env []string
	// StartTimeout bounds the wait for the READY line (CLTK downloads models
	// on first use, so this is generous by default).
	StartTimeout time.Duration
	Stderr       io.Writer
	Logger       *logging.Logger
}

type workerConfig struct {
	Language string   `json:"language"`
	Stages   []string `json:"stages"`
}

type readyMessage struct {
	Status    string   `json:"status"`
	Processes []string `json:"processes"`
	Error     string   `json:"error,omitempty"`
}

type request struct {
	Text string `json:"text"`
}

type response struct {
	Tokens []struct {
		Text string `json:"text"`
		Stop bool   `json:"stop"`
	} `json:"tokens"`
	Error string `json:"error,omitempty"`
}

type line struct {
	data []byte
	err  error
}

// Analyzer owns one worker process for the whole run.
type Analyzer struct {
	cfg       nlp.Config
	log       *logging.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	scanner   *bufio.Scanner
	tmpDir    string
	processes []string

	mu     sync.Mutex
	broken error
	closed bool
}

// New starts the worker and waits for it to report ready.
func New(ctx context.Context, cfg nlp.Config, opts Options) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDiscard()
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = DefaultStartTimeout
	}

	a := &Analyzer{
		cfg: nlp.Config{Language: cfg.Language, Stages: append([]nlp.Stage(nil), cfg.Stages...)},
		log: opts.Logger,
	}

	argv, err := a.command(opts)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		a.cleanup()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		a.cleanup()
		return nil, fmt.Errorf("%w: start worker: %w", internalerr.ErrAnalyzer, err)
	}

	a.cmd = cmd
	a.stdin = stdin
	a.scanner = bufio.NewScanner(stdout)
	a.scanner.Buffer(make([]byte, 64*1024), maxLine)

	a.log.Info("Starting CLTK worker for %s", a.cfg)
	if err := a.handshake(ctx, opts.StartTimeout); err != nil {
		a.kill()
		return nil, fmt.Errorf("%w: %w", internalerr.ErrAnalyzer, err)
	}
	a.log.Info("CLTK worker ready, processes: %v", a.processes)
	return a, nil
}

func (a *Analyzer) command(opts Options) ([]string, error) {
	if len(opts.Command) > 0 {
		return opts.Command, nil
	}
	script := opts.Script
	if script == "" {
		dir, err := os.MkdirTemp("", "gellius-cltk-")
		if err != nil {
			return nil, fmt.Errorf("worker temp dir: %w", err)
		}
		a.tmpDir = dir
		script = filepath.Join(dir, "worker.py")
		if err := os.WriteFile(script, workerScript, 0o644); err != nil {
			a.cleanup()
			return nil, fmt.Errorf("write worker script: %w", err)
		}
	}
	python := opts.Python
	if python == "" {
		python = DefaultPython
	}
	return []string{python, script}, nil
}

func (a *Analyzer) handshake(ctx context.Context, timeout time.Duration) error {
	stages := make([]string, len(a.cfg.Stages))
	for i, s := range a.cfg.Stages {
		stages[i] = string(s)
	}
	if err := a.send(workerConfig{Language: a.cfg.Language, Stages: stages}); err != nil {
		return fmt.Errorf("send config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := a.receive(ctx)
	if err != nil {
		return fmt.Errorf("await ready: %w", err)
	}
	var ready readyMessage
	if err := json.Unmarshal(data, &ready); err != nil {
		return fmt.Errorf("decode ready message: %w", err)
	}
	if ready.Error != "" {
		return fmt.Errorf("worker: %s", ready.Error)
	}
	if ready.Status != "ready" {
		return fmt.Errorf("unexpected worker status %q", ready.Status)
	}
	a.processes = ready.Processes
	return nil
}

func (a *Analyzer) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = a.stdin.Write(data)
	return err
}

// receive reads one line, giving up when ctx ends.
func (a *Analyzer) receive(ctx context.Context) ([]byte, error) {
	ch := make(chan line, 1)
	go func() {
		if a.scanner.Scan() {
			data := append([]byte(nil), a.scanner.Bytes()...)
			ch <- line{data: data}
			return
		}
		err := a.scanner.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		ch <- line{err: err}
	}()

	select {
	case l := <-ch:
		return l.data, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Analyze sends one text to the worker. A failed round trip leaves the
// protocol out of sync, so the worker is stopped and later calls fail.
func (a *Analyzer) Analyze(ctx context.Context, text string) (nlp.Doc, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nlp.Doc{}, errors.New("cltk analyzer is closed")
	}
	if a.broken != nil {
		return nlp.Doc{}, fmt.Errorf("cltk worker unavailable: %w", a.broken)
	}

	if err := a.send(request{Text: text}); err != nil {
		return nlp.Doc{}, a.fail(fmt.Errorf("send request: %w", err))
	}
	data, err := a.receive(ctx)
	if err != nil {
		return nlp.Doc{}, a.fail(fmt.Errorf("read response: %w", err))
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nlp.Doc{}, a.fail(fmt.Errorf("decode response: %w", err))
	}
	if resp.Error != "" {
		return nlp.Doc{}, fmt.Errorf("cltk: %s", resp.Error)
	}

	doc := nlp.Doc{Tokens: make([]nlp.Token, len(resp.Tokens))}
	for i, t := range resp.Tokens {
		doc.Tokens[i] = nlp.Token{Text: t.Text, Stop: t.Stop && a.cfg.Enabled(nlp.StageStops)}
	}
	return doc, nil
}

func (a *Analyzer) fail(err error) error {
	a.broken = err
	a.kill()
	return err
}

func (a *Analyzer) Config() nlp.Config {
	return a.cfg
}

// Processes lists the CLTK processes the worker kept.
func (a *Analyzer) Processes() []string {
	return a.processes
}

// Close ends the worker: stdin is closed so it exits on EOF, and it is
// killed if it does not exit in time.
func (a *Analyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	defer a.cleanup()

	if a.broken != nil {
		return nil
	}
	a.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- a.cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("cltk worker exit: %w", err)
		}
		return nil
	case <-time.After(5 * time.Second):
		a.cmd.Process.Kill()
		<-done
		return errors.New("cltk worker did not exit, killed")
	}
}

func (a *Analyzer) kill() {
	if a.stdin != nil {
		a.stdin.Close()
	}
	if a.cmd != nil && a.cmd.Process != nil {
		a.cmd.Process.Kill()
		a.cmd.Wait()
	}
	a.cleanup()
}

func (a *Analyzer) cleanup() {
	if a.tmpDir != "" {
		os.RemoveAll(a.tmpDir)
		a.tmpDir = ""
	}
}
