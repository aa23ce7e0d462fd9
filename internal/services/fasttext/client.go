package fasttext

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"gleaner/internal/langid"
	"gleaner/internal/services"
)

// Test seam for process launching.
var commandContext = exec.CommandContext

// DefaultBinary is the fastText CLI name resolved from PATH when the
// configuration leaves the binary unset.
const DefaultBinary = "fasttext"

// Client runs a persistent `fasttext predict-prob <model> - 1` process and
// feeds it one sentence per line. It implements langid.Backend.
type Client struct {
	binary string
}

// New validates that the fastText binary is runnable and returns a client
// bound to the given model file. The process itself is started lazily on
// first prediction.
func New(binary string) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "fasttext", "lookup", "fasttext binary not found", err)
	}
	return &Client{binary: resolved}, nil
}

// Open returns a langid.BackendFactory backed by this client's binary.
func (c *Client) Open(modelPath string) (langid.Backend, error) {
	return &process{binary: c.binary, modelPath: modelPath}, nil
}

type process struct {
	binary    string
	modelPath string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Scanner
	started bool
}

func (p *process) start(ctx context.Context) error {
	// The process is detached from the per-job context: it outlives a single
	// job and serves every prediction for its model.
	cmd := commandContext(context.WithoutCancel(ctx), p.binary, "predict-prob", p.modelPath, "-", "1")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start fasttext: %w", err)
	}
	p.cmd = cmd
	p.stdin = stdin
	p.stdout = bufio.NewScanner(stdout)
	p.stdout.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	p.started = true
	return nil
}

// Predict implements langid.Backend. Sentences are flattened to a single
// line before being written; the classifier answers one line per input.
func (p *process) Predict(ctx context.Context, text string) (langid.RawPrediction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		if err := p.start(ctx); err != nil {
			return langid.RawPrediction{}, services.Wrap(services.ErrExternalTool, "fasttext", "start", "classifier process failed", err)
		}
	}

	line := strings.ReplaceAll(strings.ReplaceAll(text, "\n", " "), "\r", " ")
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		p.shutdown()
		return langid.RawPrediction{}, services.Wrap(services.ErrExternalTool, "fasttext", "write", "classifier process rejected input", err)
	}
	if !p.stdout.Scan() {
		err := p.stdout.Err()
		if err == nil {
			err = errors.New("classifier process closed its output")
		}
		p.shutdown()
		return langid.RawPrediction{}, services.Wrap(services.ErrExternalTool, "fasttext", "read", "classifier output unavailable", err)
	}
	return ParsePrediction(p.stdout.Text())
}

func (p *process) shutdown() {
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
		_ = p.cmd.Wait()
	}
	p.started = false
	p.cmd = nil
}

// Close terminates the underlying process.
func (p *process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown()
	return nil
}

// ParsePrediction decodes a single `predict-prob` output line such as
// "__label__kaz_Cyrl 0.98312".
func ParsePrediction(line string) (langid.RawPrediction, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return langid.RawPrediction{}, services.Wrap(services.ErrExternalTool, "fasttext", "parse",
			fmt.Sprintf("malformed prediction line %q", line), nil)
	}
	prob, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return langid.RawPrediction{}, services.Wrap(services.ErrExternalTool, "fasttext", "parse",
			fmt.Sprintf("malformed probability in %q", line), err)
	}
	return langid.RawPrediction{Label: fields[0], Probability: prob}, nil
}
