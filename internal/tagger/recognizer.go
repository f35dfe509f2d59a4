package tagger

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

	"go.uber.org/zap"
)

// Recognizer returns the labels detected in one image.
type Recognizer interface {
	Recognize(ctx context.Context, image string) ([]string, error)
	Close() error
}

// RecognizerFactory starts a Recognizer for a model. Starting usually loads
// the model, so it happens once per job.
type RecognizerFactory func(ctx context.Context, modelPath string, imageSize int, stderr io.Writer) (Recognizer, error)

const (
	readyLine   = "READY"
	errorPrefix = "ERR "
)

// CommandSpec names the external recognizer program.
type CommandSpec struct {
	Command string
	Args    []string
}

// NewCommandFactory returns a factory that starts spec as a child process.
// The process is started with --model and --image-size appended to its
// arguments and must print READY once the model is loaded. It then reads one
// image path per line and answers each with a line of tab-separated labels,
// or with "ERR <message>".
func NewCommandFactory(spec CommandSpec, logger *zap.Logger) RecognizerFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, modelPath string, imageSize int, stderr io.Writer) (Recognizer, error) {
		return startCommand(ctx, spec, modelPath, imageSize, stderr, logger)
	}
}

// CommandRecognizer talks to a long-running recognizer process.
type CommandRecognizer struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  *bufio.Scanner
	logger *zap.Logger
	closed bool
}

func startCommand(ctx context.Context, spec CommandSpec, modelPath string, imageSize int, stderr io.Writer, logger *zap.Logger) (*CommandRecognizer, error) {
	name := strings.TrimSpace(spec.Command)
	if name == "" {
		return nil, fmt.Errorf("recognizer command is empty")
	}
	args := append([]string(nil), spec.Args...)
	args = append(args, "--model", modelPath, "--image-size", strconv.Itoa(imageSize))

	cmd := exec.CommandContext(ctx, name, args...)
	if stderr != nil {
		cmd.Stderr = stderr
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("recognizer stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recognizer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recognizer %s: %w", name, err)
	}
	r := &CommandRecognizer{
		cmd:    cmd,
		stdin:  stdin,
		lines:  bufio.NewScanner(stdout),
		logger: logger,
	}
	r.lines.Buffer(make([]byte, 64*1024), 1024*1024)

	line, err := r.readLine()
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("recognizer did not become ready: %w", err)
	}
	if line != readyLine {
		_ = r.Close()
		if msg, ok := strings.CutPrefix(line, errorPrefix); ok {
			return nil, fmt.Errorf("recognizer failed to start: %s", msg)
		}
		return nil, fmt.Errorf("recognizer sent %q instead of %s", line, readyLine)
	}
	logger.Info("recognizer ready", zap.String("command", name), zap.Int("pid", cmd.Process.Pid))
	return r, nil
}

// Recognize sends image to the process and parses the reply.
func (r *CommandRecognizer) Recognize(_ context.Context, image string) ([]string, error) {
	if strings.ContainsAny(image, "\r\n") {
		return nil, fmt.Errorf("image path contains a line break")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRecognizerExited
	}
	if _, err := io.WriteString(r.stdin, image+"\n"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognizerExited, err)
	}
	line, err := r.readLine()
	if err != nil {
		return nil, err
	}
	if msg, ok := strings.CutPrefix(line, errorPrefix); ok {
		return nil, errors.New(msg)
	}
	return parseLabels(line), nil
}

// Close ends the process by closing its input and waits for it.
func (r *CommandRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	_ = r.stdin.Close()
	err := r.cmd.Wait()
	if err != nil {
		r.logger.Debug("recognizer exit", zap.Error(err))
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("wait for recognizer: %w", err)
	}
	return nil
}

func (r *CommandRecognizer) readLine() (string, error) {
	if r.lines.Scan() {
		return strings.TrimRight(r.lines.Text(), "\r"), nil
	}
	if err := r.lines.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognizerExited, err)
	}
	return "", ErrRecognizerExited
}

func parseLabels(line string) []string {
	var labels []string
	for _, field := range strings.Split(line, "\t") {
		if label := strings.TrimSpace(field); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}
