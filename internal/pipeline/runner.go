package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// Runner executes stages one at a time, in declaration order, in a single
// thread of control. Each child process inherits the runner's stdio so tool
// output streams live; the runner captures only exit status and duration.
type Runner struct {
	stages []Stage
	logger *slog.Logger
	dir    string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option adjusts a Runner.
type Option func(*Runner)

// WithDir sets the working directory stages run in. A stage's own dir
// field still takes precedence.
func WithDir(dir string) Option {
	return func(r *Runner) { r.dir = dir }
}

// WithStdio redirects the streams handed to child processes. Used by tests;
// the default is the runner process's own stdin/stdout/stderr.
func WithStdio(in io.Reader, out, errw io.Writer) Option {
	return func(r *Runner) {
		r.stdin = in
		r.stdout = out
		r.stderr = errw
	}
}

// New creates a Runner over the given stages.
func New(stages []Stage, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		stages: stages,
		logger: logger,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the stages sequentially and returns the finalized Result.
//
// Fail-fast: a failing stage halts the run unless it declares
// continue_on_failure, in which case the failure is recorded and the next
// stage runs. Interruption always halts. No stage after a halting failure
// is ever attempted.
func (r *Runner) Run(ctx context.Context) *Result {
	res := &Result{}
	start := time.Now()

	for _, st := range r.stages {
		sr := r.runStage(ctx, st)
		res.record(sr)

		if !sr.Failed() {
			continue
		}
		if sr.Kind == FailInterrupted || !st.ContinueOnFailure {
			break
		}
		r.logger.Warn("continuing past failed stage", "stage", st.Name)
	}

	res.Duration = time.Since(start)
	return res
}

func (r *Runner) runStage(ctx context.Context, st Stage) StageResult {
	log := r.logger.With("stage", st.Name)
	log.Info("running stage", "command", st.Command, "args", st.Args)

	cmd := exec.CommandContext(ctx, st.Command, st.Args...)
	cmd.Dir = st.Dir
	if cmd.Dir == "" {
		cmd.Dir = r.dir
	}
	// Environment passes through unmodified; the tools own their config.
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	start := time.Now()
	err := cmd.Run()
	sr := StageResult{Stage: st.Name, Duration: time.Since(start)}

	if err == nil {
		log.Debug("stage passed", "duration", sr.Duration)
		return sr
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		sr.Kind = FailInterrupted
		sr.ExitCode = -1
		sr.Err = fmt.Errorf("stage %q interrupted: %w", st.Name, ctx.Err())
	case errors.As(err, &exitErr):
		sr.Kind = FailExecution
		sr.ExitCode = exitErr.ExitCode()
		sr.Err = fmt.Errorf("stage %q exited with status %d", st.Name, sr.ExitCode)
	default:
		sr.Kind = FailLaunch
		sr.ExitCode = -1
		sr.Err = fmt.Errorf("starting stage %q: %w", st.Name, err)
	}

	log.Error("stage failed", "kind", sr.Kind, "error", sr.Err, "duration", sr.Duration)
	return sr
}
