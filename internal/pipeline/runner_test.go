package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recorderStage writes a script that appends its own name to order.log
// before exiting with the given status, so tests can observe which stages
// ran and in what order.
func recorderStage(t *testing.T, dir, name string, exitCode int) Stage {
	t.Helper()
	script := filepath.Join(dir, name+".sh")
	content := "#!/bin/sh\necho " + name + " >> order.log\nexit " + strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return Stage{Name: name, Command: script, Dir: dir}
}

func recordedOrder(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "order.log"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	return strings.Fields(string(data))
}

func newTestRunner(stages []Stage) *Runner {
	return New(stages, testLogger(), WithStdio(nil, io.Discard, io.Discard))
}

func TestRun_DeclarationOrder(t *testing.T) {
	dir := t.TempDir()
	stages := []Stage{
		recorderStage(t, dir, "check", 0),
		recorderStage(t, dir, "fmt", 0),
		recorderStage(t, dir, "test", 0),
	}

	res := newTestRunner(stages).Run(context.Background())

	if !res.Success() {
		t.Fatalf("expected success, failed at %q", res.FailedStage)
	}
	if got := recordedOrder(t, dir); strings.Join(got, ",") != "check,fmt,test" {
		t.Errorf("invocation order = %v, want [check fmt test]", got)
	}
	if len(res.Stages) != 3 {
		t.Fatalf("attempted stages = %d, want 3", len(res.Stages))
	}
	for i, sr := range res.Stages {
		if sr.Failed() {
			t.Errorf("stage[%d] %s failed: %v", i, sr.Stage, sr.Err)
		}
		if sr.ExitCode != 0 {
			t.Errorf("stage[%d] exit code = %d, want 0", i, sr.ExitCode)
		}
		if sr.Duration <= 0 {
			t.Errorf("stage[%d] duration not recorded", i)
		}
	}
	if res.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode())
	}
}

func TestRun_FailFast(t *testing.T) {
	dir := t.TempDir()
	stages := []Stage{
		recorderStage(t, dir, "check", 0),
		recorderStage(t, dir, "clippy", 101),
		recorderStage(t, dir, "test", 0),
	}

	res := newTestRunner(stages).Run(context.Background())

	if res.Success() {
		t.Fatal("expected failure")
	}
	if res.FailedStage != "clippy" {
		t.Errorf("failed stage = %q, want %q", res.FailedStage, "clippy")
	}
	if len(res.Stages) != 2 {
		t.Fatalf("attempted stages = %d, want 2 (test must never run)", len(res.Stages))
	}
	if got := recordedOrder(t, dir); strings.Join(got, ",") != "check,clippy" {
		t.Errorf("invocation order = %v, want [check clippy]", got)
	}

	sr := res.Stages[1]
	if sr.Kind != FailExecution {
		t.Errorf("failure kind = %q, want %q", sr.Kind, FailExecution)
	}
	if sr.ExitCode != 101 {
		t.Errorf("stage exit code = %d, want 101", sr.ExitCode)
	}
	if res.ExitCode() != 101 {
		t.Errorf("pipeline exit code = %d, want 101 (propagated)", res.ExitCode())
	}
}

func TestRun_ContinueOnFailure(t *testing.T) {
	dir := t.TempDir()
	lint := recorderStage(t, dir, "lint", 1)
	lint.ContinueOnFailure = true
	stages := []Stage{
		recorderStage(t, dir, "check", 0),
		lint,
		recorderStage(t, dir, "test", 0),
	}

	res := newTestRunner(stages).Run(context.Background())

	if got := recordedOrder(t, dir); strings.Join(got, ",") != "check,lint,test" {
		t.Errorf("invocation order = %v, want all three", got)
	}
	if len(res.Stages) != 3 {
		t.Fatalf("attempted stages = %d, want 3", len(res.Stages))
	}
	// The run still counts as failed even though later stages ran.
	if res.Success() {
		t.Error("run with any failure must not be a success")
	}
	if res.FailedStage != "lint" {
		t.Errorf("failed stage = %q, want %q", res.FailedStage, "lint")
	}
	if res.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", res.ExitCode())
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	dir := t.TempDir()
	stages := []Stage{
		recorderStage(t, dir, "check", 0),
		{Name: "ghost", Command: filepath.Join(dir, "does-not-exist"), Dir: dir},
		recorderStage(t, dir, "test", 0),
	}

	res := newTestRunner(stages).Run(context.Background())

	if res.FailedStage != "ghost" {
		t.Fatalf("failed stage = %q, want %q", res.FailedStage, "ghost")
	}
	if len(res.Stages) != 2 {
		t.Fatalf("attempted stages = %d, want 2", len(res.Stages))
	}

	sr := res.Stages[1]
	if sr.Kind != FailLaunch {
		t.Errorf("failure kind = %q, want %q", sr.Kind, FailLaunch)
	}
	if sr.Err == nil {
		t.Error("launch failure must carry an error")
	}
	if res.ExitCode() != 1 {
		t.Errorf("exit code = %d, want reserved 1", res.ExitCode())
	}
	if got := recordedOrder(t, dir); strings.Join(got, ",") != "check" {
		t.Errorf("invocation order = %v, want [check] only", got)
	}
}

func TestRun_EmptyCommand(t *testing.T) {
	dir := t.TempDir()
	stages := []Stage{{Name: "blank", Dir: dir}}

	res := newTestRunner(stages).Run(context.Background())

	if res.Stages[0].Kind != FailLaunch {
		t.Errorf("failure kind = %q, want %q", res.Stages[0].Kind, FailLaunch)
	}
	if res.FailedStage != "blank" {
		t.Errorf("failed stage = %q, want %q", res.FailedStage, "blank")
	}
}

func TestRun_Interrupted(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 10\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	stages := []Stage{
		{Name: "slow", Command: script, Dir: dir},
		recorderStage(t, dir, "after", 0),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res := newTestRunner(stages).Run(ctx)

	if len(res.Stages) != 1 {
		t.Fatalf("attempted stages = %d, want 1", len(res.Stages))
	}
	sr := res.Stages[0]
	if sr.Kind != FailInterrupted {
		t.Errorf("failure kind = %q, want %q", sr.Kind, FailInterrupted)
	}
	if res.FailedStage != "slow" {
		t.Errorf("failed stage = %q, want %q", res.FailedStage, "slow")
	}
	if got := recordedOrder(t, dir); len(got) != 0 {
		t.Errorf("no stage after interruption may run, got %v", got)
	}
}

func TestRun_InterruptionHaltsDespiteContinueOnFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 10\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	stages := []Stage{
		{Name: "slow", Command: script, Dir: dir, ContinueOnFailure: true},
		recorderStage(t, dir, "after", 0),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res := newTestRunner(stages).Run(ctx)
	if len(res.Stages) != 1 {
		t.Fatalf("attempted stages = %d, want 1", len(res.Stages))
	}
}

func TestRun_WorkdirOverride(t *testing.T) {
	workdir := t.TempDir()
	scriptDir := t.TempDir()
	script := filepath.Join(scriptDir, "pwdcheck.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\npwd > where.log\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	stages := []Stage{{Name: "pwdcheck", Command: script}}

	r := New(stages, testLogger(),
		WithDir(workdir),
		WithStdio(nil, io.Discard, io.Discard))
	res := r.Run(context.Background())

	if !res.Success() {
		t.Fatalf("unexpected failure at %q", res.FailedStage)
	}
	data, err := os.ReadFile(filepath.Join(workdir, "where.log"))
	if err != nil {
		t.Fatalf("stage did not run in workdir: %v", err)
	}
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(string(data)))
	want, _ := filepath.EvalSymlinks(workdir)
	if got != want {
		t.Errorf("stage ran in %q, want %q", got, want)
	}
}
