package pipeline

import "time"

// Failure kinds recorded on a StageResult.
const (
	FailLaunch      = "launch"      // command could not be found or started
	FailExecution   = "execution"   // command ran and exited non-zero
	FailInterrupted = "interrupted" // runner was cancelled mid-stage
)

// StageResult captures the outcome of one attempted stage.
type StageResult struct {
	Stage    string
	ExitCode int // -1 when the command never produced an exit status
	Duration time.Duration
	Kind     string // empty on success, else one of the Fail* kinds
	Err      error
}

// Failed reports whether the stage ended in any failure kind.
func (r StageResult) Failed() bool { return r.Kind != "" }

// Result is the record of a single pipeline run: every attempted stage in
// order, plus the name of the first failing stage. It is appended to once
// per stage and finalized exactly once when the run halts.
type Result struct {
	Stages      []StageResult
	FailedStage string // first failing stage, "" when all attempted stages passed
	Duration    time.Duration
}

func (r *Result) record(sr StageResult) {
	r.Stages = append(r.Stages, sr)
	if sr.Failed() && r.FailedStage == "" {
		r.FailedStage = sr.Stage
	}
}

// Success reports whether every attempted stage exited with status zero.
// A failure counts even when its stage had continue_on_failure set and
// later stages ran.
func (r *Result) Success() bool { return r.FailedStage == "" }

// ExitCode is the process exit code contract: 0 on success, the first
// failing stage's own exit status when it has one, and 1 for failures
// without an exit status (launch errors, interruption).
func (r *Result) ExitCode() int {
	if r.Success() {
		return 0
	}
	for _, sr := range r.Stages {
		if sr.Failed() {
			if sr.ExitCode > 0 {
				return sr.ExitCode
			}
			return 1
		}
	}
	return 1
}
