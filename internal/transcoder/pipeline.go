package transcoder

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"webm-trimmer/internal/encoding"
	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/metrics"
)

// State is the position of a submission in its lifecycle.
type State string

const (
	StateValidating    State = "validating"
	StateBuilding      State = "building"
	StateExecuting     State = "executing"
	StateConcatenating State = "concatenating"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Message categories, matching the page's alert styles.
const (
	CategorySuccess = "success"
	CategoryDanger  = "danger"
	CategoryPrimary = "primary"
)

// maxStderrInMessage caps how much encoder output is copied into a message.
// The full text stays in Results.
const maxStderrInMessage = 4000

// Message is one user-facing status line.
type Message struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Outcome records everything that happened to one submission.
type Outcome struct {
	ID               string                `json:"id"`
	State            State                 `json:"state"`
	FailedStage      State                 `json:"failedStage,omitempty"`
	Kind             ErrorKind             `json:"kind,omitempty"`
	Error            string                `json:"error,omitempty"`
	StartedAt        time.Time             `json:"startedAt"`
	FinishedAt       time.Time             `json:"finishedAt"`
	Job              *encoding.Job         `json:"job,omitempty"`
	Results          []ExecutionResult     `json:"results,omitempty"`
	FinalOutput      string                `json:"finalOutput,omitempty"`
	Messages         []Message             `json:"messages"`
	ValidationErrors []encoding.FieldError `json:"validationErrors,omitempty"`

	err error
}

// Err returns the typed error that ended the submission, or nil.
func (o *Outcome) Err() error {
	return o.err
}

// Succeeded reports whether the submission reached StateDone.
func (o *Outcome) Succeeded() bool {
	return o.State == StateDone
}

// Outputs returns the files produced, the combined output first when present.
func (o *Outcome) Outputs() []string {
	var out []string
	if o.FinalOutput != "" {
		out = append(out, o.FinalOutput)
	}
	for _, r := range o.Results {
		if r.Succeeded() && r.Command.OutputPath != o.FinalOutput {
			out = append(out, r.Command.OutputPath)
		}
	}
	return out
}

func (o *Outcome) addMessage(category, format string, args ...interface{}) {
	o.Messages = append(o.Messages, Message{Category: category, Text: fmt.Sprintf(format, args...)})
}

func (o *Outcome) fail(err error) {
	o.FailedStage = o.State
	o.State = StateFailed
	o.Kind = Classify(err)
	o.Error = err.Error()
	o.err = err
}

// Process validates req and runs the resulting job to completion:
// every segment command in order, then the concatenation pass when the job
// asks for it and more than one segment was produced. It never returns nil.
func (t *Transcoder) Process(ctx context.Context, req encoding.Request) (outcome *Outcome) {
	outcome = &Outcome{
		ID:        t.newID(),
		State:     StateValidating,
		StartedAt: t.now(),
		Messages:  []Message{},
	}

	metrics.SubmissionsInProgress.Inc()
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Submission %s panicked: %v\n%s", outcome.ID, r, debug.Stack())
			err := &UnexpectedError{Stage: string(outcome.State), Err: fmt.Errorf("panic: %v", r)}
			outcome.fail(err)
			outcome.addMessage(CategoryDanger, "An error occurred: %v", err)
		}
		outcome.FinishedAt = t.now()
		metrics.SubmissionsInProgress.Dec()
		metrics.SubmissionsTotal.WithLabelValues(outcomeLabel(outcome)).Inc()
	}()

	job, err := encoding.Validate(req)
	if err != nil {
		outcome.fail(err)
		var verr *encoding.ValidationError
		if errors.As(err, &verr) {
			outcome.ValidationErrors = verr.Fields
			logging.Debug("Submission %s rejected: %v", outcome.ID, err)
		} else {
			outcome.addMessage(CategoryDanger, "An error occurred: %v", err)
		}
		return outcome
	}
	outcome.Job = job

	outcome.State = StateBuilding
	specs, err := encoding.BuildSegmentCommands(job, t.now())
	if err != nil {
		err = &UnexpectedError{Stage: "build", Err: err}
		outcome.fail(err)
		outcome.addMessage(CategoryDanger, "An error occurred: %v", err)
		return outcome
	}

	logging.Info("Submission %s: %s, %d segment(s), combine=%v", outcome.ID, job.InputPath(), len(specs), job.Combine())

	outcome.State = StateExecuting
	results, err := t.RunSegments(ctx, specs)
	outcome.Results = results
	if err != nil {
		outcome.fail(err)
		var serr *SegmentExecutionError
		if errors.As(err, &serr) {
			outcome.addMessage(CategoryDanger, "Error processing segment: %s", tail(serr.Result.Stderr))
			outcome.addMessage(CategoryDanger, "COMMAND: %s", encoding.FormatCommand(t.display, serr.Result.Command.Args))
		} else {
			outcome.addMessage(CategoryDanger, "An error occurred: %v", err)
		}
		return outcome
	}

	if job.Combine() && len(results) > 1 {
		outcome.State = StateConcatenating
		outputs := make([]string, len(results))
		for i, r := range results {
			outputs[i] = r.Command.OutputPath
		}

		result, err := t.Concatenate(ctx, job, outputs)
		if result.Command.OutputPath != "" {
			outcome.Results = append(outcome.Results, result)
		}
		if err != nil {
			outcome.fail(err)
			var cerr *ConcatenationError
			if errors.As(err, &cerr) {
				outcome.addMessage(CategoryDanger, "Error combining segments: %s", tail(cerr.Result.Stderr))
				outcome.addMessage(CategoryDanger, "COMMAND: %s", encoding.FormatCommand(t.display, cerr.Result.Command.Args))
			} else {
				outcome.addMessage(CategoryDanger, "An error occurred: %v", err)
			}
			return outcome
		}

		outcome.FinalOutput = result.Command.OutputPath
		outcome.addMessage(CategorySuccess, "Success! Video saved to %s", outcome.FinalOutput)
		outcome.addMessage(CategoryPrimary, "COMMAND: %s", encoding.FormatCommand(t.display, result.Command.Args))
	} else {
		for _, r := range results {
			outcome.addMessage(CategorySuccess, "Success! Segment saved to %s", r.Command.OutputPath)
		}
	}

	outcome.State = StateDone
	logging.Info("Submission %s done", outcome.ID)
	return outcome
}

func outcomeLabel(o *Outcome) string {
	if o.State == StateDone {
		return "success"
	}
	if o.Kind == KindNone {
		return string(KindUnexpected)
	}
	return string(o.Kind)
}

// tail keeps the end of long encoder output, where ffmpeg prints the error.
func tail(s string) string {
	if len(s) <= maxStderrInMessage {
		return s
	}
	return "..." + s[len(s)-maxStderrInMessage:]
}
