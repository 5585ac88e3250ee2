package database

import (
	"time"

	"webm-trimmer/internal/transcoder"
)

// User represents the single user account in the system.
type User struct {
	ID           int64     `json:"id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session represents an authenticated user session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission sources.
const (
	SourceWeb = "web"
	SourceAPI = "api"
	SourceCLI = "cli"
)

// Submission is one row of the submission history.
type Submission struct {
	ID           string               `json:"id"`
	Source       string               `json:"source"`
	State        string               `json:"state"`
	FailedStage  string               `json:"failedStage,omitempty"`
	Kind         string               `json:"kind,omitempty"`
	Error        string               `json:"error,omitempty"`
	InputPath    string               `json:"inputPath"`
	OutputDir    string               `json:"outputDir"`
	OutputName   string               `json:"outputName"`
	SegmentCount int                  `json:"segmentCount"`
	Combine      bool                 `json:"combine"`
	FinalOutput  string               `json:"finalOutput,omitempty"`
	Outputs      []string             `json:"outputs"`
	Messages     []transcoder.Message `json:"messages"`
	StartedAt    time.Time            `json:"startedAt"`
	FinishedAt   time.Time            `json:"finishedAt"`
}

// Duration returns how long the submission took.
func (s *Submission) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// NewSubmission builds a history row from a finished outcome. Submissions
// rejected by validation carry the raw paths from the request since no job
// was built.
func NewSubmission(o *transcoder.Outcome, source string, rawInput, rawOutputDir, rawOutputName string) *Submission {
	s := &Submission{
		ID:          o.ID,
		Source:      source,
		State:       string(o.State),
		FailedStage: string(o.FailedStage),
		Kind:        string(o.Kind),
		Error:       o.Error,
		FinalOutput: o.FinalOutput,
		Outputs:     o.Outputs(),
		Messages:    o.Messages,
		StartedAt:   o.StartedAt,
		FinishedAt:  o.FinishedAt,
	}

	if o.Job != nil {
		s.InputPath = o.Job.InputPath()
		s.OutputDir = o.Job.OutputDir()
		s.OutputName = o.Job.OutputName()
		s.SegmentCount = o.Job.SegmentCount()
		s.Combine = o.Job.Combine()
	} else {
		s.InputPath = rawInput
		s.OutputDir = rawOutputDir
		s.OutputName = rawOutputName
	}

	if s.Outputs == nil {
		s.Outputs = []string{}
	}
	if s.Messages == nil {
		s.Messages = []transcoder.Message{}
	}
	return s
}
