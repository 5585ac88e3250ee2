package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"webm-trimmer/internal/transcoder"
)

func newTestSubmission(id string, started time.Time) *Submission {
	return &Submission{
		ID:           id,
		Source:       SourceWeb,
		State:        "done",
		InputPath:    "/videos/in.mp4",
		OutputDir:    "/videos",
		OutputName:   "clip",
		SegmentCount: 2,
		Combine:      true,
		FinalOutput:  "/videos/clip_0.webm",
		Outputs:      []string{"/videos/clip_0.webm", "/videos/segment_1.webm", "/videos/segment_2.webm"},
		Messages: []transcoder.Message{
			{Category: transcoder.CategorySuccess, Text: "Success! Video saved to /videos/clip_0.webm"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
	}
}

func TestRecordAndGetSubmission(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 14, 15, 9, 26, 123000000, time.UTC)
	want := newTestSubmission("abc", started)

	if err := db.RecordSubmission(ctx, want); err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}

	got, err := db.GetSubmission(ctx, "abc")
	if err != nil {
		t.Fatalf("GetSubmission failed: %v", err)
	}

	if got.InputPath != want.InputPath || got.FinalOutput != want.FinalOutput || !got.Combine || got.SegmentCount != 2 {
		t.Errorf("GetSubmission() = %+v", got)
	}
	if len(got.Outputs) != 3 || got.Outputs[0] != "/videos/clip_0.webm" {
		t.Errorf("outputs = %v", got.Outputs)
	}
	if len(got.Messages) != 1 || got.Messages[0] != want.Messages[0] {
		t.Errorf("messages = %+v", got.Messages)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", got.Duration())
	}
}

func TestGetSubmissionNotFound(t *testing.T) {
	db, _ := setupTestDB(t)

	if _, err := db.GetSubmission(context.Background(), "missing"); !errors.Is(err, ErrSubmissionNotFound) {
		t.Errorf("GetSubmission() error = %v, want ErrSubmissionNotFound", err)
	}
}

func TestListSubmissions(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := db.RecordSubmission(ctx, newTestSubmission(fmt.Sprintf("sub-%d", i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		limit   int
		wantLen int
		wantID  string
	}{
		{"Limited", 2, 2, "sub-4"},
		{"Default", 0, 5, "sub-4"},
		{"Larger than history", 100, 5, "sub-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs, err := db.ListSubmissions(ctx, tt.limit)
			if err != nil {
				t.Fatalf("ListSubmissions failed: %v", err)
			}
			if len(subs) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(subs), tt.wantLen)
			}
			if subs[0].ID != tt.wantID {
				t.Errorf("newest = %s, want %s", subs[0].ID, tt.wantID)
			}
		})
	}

	n, err := db.CountSubmissions(ctx)
	if err != nil || n != 5 {
		t.Errorf("CountSubmissions() = %d, %v; want 5", n, err)
	}
}

func TestListSubmissionsEmpty(t *testing.T) {
	db, _ := setupTestDB(t)

	subs, err := db.ListSubmissions(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if subs == nil || len(subs) != 0 {
		t.Errorf("expected an empty, non-nil slice, got %#v", subs)
	}
}

func TestNewSubmissionFromOutcome(t *testing.T) {
	started := time.Now()
	outcome := &transcoder.Outcome{
		ID:          "o-1",
		State:       transcoder.StateFailed,
		FailedStage: transcoder.StateValidating,
		Kind:        transcoder.KindValidation,
		Error:       "validation failed",
		StartedAt:   started,
		FinishedAt:  started,
	}

	s := NewSubmission(outcome, SourceAPI, "/in.mov", "/out", "name")

	if s.ID != "o-1" || s.State != "failed" || s.Kind != "validation" || s.FailedStage != "validating" {
		t.Errorf("unexpected submission %+v", s)
	}
	if s.InputPath != "/in.mov" || s.OutputDir != "/out" || s.OutputName != "name" {
		t.Errorf("raw paths should be used without a job: %+v", s)
	}
	if s.Outputs == nil || s.Messages == nil {
		t.Error("outputs and messages should never be nil")
	}
}
