package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultHistoryLimit is used when a caller asks for a non-positive limit.
const DefaultHistoryLimit = 20

// MaxHistoryLimit caps a single history page.
const MaxHistoryLimit = 500

// ErrSubmissionNotFound is returned by GetSubmission for an unknown id.
var ErrSubmissionNotFound = errors.New("submission not found")

const submissionColumns = `id, source, state, failed_stage, kind, error, input_path, output_dir,
	output_name, segment_count, combine, final_output, outputs, messages, started_at, finished_at`

// RecordSubmission stores a finished submission. Recording the same id
// twice replaces the earlier row.
func (d *Database) RecordSubmission(ctx context.Context, s *Submission) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_submission", start, err) }()

	outputs, err := json.Marshal(s.Outputs)
	if err != nil {
		return fmt.Errorf("failed to encode outputs: %w", err)
	}
	messages, err := json.Marshal(s.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO submissions (`+submissionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, s.Source, s.State, s.FailedStage, s.Kind, s.Error,
		s.InputPath, s.OutputDir, s.OutputName, s.SegmentCount, s.Combine,
		s.FinalOutput, string(outputs), string(messages),
		s.StartedAt.UnixMilli(), s.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// ListSubmissions returns the most recent submissions, newest first.
func (d *Database) ListSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_submissions", start, err) }()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := []Submission{}
	for rows.Next() {
		var s Submission
		if err = scanSubmission(rows, &s); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	err = rows.Err()
	return subs, err
}

// GetSubmission returns one submission by id.
func (d *Database) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_submission", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s Submission
	err = scanSubmission(d.db.QueryRowContext(ctx,
		"SELECT "+submissionColumns+" FROM submissions WHERE id = ?", id), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSubmissions returns the number of recorded submissions.
func (d *Database) CountSubmissions(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_submissions", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions").Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row scanner, s *Submission) error {
	var outputs, messages string
	var startedAt, finishedAt int64

	err := row.Scan(
		&s.ID, &s.Source, &s.State, &s.FailedStage, &s.Kind, &s.Error,
		&s.InputPath, &s.OutputDir, &s.OutputName, &s.SegmentCount, &s.Combine,
		&s.FinalOutput, &outputs, &messages, &startedAt, &finishedAt,
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(outputs), &s.Outputs); err != nil {
		return fmt.Errorf("corrupt outputs for submission %s: %w", s.ID, err)
	}
	if err := json.Unmarshal([]byte(messages), &s.Messages); err != nil {
		return fmt.Errorf("corrupt messages for submission %s: %w", s.ID, err)
	}

	s.StartedAt = time.UnixMilli(startedAt)
	s.FinishedAt = time.UnixMilli(finishedAt)
	return nil
}
