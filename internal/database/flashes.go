package database

import (
	"context"
	"fmt"
	"time"

	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/transcoder"
)

// flashTTL is how long queued messages wait for the next page render.
const flashTTL = time.Hour

// AddFlashes queues messages for the browser identified by key.
func (d *Database) AddFlashes(ctx context.Context, key string, msgs []transcoder.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("add_flash", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	expiresAt := time.Now().Add(flashTTL).Unix()
	for _, m := range msgs {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO flashes (flash_key, category, message, expires_at) VALUES (?, ?, ?, ?)",
			key, m.Category, m.Text, expiresAt,
		); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("failed to roll back flashes: %v", rbErr)
			}
			return fmt.Errorf("failed to store flash: %w", err)
		}
	}

	err = tx.Commit()
	return err
}

// PopFlashes returns and deletes the messages queued for key, oldest first.
func (d *Database) PopFlashes(ctx context.Context, key string) ([]transcoder.Message, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("pop_flashes", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT category, message FROM flashes WHERE flash_key = ? AND expires_at >= ? ORDER BY id",
		key, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read flashes: %w", err)
	}

	var msgs []transcoder.Message
	for rows.Next() {
		var m transcoder.Message
		if err = rows.Scan(&m.Category, &m.Text); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan flash: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}

	if _, err = d.db.ExecContext(ctx, "DELETE FROM flashes WHERE flash_key = ?", key); err != nil {
		return nil, fmt.Errorf("failed to delete flashes: %w", err)
	}
	return msgs, nil
}
