package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"av1ify/internal/operation"
)

const itemColumns = `id, uuid, source_path, is_folder, operation, output_mode,
	output_param, status, position, error_message, files_done, files_total,
	created_at, updated_at`

// Add appends a new pending item at the end of the queue.
func (s *Store) Add(ctx context.Context, sourcePath string, isFolder bool, op operation.Choice, mode OutputMode, outputParam string) (*Item, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("unknown operation %q", op)
	}
	if _, ok := ParseOutputMode(string(mode)); !ok {
		return nil, fmt.Errorf("unknown output mode %q", mode)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            uuid, source_path, is_folder, operation, output_mode, output_param,
            status, position, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?,
            COALESCE((SELECT MAX(position) FROM queue_items), 0) + 1, ?, ?)`,
		uuid.NewString(),
		sourcePath,
		boolToInt(isFolder),
		string(op),
		string(mode),
		nullableString(outputParam),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// List returns queue items filtered by status set (or all items when no
// status is provided), in queue order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	ctx = ensureContext(ctx)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY position`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextPending returns the pending item with the lowest position, or nil
// when the queue holds no runnable work.
func (s *Store) NextPending(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE status = ? ORDER BY position LIMIT 1`,
		StatusPending)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return item, nil
}

// Update persists mutable fields of an existing item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET operation = ?, output_mode = ?, output_param = ?, status = ?,
             error_message = ?, files_done = ?, files_total = ?, updated_at = ?
         WHERE id = ?`,
		string(item.Operation),
		string(item.OutputMode),
		nullableString(item.OutputParam),
		item.Status,
		nullableString(item.ErrorMessage),
		item.FilesDone,
		item.FilesTotal,
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %d not found", item.ID)
	}
	return nil
}

// Transition moves an item to a new status, enforcing the lifecycle
// guards. errorMessage is recorded only for the error status.
func (s *Store) Transition(ctx context.Context, id int64, to Status, errorMessage string) (*Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d not found", id)
	}
	if !CanTransition(item.Status, to) {
		return nil, fmt.Errorf("invalid transition %s -> %s for item %d", item.Status, to, id)
	}

	item.Status = to
	if to == StatusError {
		item.ErrorMessage = errorMessage
	} else {
		item.ErrorMessage = ""
	}
	if err := s.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetOperation changes the operation of a pending item. Running and
// terminal items are immutable.
func (s *Store) SetOperation(ctx context.Context, id int64, op operation.Choice) (*Item, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("unknown operation %q", op)
	}
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d not found", id)
	}
	if item.Status != StatusPending {
		return nil, fmt.Errorf("item %d is %s; only pending items can change operation", id, item.Status)
	}
	item.Operation = op
	if err := s.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Move places the item at the given 1-based position, shifting others.
func (s *Store) Move(ctx context.Context, id int64, position int) error {
	if position < 1 {
		position = 1
	}

	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current int
	if err := tx.QueryRowContext(ctx,
		`SELECT position FROM queue_items WHERE id = ?`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("item %d not found", id)
		}
		return fmt.Errorf("read position: %w", err)
	}
	if current == position {
		return tx.Commit()
	}

	if position < current {
		_, err = tx.ExecContext(ctx,
			`UPDATE queue_items SET position = position + 1 WHERE position >= ? AND position < ?`,
			position, current)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE queue_items SET position = position - 1 WHERE position > ? AND position <= ?`,
			current, position)
	}
	if err != nil {
		return fmt.Errorf("shift positions: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE queue_items SET position = ?, updated_at = ? WHERE id = ?`,
		position, time.Now().UTC().Format(time.RFC3339Nano), id); err != nil {
		return fmt.Errorf("set position: %w", err)
	}
	return tx.Commit()
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFinished removes items in a terminal state.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM queue_items WHERE status IN (?, ?, ?)`,
		StatusDone, StatusSkipped, StatusError)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ResetInterrupted returns items left running by a previous process to
// pending so the next run picks them up again.
func (s *Store) ResetInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE queue_items SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		InterruptedMessage,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset interrupted: %w", err)
	}
	return res.RowsAffected()
}
