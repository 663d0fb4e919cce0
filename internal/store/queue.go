package store

import (
	"context"
	"fmt"

	"clipforge/internal/domain"
	"clipforge/internal/sqlinline"
)

// EnqueueVideo appends a queue item at the end of the user's queue.
func (s *Store) EnqueueVideo(ctx context.Context, item *domain.QueueItem) error {
	row := s.sql.QueryRow(ctx, sqlinline.QInsertQueueItem,
		item.UserID, item.Prompt, item.Voice, item.Duration,
	)
	if err := row.Scan(&item.ID, &item.Position, &item.CreatedAt); err != nil {
		return fmt.Errorf("enqueue video: %w", err)
	}
	return nil
}

// ListQueue returns the user's queue items in position order.
func (s *Store) ListQueue(ctx context.Context, userID string) ([]domain.QueueItem, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectQueueByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	var out []domain.QueueItem
	for rows.Next() {
		var it domain.QueueItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Prompt, &it.Voice, &it.Duration, &it.Position, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("list queue: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return out, nil
}

// DeleteQueueItem removes one queue item the user owns.
func (s *Store) DeleteQueueItem(ctx context.Context, id, userID string) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteQueueItem, id, userID)
	if err != nil {
		return fmt.Errorf("delete queue item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
