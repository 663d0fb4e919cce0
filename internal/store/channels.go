package store

import (
	"context"
	"fmt"

	"clipforge/internal/domain"
	"clipforge/internal/sqlinline"
)

func (s *Store) CreateChannel(ctx context.Context, c *domain.Channel) error {
	row := s.sql.QueryRow(ctx, sqlinline.QInsertChannel,
		c.UserID, c.Name, c.Platform, c.Handle, c.DefaultVoice,
	)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	return nil
}

func (s *Store) ListChannels(ctx context.Context, userID string) ([]domain.Channel, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectChannelsByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []domain.Channel
	for rows.Next() {
		var c domain.Channel
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Platform, &c.Handle, &c.DefaultVoice, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list channels: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateChannel(ctx context.Context, c *domain.Channel) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QUpdateChannel,
		c.ID, c.UserID, c.Name, c.Platform, c.Handle, c.DefaultVoice,
	)
	if err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteChannel(ctx context.Context, id, userID string) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteChannel, id, userID)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
