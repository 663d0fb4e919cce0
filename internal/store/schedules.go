package store

import (
	"context"
	"fmt"

	"clipforge/internal/domain"
	"clipforge/internal/sqlinline"
)

func (s *Store) CreateSchedule(ctx context.Context, sched *domain.ScheduledVideo) error {
	row := s.sql.QueryRow(ctx, sqlinline.QInsertSchedule,
		sched.UserID, sched.VideoID, sched.ChannelID, sched.PublishAt,
	)
	if err := row.Scan(&sched.ID, &sched.CreatedAt); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

func (s *Store) ListSchedules(ctx context.Context, userID string) ([]domain.ScheduledVideo, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectSchedulesByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []domain.ScheduledVideo
	for rows.Next() {
		var sv domain.ScheduledVideo
		if err := rows.Scan(&sv.ID, &sv.UserID, &sv.VideoID, &sv.ChannelID, &sv.PublishAt, &sv.CreatedAt); err != nil {
			return nil, fmt.Errorf("list schedules: %w", err)
		}
		out = append(out, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteSchedule(ctx context.Context, id, userID string) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteSchedule, id, userID)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
