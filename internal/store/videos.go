package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clipforge/internal/domain"
	"clipforge/internal/sqlinline"
)

// CreateVideo inserts a new video record and fills the generated fields.
func (s *Store) CreateVideo(ctx context.Context, v *domain.VideoRecord) error {
	if v.Status == "" {
		v.Status = domain.VideoStatusPending
	}
	row := s.sql.QueryRow(ctx, sqlinline.QInsertVideo,
		v.UserID, v.Title, v.Prompt, v.Voice, v.DurationSeconds,
		v.Status, v.ProcessingProgress, v.VideoURL, v.ThumbnailURL,
	)
	if err := row.Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// GetVideo fetches one video record by id.
func (s *Store) GetVideo(ctx context.Context, id string) (*domain.VideoRecord, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectVideoByID, id)
	v, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

// ListVideos returns the user's videos, newest first.
func (s *Store) ListVideos(ctx context.Context, userID string) ([]domain.VideoRecord, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectVideosByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []domain.VideoRecord
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("list videos: %w", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return out, nil
}

// FindOngoingVideo returns the user's most recently updated video still in
// processing, or domain.ErrNotFound. This is the resume-on-mount query.
func (s *Store) FindOngoingVideo(ctx context.Context, userID string) (*domain.VideoRecord, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectOngoingVideoByUser, userID)
	v, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find ongoing video: %w", err)
	}
	return v, nil
}

// UpdateVideoStatus records status, progress and terminal details for a
// video. Empty URLs keep the stored values.
func (s *Store) UpdateVideoStatus(ctx context.Context, id string, status domain.VideoStatus, progress int, videoURL, thumbnailURL, errMsg string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QUpdateVideoStatus, id, status, progress, videoURL, thumbnailURL, errMsg)
	if err != nil {
		return fmt.Errorf("update video status: %w", err)
	}
	return nil
}

// DeleteVideo removes a video the user owns.
func (s *Store) DeleteVideo(ctx context.Context, id, userID string) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteVideo, id, userID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*domain.VideoRecord, error) {
	var v domain.VideoRecord
	if err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.Title,
		&v.Prompt,
		&v.Voice,
		&v.DurationSeconds,
		&v.Status,
		&v.ProcessingProgress,
		&v.VideoURL,
		&v.ThumbnailURL,
		&v.ErrorMessage,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}
