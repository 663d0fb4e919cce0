package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clipforge/internal/domain"
	"clipforge/internal/sqlinline"
)

func (s *Store) GetOnboarding(ctx context.Context, userID string) (*domain.OnboardingState, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectOnboarding, userID)
	var st domain.OnboardingState
	if err := row.Scan(&st.UserID, &st.Step, &st.Completed, &st.CompletedAt, &st.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get onboarding: %w", err)
	}
	return &st, nil
}

func (s *Store) SaveOnboarding(ctx context.Context, userID string, step int, completed bool) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertOnboarding, userID, step, completed); err != nil {
		return fmt.Errorf("save onboarding: %w", err)
	}
	return nil
}
