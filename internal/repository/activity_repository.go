package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arstudios/protend/internal/models"
)

// ==============================================
// ACTIVITY REPOSITORY
// ==============================================

type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CreateActivity appends a feed entry
func (r *ActivityRepository) CreateActivity(ctx context.Context, a *models.Activity) error {
	query := `
		INSERT INTO activities (user_id, project_id, action, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, a.UserID, a.ProjectID, a.Action, a.Description).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// ListActivities returns a page of the feed, newest first
func (r *ActivityRepository) ListActivities(ctx context.Context, limit, offset int) ([]models.Activity, error) {
	query := `
		SELECT id, user_id, project_id, action, description, created_at
		FROM activities
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProjectID, &a.Action, &a.Description, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountActivities returns the feed size for pagination
func (r *ActivityRepository) CountActivities(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}
