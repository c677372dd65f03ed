package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arstudios/protend/internal/models"
)

// ==============================================
// ERRORS
// ==============================================

var (
	ErrFeaturedWorkNotFound = errors.New("featured work not found")
	ErrClientNotFound       = errors.New("client not found")
)

// ==============================================
// CONTENT REPOSITORY (public site CMS)
// ==============================================

type ContentRepository struct {
	db *pgxpool.Pool
}

func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

// ==============================================
// FEATURED WORKS
// ==============================================

const featuredWorkColumns = `id, title, category, description, image_url, project_url,
	       display_order, is_active, created_at, updated_at`

func scanFeaturedWork(row pgx.Row) (*models.FeaturedWork, error) {
	var w models.FeaturedWork
	err := row.Scan(
		&w.ID, &w.Title, &w.Category, &w.Description, &w.ImageURL, &w.ProjectURL,
		&w.DisplayOrder, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeaturedWorkNotFound
		}
		return nil, fmt.Errorf("failed to scan featured work: %w", err)
	}
	return &w, nil
}

// CreateFeaturedWork inserts a portfolio entry
func (r *ContentRepository) CreateFeaturedWork(ctx context.Context, w *models.FeaturedWork) error {
	query := `
		INSERT INTO featured_works (title, category, description, image_url, project_url,
		                            display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		w.Title, w.Category, w.Description, w.ImageURL, w.ProjectURL,
		w.DisplayOrder, w.IsActive,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create featured work: %w", err)
	}
	return nil
}

// GetFeaturedWorkByID retrieves one portfolio entry
func (r *ContentRepository) GetFeaturedWorkByID(ctx context.Context, id int) (*models.FeaturedWork, error) {
	query := `SELECT ` + featuredWorkColumns + ` FROM featured_works WHERE id = $1`
	return scanFeaturedWork(r.db.QueryRow(ctx, query, id))
}

// ListFeaturedWorks returns portfolio entries in display order. When
// activeOnly is set only publicly visible entries are returned.
func (r *ContentRepository) ListFeaturedWorks(ctx context.Context, activeOnly bool) ([]models.FeaturedWork, error) {
	query := `SELECT ` + featuredWorkColumns + ` FROM featured_works`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY display_order, created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured works: %w", err)
	}
	defer rows.Close()

	var out []models.FeaturedWork
	for rows.Next() {
		w, err := scanFeaturedWork(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// UpdateFeaturedWork saves mutable fields of a portfolio entry
func (r *ContentRepository) UpdateFeaturedWork(ctx context.Context, w *models.FeaturedWork) error {
	query := `
		UPDATE featured_works
		SET title = $1, category = $2, description = $3, image_url = $4,
		    project_url = $5, display_order = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query,
		w.Title, w.Category, w.Description, w.ImageURL, w.ProjectURL,
		w.DisplayOrder, w.IsActive, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update featured work: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFeaturedWorkNotFound
	}
	return nil
}

// DeleteFeaturedWork removes a portfolio entry
func (r *ContentRepository) DeleteFeaturedWork(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM featured_works WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete featured work: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFeaturedWorkNotFound
	}
	return nil
}

// ==============================================
// CLIENTS
// ==============================================

const clientColumns = `id, name, logo_url, icon_class, website_url,
	       display_order, is_active, created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.LogoURL, &c.IconClass, &c.WebsiteURL,
		&c.DisplayOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}
	return &c, nil
}

// CreateClient inserts a client logo entry
func (r *ContentRepository) CreateClient(ctx context.Context, c *models.Client) error {
	query := `
		INSERT INTO clients (name, logo_url, icon_class, website_url, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		c.Name, c.LogoURL, c.IconClass, c.WebsiteURL, c.DisplayOrder, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetClientByID retrieves one client entry
func (r *ContentRepository) GetClientByID(ctx context.Context, id int) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return scanClient(r.db.QueryRow(ctx, query, id))
}

// ListClients returns client entries in display order
func (r *ContentRepository) ListClients(ctx context.Context, activeOnly bool) ([]models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY display_order, created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var out []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateClient saves mutable fields of a client entry
func (r *ContentRepository) UpdateClient(ctx context.Context, c *models.Client) error {
	query := `
		UPDATE clients
		SET name = $1, logo_url = $2, icon_class = $3, website_url = $4,
		    display_order = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7
	`
	tag, err := r.db.Exec(ctx, query,
		c.Name, c.LogoURL, c.IconClass, c.WebsiteURL, c.DisplayOrder, c.IsActive, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

// DeleteClient removes a client entry
func (r *ContentRepository) DeleteClient(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}
