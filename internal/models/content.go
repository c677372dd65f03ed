package models

import (
	"database/sql"
	"time"
)

// ==============================================
// MARKETING SITE CONTENT
// ==============================================

// FeaturedWork is a portfolio entry shown on the public site
type FeaturedWork struct {
	ID           int            `db:"id"`
	Title        string         `db:"title"`
	Category     sql.NullString `db:"category"`
	Description  sql.NullString `db:"description"`
	ImageURL     sql.NullString `db:"image_url"`
	ProjectURL   sql.NullString `db:"project_url"`
	DisplayOrder int            `db:"display_order"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// Client is a logo/link entry on the public site
type Client struct {
	ID           int            `db:"id"`
	Name         string         `db:"name"`
	LogoURL      sql.NullString `db:"logo_url"`
	IconClass    sql.NullString `db:"icon_class"` // e.g. 'fa-brands fa-apple'
	WebsiteURL   sql.NullString `db:"website_url"`
	DisplayOrder int            `db:"display_order"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}
