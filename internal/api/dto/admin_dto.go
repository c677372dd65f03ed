package dto

import (
	"time"

	"github.com/arstudios/protend/internal/models"
)

// ==============================================
// ADMIN REQUEST DTOs
// ==============================================

// BanUserRequest
type BanUserRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// RestrictUserRequest
type RestrictUserRequest struct {
	Until  time.Time `json:"until" binding:"required"`
	Reason string    `json:"reason" binding:"required,min=3,max=500"`
}

// FeaturedWorkRequest - Create and update share a shape
type FeaturedWorkRequest struct {
	Title        string `json:"title" binding:"required,min=2,max=150"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url" binding:"omitempty,url"`
	ProjectURL   string `json:"project_url" binding:"omitempty,url"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

// ClientRequest
type ClientRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=150"`
	LogoURL      string `json:"logo_url" binding:"omitempty,url"`
	IconClass    string `json:"icon_class"`
	WebsiteURL   string `json:"website_url" binding:"omitempty,url"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

// ==============================================
// ADMIN RESPONSE DTOs
// ==============================================

// ActivityResponse
type ActivityResponse struct {
	ID          int64     `json:"id"`
	UserID      int       `json:"user_id"`
	ProjectID   *int      `json:"project_id,omitempty"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromActivity(a *models.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		Action:      a.Action,
		Description: nullStr(a.Description),
		CreatedAt:   a.CreatedAt,
	}
	if a.ProjectID.Valid {
		v := int(a.ProjectID.Int32)
		resp.ProjectID = &v
	}
	return resp
}

func FromActivities(items []models.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for i := range items {
		out = append(out, FromActivity(&items[i]))
	}
	return out
}

// FeaturedWorkResponse
type FeaturedWorkResponse struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category,omitempty"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	ProjectURL   string    `json:"project_url,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func FromFeaturedWork(w *models.FeaturedWork) FeaturedWorkResponse {
	return FeaturedWorkResponse{
		ID:           w.ID,
		Title:        w.Title,
		Category:     nullStr(w.Category),
		Description:  nullStr(w.Description),
		ImageURL:     nullStr(w.ImageURL),
		ProjectURL:   nullStr(w.ProjectURL),
		DisplayOrder: w.DisplayOrder,
		IsActive:     w.IsActive,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

func FromFeaturedWorks(items []models.FeaturedWork) []FeaturedWorkResponse {
	out := make([]FeaturedWorkResponse, 0, len(items))
	for i := range items {
		out = append(out, FromFeaturedWork(&items[i]))
	}
	return out
}

// ClientResponse
type ClientResponse struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	LogoURL      string    `json:"logo_url,omitempty"`
	IconClass    string    `json:"icon_class,omitempty"`
	WebsiteURL   string    `json:"website_url,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func FromClient(c *models.Client) ClientResponse {
	return ClientResponse{
		ID:           c.ID,
		Name:         c.Name,
		LogoURL:      nullStr(c.LogoURL),
		IconClass:    nullStr(c.IconClass),
		WebsiteURL:   nullStr(c.WebsiteURL),
		DisplayOrder: c.DisplayOrder,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func FromClients(items []models.Client) []ClientResponse {
	out := make([]ClientResponse, 0, len(items))
	for i := range items {
		out = append(out, FromClient(&items[i]))
	}
	return out
}
