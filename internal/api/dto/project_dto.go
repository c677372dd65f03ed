package dto

import (
	"database/sql"
	"time"

	"github.com/arstudios/protend/internal/models"
)

// ==============================================
// PROJECT REQUEST DTOs
// ==============================================

// CreateProjectRequest
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=150"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"omitempty,oneof=pending ongoing complete"`
	Department  string `json:"department"`
	Priority    string `json:"priority" binding:"omitempty,oneof=High Medium Low"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date"`
	ClientName  string `json:"client_name"`
}

// UpdateProjectRequest
type UpdateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=150"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"required,oneof=pending ongoing complete"`
	Department  string `json:"department"`
	Priority    string `json:"priority" binding:"omitempty,oneof=High Medium Low"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	ClientName  string `json:"client_name"`
}

// AssignUserRequest
type AssignUserRequest struct {
	UserID int    `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"omitempty,max=50"`
}

// CreateTaskRequest
type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=200"`
	Description string `json:"description"`
	Priority    string `json:"priority" binding:"omitempty,oneof=High Medium Low"`
	AssignedTo  int    `json:"assigned_to"`
	DueDate     string `json:"due_date"`
}

// UpdateTaskRequest
type UpdateTaskRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=200"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"required,oneof=todo in_progress completed"`
	Priority    string `json:"priority" binding:"omitempty,oneof=High Medium Low"`
	AssignedTo  int    `json:"assigned_to"`
	DueDate     string `json:"due_date"`
}

// CreateMilestoneRequest
type CreateMilestoneRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=200"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

// UpdateMilestoneRequest
type UpdateMilestoneRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=200"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"required,oneof=pending in_progress completed"`
	DueDate     string `json:"due_date"`
}

// ==============================================
// PROJECT RESPONSE DTOs
// ==============================================

// ProjectResponse mirrors models.Project without sql.Null* noise
type ProjectResponse struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Department  string     `json:"department,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Progress    int        `json:"progress"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	ClientName  string     `json:"client_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskResponse
type TaskResponse struct {
	ID          int        `json:"id"`
	ProjectID   int        `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssignedTo  *int       `json:"assigned_to,omitempty"`
	CreatedBy   int        `json:"created_by"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MilestoneResponse
type MilestoneResponse struct {
	ID          int        `json:"id"`
	ProjectID   int        `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FromProject converts a model row to the wire shape
func FromProject(p *models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: nullStr(p.Description),
		Status:      p.Status,
		Department:  nullStr(p.Department),
		Priority:    nullStr(p.Priority),
		Progress:    p.Progress,
		StartDate:   nullTime(p.StartDate),
		EndDate:     nullTime(p.EndDate),
		ClientName:  nullStr(p.ClientName),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromProjects(items []models.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(items))
	for i := range items {
		out = append(out, FromProject(&items[i]))
	}
	return out
}

func FromTask(t *models.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: nullStr(t.Description),
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedBy:   t.CreatedBy,
		DueDate:     nullTime(t.DueDate),
		CompletedAt: nullTime(t.CompletedAt),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedTo.Valid {
		v := int(t.AssignedTo.Int32)
		resp.AssignedTo = &v
	}
	return resp
}

func FromTasks(items []models.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(items))
	for i := range items {
		out = append(out, FromTask(&items[i]))
	}
	return out
}

func FromMilestone(m *models.Milestone) MilestoneResponse {
	return MilestoneResponse{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Title:       m.Title,
		Description: nullStr(m.Description),
		Status:      m.Status,
		DueDate:     nullTime(m.DueDate),
		CompletedAt: nullTime(m.CompletedAt),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func FromMilestones(items []models.Milestone) []MilestoneResponse {
	out := make([]MilestoneResponse, 0, len(items))
	for i := range items {
		out = append(out, FromMilestone(&items[i]))
	}
	return out
}

func nullStr(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}

func nullTime(t sql.NullTime) *time.Time {
	if t.Valid {
		return &t.Time
	}
	return nil
}
