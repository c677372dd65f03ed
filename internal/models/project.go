package models

import (
	"database/sql"
	"time"
)

// ==============================================
// PROJECT MODELS
// ==============================================

// Project status values
const (
	ProjectStatusPending  = "pending"
	ProjectStatusOngoing  = "ongoing"
	ProjectStatusComplete = "complete"
)

// Task status values
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Milestone status values
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
)

// Project represents a studio engagement
type Project struct {
	ID          int            `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	Status      string         `db:"status"`
	Department  sql.NullString `db:"department"`
	Priority    sql.NullString `db:"priority"` // High, Medium, Low
	Progress    int            `db:"progress"`
	StartDate   sql.NullTime   `db:"start_date"`
	EndDate     sql.NullTime   `db:"end_date"`
	ClientName  sql.NullString `db:"client_name"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// ProjectAssignment links a user to a project with a project-local role
type ProjectAssignment struct {
	ID         int       `db:"id"`
	ProjectID  int       `db:"project_id"`
	UserID     int       `db:"user_id"`
	Role       string    `db:"role"`
	AssignedAt time.Time `db:"assigned_at"`
}

// Task is a unit of work inside a project
type Task struct {
	ID          int            `db:"id"`
	ProjectID   int            `db:"project_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Status      string         `db:"status"`
	Priority    string         `db:"priority"`
	AssignedTo  sql.NullInt32  `db:"assigned_to"`
	CreatedBy   int            `db:"created_by"`
	DueDate     sql.NullTime   `db:"due_date"`
	CompletedAt sql.NullTime   `db:"completed_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// Milestone marks a checkpoint inside a project; completed milestones drive
// the derived project progress figure.
type Milestone struct {
	ID          int            `db:"id"`
	ProjectID   int            `db:"project_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Status      string         `db:"status"`
	CreatedBy   int            `db:"created_by"`
	DueDate     sql.NullTime   `db:"due_date"`
	CompletedAt sql.NullTime   `db:"completed_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// Activity is an audit-style feed entry
type Activity struct {
	ID          int64          `db:"id"`
	UserID      int            `db:"user_id"`
	ProjectID   sql.NullInt32  `db:"project_id"`
	Action      string         `db:"action"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
}

// Activity action constants
const (
	ActivityUserLogin          = "User Login"
	ActivityUserLogout         = "User Logout"
	ActivityUserRegistration   = "User Registration"
	ActivityGoogleLogin        = "Google Login"
	ActivityGoogleRegistration = "Google Registration"
	ActivityProjectCreated     = "Project Created"
	ActivityProjectUpdated     = "Project Updated"
	ActivityProjectDeleted     = "Project Deleted"
	ActivityUserAssigned       = "User Assigned"
	ActivityUserUnassigned     = "User Unassigned"
	ActivityTaskCreated        = "Task Created"
	ActivityTaskUpdated        = "Task Updated"
	ActivityMilestoneCreated   = "Milestone Created"
	ActivityMilestoneUpdated   = "Milestone Updated"
	ActivityChatAttachment     = "Chat Attachment"
)

// Comment is attached to a project or task
type Comment struct {
	ID        int           `db:"id"`
	UserID    int           `db:"user_id"`
	ProjectID sql.NullInt32 `db:"project_id"`
	TaskID    sql.NullInt32 `db:"task_id"`
	Content   string        `db:"content"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

// Notification is a per-user inbox entry
type Notification struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Type      string    `db:"type"` // info, success, warning, error
	Read      bool      `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

// ==============================================
// DERIVED PROGRESS
// ==============================================

// CalculateProgress derives a 0-100 progress figure from milestone completion,
// falling back to task completion when the project has no milestones.
func CalculateProgress(totalMilestones, completedMilestones, totalTasks, completedTasks int) int {
	if totalMilestones > 0 {
		return int(float64(completedMilestones) / float64(totalMilestones) * 100)
	}
	if totalTasks > 0 {
		return int(float64(completedTasks) / float64(totalTasks) * 100)
	}
	return 0
}
