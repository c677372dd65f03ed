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
	ErrProjectNotFound   = errors.New("project not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
	ErrAlreadyAssigned   = errors.New("assignment already exists")
	ErrAssignmentMissing = errors.New("assignment not found")
)

// ==============================================
// PROJECT REPOSITORY
// ==============================================

type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, name, description, status, department, priority, progress,
	       start_date, end_date, client_name, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.Department,
		&p.Priority,
		&p.Progress,
		&p.StartDate,
		&p.EndDate,
		&p.ClientName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	return &p, nil
}

// CreateProject inserts a project
func (r *ProjectRepository) CreateProject(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (name, description, status, department, priority, progress,
		                      start_date, end_date, client_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		p.Name, p.Description, p.Status, p.Department, p.Priority, p.Progress,
		p.StartDate, p.EndDate, p.ClientName,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProjectByID retrieves a single project
func (r *ProjectRepository) GetProjectByID(ctx context.Context, projectID int) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.db.QueryRow(ctx, query, projectID))
}

// ListProjects returns all projects newest-first
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`
	return r.queryProjects(ctx, query)
}

// ListProjectsForUser returns projects the user is assigned to
func (r *ProjectRepository) ListProjectsForUser(ctx context.Context, userID int) ([]models.Project, error) {
	query := `
		SELECT ` + projectColumns + ` FROM projects p
		JOIN project_assignments a ON a.project_id = p.id
		WHERE a.user_id = $1
		ORDER BY p.created_at DESC
	`
	return r.queryProjects(ctx, query, userID)
}

// SearchProjects matches names and descriptions against a substring
func (r *ProjectRepository) SearchProjects(ctx context.Context, term string, limit int) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects
		WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2`
	return r.queryProjects(ctx, query, term, limit)
}

func (r *ProjectRepository) queryProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProject saves mutable fields of a project
func (r *ProjectRepository) UpdateProject(ctx context.Context, p *models.Project) error {
	query := `
		UPDATE projects
		SET name = $1, description = $2, status = $3, department = $4,
		    priority = $5, progress = $6, start_date = $7, end_date = $8,
		    client_name = $9, updated_at = NOW()
		WHERE id = $10
	`
	tag, err := r.db.Exec(ctx, query,
		p.Name, p.Description, p.Status, p.Department, p.Priority, p.Progress,
		p.StartDate, p.EndDate, p.ClientName, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// DeleteProject removes a project; assignments, milestones, tasks and chat
// rows go with it via ON DELETE CASCADE.
func (r *ProjectRepository) DeleteProject(ctx context.Context, projectID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// CountProjectsByStatus returns the dashboard stat counters
func (r *ProjectRepository) CountProjectsByStatus(ctx context.Context) (total, pending, ongoing, complete int, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'ongoing'),
		       COUNT(*) FILTER (WHERE status = 'complete')
		FROM projects
	`
	if err = r.db.QueryRow(ctx, query).Scan(&total, &pending, &ongoing, &complete); err != nil {
		err = fmt.Errorf("failed to count projects: %w", err)
	}
	return
}

// ==============================================
// ASSIGNMENTS
// ==============================================

// AssignUser adds a user to a project
func (r *ProjectRepository) AssignUser(ctx context.Context, a *models.ProjectAssignment) error {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM project_assignments WHERE project_id = $1 AND user_id = $2`,
		a.ProjectID, a.UserID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if count > 0 {
		return ErrAlreadyAssigned
	}

	query := `
		INSERT INTO project_assignments (project_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, assigned_at
	`
	err = r.db.QueryRow(ctx, query, a.ProjectID, a.UserID, a.Role).Scan(&a.ID, &a.AssignedAt)
	if err != nil {
		return fmt.Errorf("failed to assign user: %w", err)
	}
	return nil
}

// UnassignUser removes a user from a project
func (r *ProjectRepository) UnassignUser(ctx context.Context, projectID, userID int) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM project_assignments WHERE project_id = $1 AND user_id = $2`,
		projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to unassign user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentMissing
	}
	return nil
}

// IsAssigned checks project membership
func (r *ProjectRepository) IsAssigned(ctx context.Context, projectID, userID int) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM project_assignments WHERE project_id = $1 AND user_id = $2`,
		projectID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return count > 0, nil
}

// ListAssignments returns the team of a project
func (r *ProjectRepository) ListAssignments(ctx context.Context, projectID int) ([]models.ProjectAssignment, error) {
	query := `
		SELECT id, project_id, user_id, role, assigned_at
		FROM project_assignments
		WHERE project_id = $1
		ORDER BY assigned_at
	`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []models.ProjectAssignment
	for rows.Next() {
		var a models.ProjectAssignment
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.Role, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ==============================================
// TASKS
// ==============================================

const taskColumns = `id, project_id, title, description, status, priority,
	       assigned_to, created_by, due_date, completed_at, created_at, updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.AssignedTo, &t.CreatedBy, &t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return &t, nil
}

// CreateTask inserts a task
func (r *ProjectRepository) CreateTask(ctx context.Context, t *models.Task) error {
	query := `
		INSERT INTO tasks (project_id, title, description, status, priority,
		                   assigned_to, created_by, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		t.ProjectID, t.Title, t.Description, t.Status, t.Priority,
		t.AssignedTo, t.CreatedBy, t.DueDate,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTaskByID retrieves a task
func (r *ProjectRepository) GetTaskByID(ctx context.Context, taskID int) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRow(ctx, query, taskID))
}

// ListTasks returns all tasks of a project
func (r *ProjectRepository) ListTasks(ctx context.Context, projectID int) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask saves mutable fields of a task. completed_at follows status.
func (r *ProjectRepository) UpdateTask(ctx context.Context, t *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    assigned_to = $5, due_date = $6,
		    completed_at = CASE WHEN $3 = 'completed' THEN COALESCE(completed_at, NOW()) ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $7
	`
	tag, err := r.db.Exec(ctx, query,
		t.Title, t.Description, t.Status, t.Priority, t.AssignedTo, t.DueDate, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes a task
func (r *ProjectRepository) DeleteTask(ctx context.Context, taskID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ==============================================
// MILESTONES
// ==============================================

const milestoneColumns = `id, project_id, title, description, status, created_by,
	       due_date, completed_at, created_at, updated_at`

func scanMilestone(row pgx.Row) (*models.Milestone, error) {
	var m models.Milestone
	err := row.Scan(
		&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.Status, &m.CreatedBy,
		&m.DueDate, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("failed to scan milestone: %w", err)
	}
	return &m, nil
}

// CreateMilestone inserts a milestone
func (r *ProjectRepository) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	query := `
		INSERT INTO milestones (project_id, title, description, status, created_by, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		m.ProjectID, m.Title, m.Description, m.Status, m.CreatedBy, m.DueDate,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	return nil
}

// GetMilestoneByID retrieves a milestone
func (r *ProjectRepository) GetMilestoneByID(ctx context.Context, milestoneID int) (*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`
	return scanMilestone(r.db.QueryRow(ctx, query, milestoneID))
}

// ListMilestones returns all milestones of a project
func (r *ProjectRepository) ListMilestones(ctx context.Context, projectID int) ([]models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE project_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	var milestones []models.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

// UpdateMilestone saves mutable fields of a milestone
func (r *ProjectRepository) UpdateMilestone(ctx context.Context, m *models.Milestone) error {
	query := `
		UPDATE milestones
		SET title = $1, description = $2, status = $3, due_date = $4,
		    completed_at = CASE WHEN $3 = 'completed' THEN COALESCE(completed_at, NOW()) ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query, m.Title, m.Description, m.Status, m.DueDate, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update milestone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMilestoneNotFound
	}
	return nil
}

// DeleteMilestone removes a milestone
func (r *ProjectRepository) DeleteMilestone(ctx context.Context, milestoneID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM milestones WHERE id = $1`, milestoneID)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMilestoneNotFound
	}
	return nil
}

// ProgressCounts fetches the milestone/task completion counters that feed the
// derived project progress figure.
func (r *ProjectRepository) ProgressCounts(ctx context.Context, projectID int) (totalMilestones, completedMilestones, totalTasks, completedTasks int, err error) {
	query := `
		SELECT
		    (SELECT COUNT(*) FROM milestones WHERE project_id = $1),
		    (SELECT COUNT(*) FROM milestones WHERE project_id = $1 AND status = 'completed'),
		    (SELECT COUNT(*) FROM tasks WHERE project_id = $1),
		    (SELECT COUNT(*) FROM tasks WHERE project_id = $1 AND status = 'completed')
	`
	if err = r.db.QueryRow(ctx, query, projectID).Scan(
		&totalMilestones, &completedMilestones, &totalTasks, &completedTasks); err != nil {
		err = fmt.Errorf("failed to count progress: %w", err)
	}
	return
}

// UpdateProgress persists a derived progress value
func (r *ProjectRepository) UpdateProgress(ctx context.Context, projectID, progress int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE projects SET progress = $1, updated_at = NOW() WHERE id = $2`,
		progress, projectID)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}
