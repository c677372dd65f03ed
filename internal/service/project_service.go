package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/repository"
)

// ==============================================
// PROJECT SERVICE
// ==============================================

// ProjectStore is the slice of the project repository the service needs.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProjectByID(ctx context.Context, projectID int) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListProjectsForUser(ctx context.Context, userID int) ([]models.Project, error)
	SearchProjects(ctx context.Context, term string, limit int) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, projectID int) error
	CountProjectsByStatus(ctx context.Context) (total, pending, ongoing, complete int, err error)

	AssignUser(ctx context.Context, a *models.ProjectAssignment) error
	UnassignUser(ctx context.Context, projectID, userID int) error
	IsAssigned(ctx context.Context, projectID, userID int) (bool, error)
	ListAssignments(ctx context.Context, projectID int) ([]models.ProjectAssignment, error)

	CreateTask(ctx context.Context, t *models.Task) error
	GetTaskByID(ctx context.Context, taskID int) (*models.Task, error)
	ListTasks(ctx context.Context, projectID int) ([]models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, taskID int) error

	CreateMilestone(ctx context.Context, m *models.Milestone) error
	GetMilestoneByID(ctx context.Context, milestoneID int) (*models.Milestone, error)
	ListMilestones(ctx context.Context, projectID int) ([]models.Milestone, error)
	UpdateMilestone(ctx context.Context, m *models.Milestone) error
	DeleteMilestone(ctx context.Context, milestoneID int) error

	ProgressCounts(ctx context.Context, projectID int) (totalMilestones, completedMilestones, totalTasks, completedTasks int, err error)
	UpdateProgress(ctx context.Context, projectID, progress int) error
}

type ProjectService struct {
	projects   ProjectStore
	activities ActivityStore
	logger     *zap.Logger
}

func NewProjectService(projects ProjectStore, activities ActivityStore, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projects:   projects,
		activities: activities,
		logger:     logger,
	}
}

// ProjectStats summarizes the dashboard counters.
type ProjectStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Ongoing  int `json:"ongoing"`
	Complete int `json:"complete"`
}

// ==============================================
// PROJECTS
// ==============================================

func (s *ProjectService) CreateProject(ctx context.Context, actorID int, p *models.Project) (*models.Project, error) {
	if p.Status == "" {
		p.Status = models.ProjectStatusPending
	}

	if err := s.projects.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logActivity(ctx, actorID, p.ID, models.ActivityProjectCreated, p.Name)
	return p, nil
}

// GetProject returns a project, enforcing membership for non-admin callers.
func (s *ProjectService) GetProject(ctx context.Context, actor *models.User, projectID int) (*models.Project, error) {
	p, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, s.mapProjectErr(err)
	}

	if err := s.requireMember(ctx, actor, projectID); err != nil {
		return nil, err
	}

	return p, nil
}

// ListProjects returns every project for admins and only assigned projects
// for everyone else.
func (s *ProjectService) ListProjects(ctx context.Context, actor *models.User) ([]models.Project, error) {
	if actor.IsAdmin() {
		return s.projects.ListProjects(ctx)
	}
	return s.projects.ListProjectsForUser(ctx, actor.ID)
}

func (s *ProjectService) SearchProjects(ctx context.Context, term string, limit int) ([]models.Project, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.projects.SearchProjects(ctx, term, limit)
}

func (s *ProjectService) UpdateProject(ctx context.Context, actorID int, p *models.Project) (*models.Project, error) {
	existing, err := s.projects.GetProjectByID(ctx, p.ID)
	if err != nil {
		return nil, s.mapProjectErr(err)
	}

	// Progress is derived, never client-supplied.
	p.Progress = existing.Progress

	if err := s.projects.UpdateProject(ctx, p); err != nil {
		return nil, s.mapProjectErr(err)
	}

	s.logActivity(ctx, actorID, p.ID, models.ActivityProjectUpdated, p.Name)
	return p, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, actorID, projectID int) error {
	p, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return s.mapProjectErr(err)
	}

	if err := s.projects.DeleteProject(ctx, projectID); err != nil {
		return s.mapProjectErr(err)
	}

	s.logActivity(ctx, actorID, 0, models.ActivityProjectDeleted, p.Name)
	return nil
}

func (s *ProjectService) Stats(ctx context.Context) (*ProjectStats, error) {
	total, pending, ongoing, complete, err := s.projects.CountProjectsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	return &ProjectStats{Total: total, Pending: pending, Ongoing: ongoing, Complete: complete}, nil
}

// ==============================================
// ASSIGNMENTS
// ==============================================

func (s *ProjectService) AssignUser(ctx context.Context, actorID, projectID, userID int, role string) error {
	if _, err := s.projects.GetProjectByID(ctx, projectID); err != nil {
		return s.mapProjectErr(err)
	}

	a := &models.ProjectAssignment{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	if err := s.projects.AssignUser(ctx, a); err != nil {
		if errors.Is(err, repository.ErrAlreadyAssigned) {
			return models.ErrAlreadyAssigned
		}
		return fmt.Errorf("failed to assign user: %w", err)
	}

	s.logActivity(ctx, actorID, projectID, models.ActivityUserAssigned, fmt.Sprintf("user %d", userID))
	return nil
}

func (s *ProjectService) UnassignUser(ctx context.Context, actorID, projectID, userID int) error {
	if err := s.projects.UnassignUser(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrAssignmentMissing) {
			return models.ErrAssignmentMissing
		}
		return fmt.Errorf("failed to unassign user: %w", err)
	}

	s.logActivity(ctx, actorID, projectID, models.ActivityUserUnassigned, fmt.Sprintf("user %d", userID))
	return nil
}

func (s *ProjectService) ListAssignments(ctx context.Context, projectID int) ([]models.ProjectAssignment, error) {
	return s.projects.ListAssignments(ctx, projectID)
}

// requireMember rejects callers outside the project unless they are admins.
func (s *ProjectService) requireMember(ctx context.Context, actor *models.User, projectID int) error {
	if actor.IsAdmin() {
		return nil
	}

	assigned, err := s.projects.IsAssigned(ctx, projectID, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return models.ErrNotProjectMember
	}
	return nil
}

// ==============================================
// TASKS
// ==============================================

func (s *ProjectService) CreateTask(ctx context.Context, actor *models.User, t *models.Task) (*models.Task, error) {
	if err := s.requireMember(ctx, actor, t.ProjectID); err != nil {
		return nil, err
	}

	if t.Status == "" {
		t.Status = models.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = "Medium"
	}
	t.CreatedBy = actor.ID

	if err := s.projects.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logActivity(ctx, actor.ID, t.ProjectID, models.ActivityTaskCreated, t.Title)
	s.recomputeProgress(ctx, t.ProjectID)
	return t, nil
}

func (s *ProjectService) ListTasks(ctx context.Context, actor *models.User, projectID int) ([]models.Task, error) {
	if err := s.requireMember(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.projects.ListTasks(ctx, projectID)
}

func (s *ProjectService) UpdateTask(ctx context.Context, actor *models.User, t *models.Task) (*models.Task, error) {
	existing, err := s.projects.GetTaskByID(ctx, t.ID)
	if err != nil {
		return nil, s.mapProjectErr(err)
	}
	t.ProjectID = existing.ProjectID

	if err := s.requireMember(ctx, actor, t.ProjectID); err != nil {
		return nil, err
	}

	if t.Status == models.TaskStatusCompleted && existing.Status != models.TaskStatusCompleted {
		t.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	if err := s.projects.UpdateTask(ctx, t); err != nil {
		return nil, s.mapProjectErr(err)
	}

	s.logActivity(ctx, actor.ID, t.ProjectID, models.ActivityTaskUpdated, t.Title)
	s.recomputeProgress(ctx, t.ProjectID)
	return t, nil
}

func (s *ProjectService) DeleteTask(ctx context.Context, actor *models.User, taskID int) error {
	t, err := s.projects.GetTaskByID(ctx, taskID)
	if err != nil {
		return s.mapProjectErr(err)
	}

	if err := s.requireMember(ctx, actor, t.ProjectID); err != nil {
		return err
	}

	if err := s.projects.DeleteTask(ctx, taskID); err != nil {
		return s.mapProjectErr(err)
	}

	s.recomputeProgress(ctx, t.ProjectID)
	return nil
}

// ==============================================
// MILESTONES
// ==============================================

func (s *ProjectService) CreateMilestone(ctx context.Context, actor *models.User, m *models.Milestone) (*models.Milestone, error) {
	if err := s.requireMember(ctx, actor, m.ProjectID); err != nil {
		return nil, err
	}

	if m.Status == "" {
		m.Status = models.MilestoneStatusPending
	}
	m.CreatedBy = actor.ID

	if err := s.projects.CreateMilestone(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}

	s.logActivity(ctx, actor.ID, m.ProjectID, models.ActivityMilestoneCreated, m.Title)
	s.recomputeProgress(ctx, m.ProjectID)
	return m, nil
}

func (s *ProjectService) ListMilestones(ctx context.Context, actor *models.User, projectID int) ([]models.Milestone, error) {
	if err := s.requireMember(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.projects.ListMilestones(ctx, projectID)
}

func (s *ProjectService) UpdateMilestone(ctx context.Context, actor *models.User, m *models.Milestone) (*models.Milestone, error) {
	existing, err := s.projects.GetMilestoneByID(ctx, m.ID)
	if err != nil {
		return nil, s.mapProjectErr(err)
	}
	m.ProjectID = existing.ProjectID

	if err := s.requireMember(ctx, actor, m.ProjectID); err != nil {
		return nil, err
	}

	if m.Status == models.MilestoneStatusCompleted && existing.Status != models.MilestoneStatusCompleted {
		m.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	if err := s.projects.UpdateMilestone(ctx, m); err != nil {
		return nil, s.mapProjectErr(err)
	}

	s.logActivity(ctx, actor.ID, m.ProjectID, models.ActivityMilestoneUpdated, m.Title)
	s.recomputeProgress(ctx, m.ProjectID)
	return m, nil
}

func (s *ProjectService) DeleteMilestone(ctx context.Context, actor *models.User, milestoneID int) error {
	m, err := s.projects.GetMilestoneByID(ctx, milestoneID)
	if err != nil {
		return s.mapProjectErr(err)
	}

	if err := s.requireMember(ctx, actor, m.ProjectID); err != nil {
		return err
	}

	if err := s.projects.DeleteMilestone(ctx, milestoneID); err != nil {
		return s.mapProjectErr(err)
	}

	s.recomputeProgress(ctx, m.ProjectID)
	return nil
}

// ==============================================
// PROGRESS
// ==============================================

// recomputeProgress rederives the project progress figure after any task or
// milestone change. Best-effort: a failure here never fails the triggering
// request.
func (s *ProjectService) recomputeProgress(ctx context.Context, projectID int) {
	tm, cm, tt, ct, err := s.projects.ProgressCounts(ctx, projectID)
	if err != nil {
		s.logger.Warn("failed to load progress counts",
			zap.Int("project_id", projectID), zap.Error(err))
		return
	}

	progress := models.CalculateProgress(tm, cm, tt, ct)
	if err := s.projects.UpdateProgress(ctx, projectID, progress); err != nil {
		s.logger.Warn("failed to store project progress",
			zap.Int("project_id", projectID), zap.Error(err))
	}
}

func (s *ProjectService) mapProjectErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrProjectNotFound):
		return models.ErrProjectNotFound
	case errors.Is(err, repository.ErrTaskNotFound):
		return models.ErrTaskNotFound
	case errors.Is(err, repository.ErrMilestoneNotFound):
		return models.ErrMilestoneNotFound
	default:
		return err
	}
}

func (s *ProjectService) logActivity(ctx context.Context, userID, projectID int, action, description string) {
	a := &models.Activity{
		UserID: userID,
		Action: action,
	}
	if projectID != 0 {
		a.ProjectID = sql.NullInt32{Int32: int32(projectID), Valid: true}
	}
	if description != "" {
		a.Description = sql.NullString{String: description, Valid: true}
	}

	if err := s.activities.CreateActivity(ctx, a); err != nil {
		s.logger.Warn("failed to record activity",
			zap.String("action", action), zap.Error(err))
	}
}
