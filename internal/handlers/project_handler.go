package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arstudios/protend/internal/api/dto"
	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/service"
)

// ==============================================
// SERVICE INTERFACE (for testing)
// ==============================================

type ProjectService interface {
	CreateProject(ctx context.Context, actorID int, p *models.Project) (*models.Project, error)
	GetProject(ctx context.Context, actor *models.User, projectID int) (*models.Project, error)
	ListProjects(ctx context.Context, actor *models.User) ([]models.Project, error)
	SearchProjects(ctx context.Context, term string, limit int) ([]models.Project, error)
	UpdateProject(ctx context.Context, actorID int, p *models.Project) (*models.Project, error)
	DeleteProject(ctx context.Context, actorID, projectID int) error
	Stats(ctx context.Context) (*service.ProjectStats, error)

	AssignUser(ctx context.Context, actorID, projectID, userID int, role string) error
	UnassignUser(ctx context.Context, actorID, projectID, userID int) error
	ListAssignments(ctx context.Context, projectID int) ([]models.ProjectAssignment, error)

	CreateTask(ctx context.Context, actor *models.User, t *models.Task) (*models.Task, error)
	ListTasks(ctx context.Context, actor *models.User, projectID int) ([]models.Task, error)
	UpdateTask(ctx context.Context, actor *models.User, t *models.Task) (*models.Task, error)
	DeleteTask(ctx context.Context, actor *models.User, taskID int) error

	CreateMilestone(ctx context.Context, actor *models.User, m *models.Milestone) (*models.Milestone, error)
	ListMilestones(ctx context.Context, actor *models.User, projectID int) ([]models.Milestone, error)
	UpdateMilestone(ctx context.Context, actor *models.User, m *models.Milestone) (*models.Milestone, error)
	DeleteMilestone(ctx context.Context, actor *models.User, milestoneID int) error
}

// ==============================================
// HANDLER (HTTP Layer ONLY)
// ==============================================

type ProjectHandler struct {
	service ProjectService
}

func NewProjectHandler(service ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// ==============================================
// PROJECT ENDPOINTS
// ==============================================

// CreateProject handles POST /api/v1/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	p := &models.Project{
		Name:        req.Name,
		Description: optionalStr(req.Description),
		Status:      req.Status,
		Department:  optionalStr(req.Department),
		Priority:    optionalStr(req.Priority),
		StartDate:   optionalDate(req.StartDate),
		EndDate:     optionalDate(req.EndDate),
		ClientName:  optionalStr(req.ClientName),
	}

	p, err := h.service.CreateProject(c.Request.Context(), CurrentUser(c).ID, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, dto.FromProject(p))
}

// GetProject handles GET /api/v1/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	p, err := h.service.GetProject(c.Request.Context(), CurrentUser(c), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.FromProject(p))
}

// ListProjects handles GET /api/v1/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	items, err := h.service.ListProjects(c.Request.Context(), CurrentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.FromProjects(items))
}

// SearchProjects handles GET /api/v1/projects/search?q=...
func (h *ProjectHandler) SearchProjects(c *gin.Context) {
	term := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, err := h.service.SearchProjects(c.Request.Context(), term, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.FromProjects(items))
}

// UpdateProject handles PUT /api/v1/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	p := &models.Project{
		ID:          projectID,
		Name:        req.Name,
		Description: optionalStr(req.Description),
		Status:      req.Status,
		Department:  optionalStr(req.Department),
		Priority:    optionalStr(req.Priority),
		StartDate:   optionalDate(req.StartDate),
		EndDate:     optionalDate(req.EndDate),
		ClientName:  optionalStr(req.ClientName),
	}

	p, err = h.service.UpdateProject(c.Request.Context(), CurrentUser(c).ID, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.FromProject(p))
}

// DeleteProject handles DELETE /api/v1/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	if err := h.service.DeleteProject(c.Request.Context(), CurrentUser(c).ID, projectID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Project deleted"})
}

// Stats handles GET /api/v1/projects/stats
func (h *ProjectHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, stats)
}

// ==============================================
// ASSIGNMENT ENDPOINTS
// ==============================================

// AssignUser handles POST /api/v1/projects/:id/assignments
func (h *ProjectHandler) AssignUser(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	var req dto.AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	if err := h.service.AssignUser(c.Request.Context(), CurrentUser(c).ID, projectID, req.UserID, req.Role); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, dto.SuccessResponse{Success: true, Message: "User assigned"})
}

// UnassignUser handles DELETE /api/v1/projects/:id/assignments/:user_id
func (h *ProjectHandler) UnassignUser(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}
	userID, err := parseIDParam(c, "user_id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id", err)
		return
	}

	if err := h.service.UnassignUser(c.Request.Context(), CurrentUser(c).ID, projectID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "User unassigned"})
}

// ListAssignments handles GET /api/v1/projects/:id/assignments
func (h *ProjectHandler) ListAssignments(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	items, err := h.service.ListAssignments(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, items)
}

// ==============================================
// TASK ENDPOINTS
// ==============================================

// CreateTask handles POST /api/v1/projects/:id/tasks
func (h *ProjectHandler) CreateTask(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	t := &models.Task{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: optionalStr(req.Description),
		Priority:    req.Priority,
		DueDate:     optionalDate(req.DueDate),
	}
	if req.AssignedTo > 0 {
		t.AssignedTo = sql.NullInt32{Int32: int32(req.AssignedTo), Valid: true}
	}

	t, err = h.service.CreateTask(c.Request.Context(), CurrentUser(c), t)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, dto.FromTask(t))
}

// ListTasks handles GET /api/v1/projects/:id/tasks
func (h *ProjectHandler) ListTasks(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	items, err := h.service.ListTasks(c.Request.Context(), CurrentUser(c), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.FromTasks(items))
}

// UpdateTask handles PUT /api/v1/tasks/:id
func (h *ProjectHandler) UpdateTask(c *gin.Context) {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task id", err)
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	t := &models.Task{
		ID:          taskID,
		Title:       req.Title,
		Description: optionalStr(req.Description),
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     optionalDate(req.DueDate),
	}
	if req.AssignedTo > 0 {
		t.AssignedTo = sql.NullInt32{Int32: int32(req.AssignedTo), Valid: true}
	}

	t, err = h.service.UpdateTask(c.Request.Context(), CurrentUser(c), t)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.FromTask(t))
}

// DeleteTask handles DELETE /api/v1/tasks/:id
func (h *ProjectHandler) DeleteTask(c *gin.Context) {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task id", err)
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), CurrentUser(c), taskID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Task deleted"})
}

// ==============================================
// MILESTONE ENDPOINTS
// ==============================================

// CreateMilestone handles POST /api/v1/projects/:id/milestones
func (h *ProjectHandler) CreateMilestone(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	var req dto.CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	m := &models.Milestone{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: optionalStr(req.Description),
		DueDate:     optionalDate(req.DueDate),
	}

	m, err = h.service.CreateMilestone(c.Request.Context(), CurrentUser(c), m)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, dto.FromMilestone(m))
}

// ListMilestones handles GET /api/v1/projects/:id/milestones
func (h *ProjectHandler) ListMilestones(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	items, err := h.service.ListMilestones(c.Request.Context(), CurrentUser(c), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.FromMilestones(items))
}

// UpdateMilestone handles PUT /api/v1/milestones/:id
func (h *ProjectHandler) UpdateMilestone(c *gin.Context) {
	milestoneID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid milestone id", err)
		return
	}

	var req dto.UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	m := &models.Milestone{
		ID:          milestoneID,
		Title:       req.Title,
		Description: optionalStr(req.Description),
		Status:      req.Status,
		DueDate:     optionalDate(req.DueDate),
	}

	m, err = h.service.UpdateMilestone(c.Request.Context(), CurrentUser(c), m)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.FromMilestone(m))
}

// DeleteMilestone handles DELETE /api/v1/milestones/:id
func (h *ProjectHandler) DeleteMilestone(c *gin.Context) {
	milestoneID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid milestone id", err)
		return
	}

	if err := h.service.DeleteMilestone(c.Request.Context(), CurrentUser(c), milestoneID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Milestone deleted"})
}

// ==============================================
// ROUTE REGISTRATION
// ==============================================

func (h *ProjectHandler) RegisterRoutes(router *gin.Engine, auth, admin gin.HandlerFunc) {
	v1 := router.Group("/api/v1", auth)
	{
		v1.GET("/projects", h.ListProjects)
		v1.GET("/projects/search", h.SearchProjects)
		v1.GET("/projects/stats", h.Stats)
		v1.GET("/projects/:id", h.GetProject)
		v1.POST("/projects", admin, h.CreateProject)
		v1.PUT("/projects/:id", admin, h.UpdateProject)
		v1.DELETE("/projects/:id", admin, h.DeleteProject)

		v1.GET("/projects/:id/assignments", h.ListAssignments)
		v1.POST("/projects/:id/assignments", admin, h.AssignUser)
		v1.DELETE("/projects/:id/assignments/:user_id", admin, h.UnassignUser)

		v1.GET("/projects/:id/tasks", h.ListTasks)
		v1.POST("/projects/:id/tasks", h.CreateTask)
		v1.PUT("/tasks/:id", h.UpdateTask)
		v1.DELETE("/tasks/:id", h.DeleteTask)

		v1.GET("/projects/:id/milestones", h.ListMilestones)
		v1.POST("/projects/:id/milestones", h.CreateMilestone)
		v1.PUT("/milestones/:id", h.UpdateMilestone)
		v1.DELETE("/milestones/:id", h.DeleteMilestone)
	}
}

// ==============================================
// HELPER FUNCTIONS
// ==============================================

// parseIDParam extracts and validates a positive integer URL parameter
func parseIDParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, errors.New(name + " must be a number")
	}
	if v <= 0 {
		return 0, errors.New(name + " must be positive")
	}
	return v, nil
}

func optionalStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// optionalDate parses YYYY-MM-DD; empty or malformed input stays NULL
func optionalDate(s string) sql.NullTime {
	if s == "" {
		return sql.NullTime{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
