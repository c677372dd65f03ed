package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arstudios/protend/internal/api/dto"
	"github.com/arstudios/protend/internal/models"
)

// ==============================================
// SERVICE INTERFACE (for testing)
// ==============================================

type AdminService interface {
	ListUsers(ctx context.Context, role string) ([]models.User, error)
	SearchUsers(ctx context.Context, term string, limit int) ([]models.User, error)
	BanUser(ctx context.Context, userID int, reason string) error
	UnbanUser(ctx context.Context, userID int) error
	RestrictUser(ctx context.Context, userID int, until time.Time, reason string) error
	UnrestrictUser(ctx context.Context, userID int) error

	CreateFeaturedWork(ctx context.Context, w *models.FeaturedWork) (*models.FeaturedWork, error)
	ListFeaturedWorks(ctx context.Context, activeOnly bool) ([]models.FeaturedWork, error)
	UpdateFeaturedWork(ctx context.Context, w *models.FeaturedWork) (*models.FeaturedWork, error)
	DeleteFeaturedWork(ctx context.Context, id int) error

	CreateClient(ctx context.Context, c *models.Client) (*models.Client, error)
	ListClients(ctx context.Context, activeOnly bool) ([]models.Client, error)
	UpdateClient(ctx context.Context, c *models.Client) (*models.Client, error)
	DeleteClient(ctx context.Context, id int) error

	Activities(ctx context.Context, limit, offset int) ([]models.Activity, int, error)
}

// ==============================================
// HANDLER (HTTP Layer ONLY)
// ==============================================

type AdminHandler struct {
	service AdminService
}

func NewAdminHandler(service AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// ==============================================
// USER MODERATION ENDPOINTS
// ==============================================

// ListUsers handles GET /api/v1/admin/users?role=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	items, err := h.service.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]*models.PublicUser, 0, len(items))
	for i := range items {
		out = append(out, items[i].ToPublic())
	}
	respondSuccess(c, http.StatusOK, out)
}

// SearchUsers handles GET /api/v1/admin/users/search?q=
func (h *AdminHandler) SearchUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, err := h.service.SearchUsers(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]*models.PublicUser, 0, len(items))
	for i := range items {
		out = append(out, items[i].ToPublic())
	}
	respondSuccess(c, http.StatusOK, out)
}

// BanUser handles POST /api/v1/admin/users/:id/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id", err)
		return
	}

	var req dto.BanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	if err := h.service.BanUser(c.Request.Context(), userID, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "User banned"})
}

// UnbanUser handles POST /api/v1/admin/users/:id/unban
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id", err)
		return
	}

	if err := h.service.UnbanUser(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "User unbanned"})
}

// RestrictUser handles POST /api/v1/admin/users/:id/restrict
func (h *AdminHandler) RestrictUser(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id", err)
		return
	}

	var req dto.RestrictUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	if err := h.service.RestrictUser(c.Request.Context(), userID, req.Until, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "User restricted"})
}

// UnrestrictUser handles POST /api/v1/admin/users/:id/unrestrict
func (h *AdminHandler) UnrestrictUser(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id", err)
		return
	}

	if err := h.service.UnrestrictUser(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "User restriction lifted"})
}

// ==============================================
// FEATURED WORK ENDPOINTS
// ==============================================

// ListFeaturedWorks handles GET /api/v1/admin/featured-works
func (h *AdminHandler) ListFeaturedWorks(c *gin.Context) {
	items, err := h.service.ListFeaturedWorks(c.Request.Context(), false)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.FromFeaturedWorks(items))
}

// CreateFeaturedWork handles POST /api/v1/admin/featured-works
func (h *AdminHandler) CreateFeaturedWork(c *gin.Context) {
	var req dto.FeaturedWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	w, err := h.service.CreateFeaturedWork(c.Request.Context(), featuredWorkFromRequest(0, &req))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, dto.FromFeaturedWork(w))
}

// UpdateFeaturedWork handles PUT /api/v1/admin/featured-works/:id
func (h *AdminHandler) UpdateFeaturedWork(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid id", err)
		return
	}

	var req dto.FeaturedWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	w, err := h.service.UpdateFeaturedWork(c.Request.Context(), featuredWorkFromRequest(id, &req))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.FromFeaturedWork(w))
}

// DeleteFeaturedWork handles DELETE /api/v1/admin/featured-works/:id
func (h *AdminHandler) DeleteFeaturedWork(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid id", err)
		return
	}

	if err := h.service.DeleteFeaturedWork(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Featured work deleted"})
}

// ==============================================
// CLIENT ENDPOINTS
// ==============================================

// ListClients handles GET /api/v1/admin/clients
func (h *AdminHandler) ListClients(c *gin.Context) {
	items, err := h.service.ListClients(c.Request.Context(), false)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.FromClients(items))
}

// CreateClient handles POST /api/v1/admin/clients
func (h *AdminHandler) CreateClient(c *gin.Context) {
	var req dto.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	client, err := h.service.CreateClient(c.Request.Context(), clientFromRequest(0, &req))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, dto.FromClient(client))
}

// UpdateClient handles PUT /api/v1/admin/clients/:id
func (h *AdminHandler) UpdateClient(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid id", err)
		return
	}

	var req dto.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	client, err := h.service.UpdateClient(c.Request.Context(), clientFromRequest(id, &req))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.FromClient(client))
}

// DeleteClient handles DELETE /api/v1/admin/clients/:id
func (h *AdminHandler) DeleteClient(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid id", err)
		return
	}

	if err := h.service.DeleteClient(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.SuccessResponse{Success: true, Message: "Client deleted"})
}

// ==============================================
// ACTIVITY FEED ENDPOINT
// ==============================================

// Activities handles GET /api/v1/admin/activities
func (h *AdminHandler) Activities(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid pagination", err)
		return
	}

	items, total, err := h.service.Activities(c.Request.Context(), page.Limit(), page.Offset())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"activities": dto.FromActivities(items),
		"meta": dto.PaginationMeta{
			Page:       maxInt(page.Page, 1),
			PerPage:    page.Limit(),
			Total:      total,
			TotalPages: (total + page.Limit() - 1) / page.Limit(),
		},
	})
}

// ==============================================
// PUBLIC SITE ENDPOINTS (no auth)
// ==============================================

// PublicFeaturedWorks handles GET /api/v1/site/featured-works
func (h *AdminHandler) PublicFeaturedWorks(c *gin.Context) {
	items, err := h.service.ListFeaturedWorks(c.Request.Context(), true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.FromFeaturedWorks(items))
}

// PublicClients handles GET /api/v1/site/clients
func (h *AdminHandler) PublicClients(c *gin.Context) {
	items, err := h.service.ListClients(c.Request.Context(), true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.FromClients(items))
}

// ==============================================
// ROUTE REGISTRATION
// ==============================================

func (h *AdminHandler) RegisterRoutes(router *gin.Engine, auth, admin gin.HandlerFunc) {
	site := router.Group("/api/v1/site")
	{
		site.GET("/featured-works", h.PublicFeaturedWorks)
		site.GET("/clients", h.PublicClients)
	}

	v1 := router.Group("/api/v1/admin", auth, admin)
	{
		v1.GET("/users", h.ListUsers)
		v1.GET("/users/search", h.SearchUsers)
		v1.POST("/users/:id/ban", h.BanUser)
		v1.POST("/users/:id/unban", h.UnbanUser)
		v1.POST("/users/:id/restrict", h.RestrictUser)
		v1.POST("/users/:id/unrestrict", h.UnrestrictUser)

		v1.GET("/featured-works", h.ListFeaturedWorks)
		v1.POST("/featured-works", h.CreateFeaturedWork)
		v1.PUT("/featured-works/:id", h.UpdateFeaturedWork)
		v1.DELETE("/featured-works/:id", h.DeleteFeaturedWork)

		v1.GET("/clients", h.ListClients)
		v1.POST("/clients", h.CreateClient)
		v1.PUT("/clients/:id", h.UpdateClient)
		v1.DELETE("/clients/:id", h.DeleteClient)

		v1.GET("/activities", h.Activities)
	}
}

// ==============================================
// HELPER FUNCTIONS
// ==============================================

func featuredWorkFromRequest(id int, req *dto.FeaturedWorkRequest) *models.FeaturedWork {
	w := &models.FeaturedWork{
		ID:           id,
		Title:        req.Title,
		Category:     optionalStr(req.Category),
		Description:  optionalStr(req.Description),
		ImageURL:     optionalStr(req.ImageURL),
		ProjectURL:   optionalStr(req.ProjectURL),
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
	}
	if req.IsActive != nil {
		w.IsActive = *req.IsActive
	}
	return w
}

func clientFromRequest(id int, req *dto.ClientRequest) *models.Client {
	client := &models.Client{
		ID:           id,
		Name:         req.Name,
		LogoURL:      optionalStr(req.LogoURL),
		IconClass:    optionalStr(req.IconClass),
		WebsiteURL:   optionalStr(req.WebsiteURL),
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}
	return client
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
