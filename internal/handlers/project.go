package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corkboard-dev/corkboard/internal/services"
	"github.com/corkboard-dev/corkboard/internal/types"
	"github.com/corkboard-dev/corkboard/internal/utils"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        types.Optional[string] `json:"name"`
	Description types.Optional[string] `json:"description"`
}

type AddParticipantRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type LeaveProjectRequest struct {
	NewOwnerID *uint `json:"new_owner_id"`
}

type ExportBacklogRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

type ProjectHandler struct {
	projects *services.ProjectsService
}

func NewProjectHandler(projects *services.ProjectsService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) Create(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, err := h.projects.Create(userID, body.Name, body.Description)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projects, err := h.projects.List(userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) Get(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	project, err := h.projects.Get(projectID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Update(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	var body UpdateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, err := h.projects.Update(projectID, userID, services.ProjectUpdate{
		Name:        body.Name,
		Description: body.Description,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	if err := h.projects.Delete(projectID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ProjectHandler) AddParticipant(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	var body AddParticipantRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	participant, err := h.projects.AddParticipant(projectID, userID, body.Email, body.Role)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, participant)
}

func (h *ProjectHandler) RemoveParticipant(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	participantID, ok := parseID(ctx, "user_id")
	if !ok {
		return
	}

	if err := h.projects.RemoveParticipant(projectID, userID, participantID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ProjectHandler) UpdateParticipantRole(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	participantID, ok := parseID(ctx, "user_id")
	if !ok {
		return
	}

	var body UpdateRoleRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	participant, err := h.projects.UpdateParticipantRole(projectID, userID, participantID, body.Role)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, participant)
}

func (h *ProjectHandler) Leave(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	var body LeaveProjectRequest

	// The body is optional: plain members leave without naming a successor.
	if ctx.Request.ContentLength > 0 {
		if err := ctx.BindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	deleted, err := h.projects.Leave(projectID, userID, body.NewOwnerID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"project_deleted": deleted})
}

func (h *ProjectHandler) ExportBacklog(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	var body ExportBacklogRequest

	if ctx.Request.ContentLength > 0 {
		if err := ctx.BindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	count, err := h.projects.ExportBacklog(projectID, userID, body.Email)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"exported_tasks": count})
}
