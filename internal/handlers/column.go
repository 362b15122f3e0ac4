package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corkboard-dev/corkboard/internal/services"
	"github.com/corkboard-dev/corkboard/internal/utils"
)

type CreateColumnRequest struct {
	Title string `json:"title" binding:"required"`
}

type UpdateColumnRequest struct {
	Title string `json:"title" binding:"required"`
}

// ReorderColumnRequest uses a pointer so position 0 passes required
// validation.
type ReorderColumnRequest struct {
	Order *int `json:"order" binding:"required"`
}

type ColumnHandler struct {
	columns *services.ColumnsService
}

func NewColumnHandler(columns *services.ColumnsService) *ColumnHandler {
	return &ColumnHandler{columns: columns}
}

func (h *ColumnHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	var body CreateColumnRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	column, err := h.columns.Create(projectID, userID, body.Title)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, column)
}

func (h *ColumnHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, ok := parseID(ctx, "project_id")
	if !ok {
		return
	}

	columns, err := h.columns.List(projectID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, columns)
}

func (h *ColumnHandler) Get(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	columnID, ok := parseID(ctx, "column_id")
	if !ok {
		return
	}

	column, err := h.columns.Get(columnID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, column)
}

func (h *ColumnHandler) Update(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	columnID, ok := parseID(ctx, "column_id")
	if !ok {
		return
	}

	var body UpdateColumnRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	column, err := h.columns.Update(columnID, userID, body.Title)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, column)
}

func (h *ColumnHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	columnID, ok := parseID(ctx, "column_id")
	if !ok {
		return
	}

	if err := h.columns.Remove(columnID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ColumnHandler) Reorder(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	columnID, ok := parseID(ctx, "column_id")
	if !ok {
		return
	}

	var body ReorderColumnRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	column, err := h.columns.Reorder(columnID, userID, *body.Order)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, column)
}
