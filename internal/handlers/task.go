package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corkboard-dev/corkboard/internal/services"
	"github.com/corkboard-dev/corkboard/internal/types"
	"github.com/corkboard-dev/corkboard/internal/utils"
)

type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	AssigneeID  *uint   `json:"assignee_id"`
}

// UpdateTaskRequest distinguishes omitted fields from explicit nulls: an
// absent field is untouched, null clears it.
type UpdateTaskRequest struct {
	Title       types.Optional[string] `json:"title"`
	Description types.Optional[string] `json:"description"`
	AssigneeID  types.Optional[uint]   `json:"assignee_id"`
}

// MoveTaskRequest uses a pointer so position 0 passes required validation.
type MoveTaskRequest struct {
	ColumnID uint `json:"column_id" binding:"required"`
	Order    *int `json:"order" binding:"required"`
}

type TaskHandler struct {
	tasks *services.TasksService
}

func NewTaskHandler(tasks *services.TasksService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	columnID, ok := parseID(ctx, "column_id")
	if !ok {
		return
	}

	var body CreateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := h.tasks.Create(columnID, userID, body.Title, body.Description, body.AssigneeID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	columnID, ok := parseID(ctx, "column_id")
	if !ok {
		return
	}

	tasks, err := h.tasks.List(columnID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Get(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, ok := parseID(ctx, "task_id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(taskID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Update(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, ok := parseID(ctx, "task_id")
	if !ok {
		return
	}

	var body UpdateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := h.tasks.Update(taskID, userID, services.TaskUpdate{
		Title:       body.Title,
		Description: body.Description,
		AssigneeID:  body.AssigneeID,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, ok := parseID(ctx, "task_id")
	if !ok {
		return
	}

	if err := h.tasks.Remove(taskID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *TaskHandler) Move(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, ok := parseID(ctx, "task_id")
	if !ok {
		return
	}

	var body MoveTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := h.tasks.Move(taskID, userID, body.ColumnID, *body.Order)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}
