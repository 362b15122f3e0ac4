package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/corkboard-dev/corkboard/internal/access"
	"github.com/corkboard-dev/corkboard/internal/apperrors"
	"github.com/corkboard-dev/corkboard/internal/models"
	"github.com/corkboard-dev/corkboard/internal/ordering"
	"github.com/corkboard-dev/corkboard/internal/types"
)

// TaskUpdate carries a partial update. A field left unset is untouched; an
// explicit null clears description or assignee.
type TaskUpdate struct {
	Title       types.Optional[string]
	Description types.Optional[string]
	AssigneeID  types.Optional[uint]
}

// TasksService coordinates task mutations, including the move operation that
// relocates a task within or across columns of the same project.
type TasksService struct {
	db     *gorm.DB
	guard  *access.Guard
	events Broadcaster
}

func NewTasksService(db *gorm.DB, guard *access.Guard, events Broadcaster) *TasksService {
	return &TasksService{db: db, guard: guard, events: events}
}

func (s *TasksService) authorize(projectID uint, userID uint) error {
	ok, err := s.guard.IsParticipant(projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("You do not have access to this project")
	}
	return nil
}

// requireAssignee rejects assignees that are not current project participants.
func (s *TasksService) requireAssignee(projectID uint, assigneeID uint) error {
	ok, err := s.guard.IsParticipant(projectID, assigneeID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("Assignee is not a participant of this project")
	}
	return nil
}

func (s *TasksService) load(id uint) (*models.Task, error) {
	var task models.Task

	err := s.db.Preload("Column").First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Task not found")
	}
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *TasksService) reload(id uint) (*types.TaskResponse, error) {
	var task models.Task
	if err := s.db.Preload("Assignee").First(&task, id).Error; err != nil {
		return nil, err
	}

	resp := taskResponse(task)
	return &resp, nil
}

// Create appends a task at the end of the column.
func (s *TasksService) Create(columnID uint, actorID uint, title string, description *string, assigneeID *uint) (*types.TaskResponse, error) {
	var column models.Column
	if err := s.db.First(&column, columnID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Column not found")
		}
		return nil, err
	}

	if err := s.authorize(column.ProjectID, actorID); err != nil {
		return nil, err
	}

	if assigneeID != nil {
		if err := s.requireAssignee(column.ProjectID, *assigneeID); err != nil {
			return nil, err
		}
	}

	var last models.Task
	err := s.db.Where("column_id = ?", columnID).Order(`"order" DESC`).First(&last).Error
	empty := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !empty {
		return nil, err
	}

	task := models.Task{
		ColumnID:    columnID,
		Title:       title,
		Description: description,
		AssigneeID:  assigneeID,
		Order:       ordering.Next(last.Order, empty),
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}

	resp, err := s.reload(task.ID)
	if err != nil {
		return nil, err
	}

	s.events.ToProject(column.ProjectID, EventTaskCreated, resp)

	return resp, nil
}

// List returns the column's tasks ordered ascending, assignees included.
func (s *TasksService) List(columnID uint, actorID uint) ([]types.TaskResponse, error) {
	var column models.Column
	if err := s.db.First(&column, columnID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Column not found")
		}
		return nil, err
	}

	if err := s.authorize(column.ProjectID, actorID); err != nil {
		return nil, err
	}

	var tasks []models.Task
	err := s.db.Where("column_id = ?", columnID).
		Order(`"order" ASC`).
		Preload("Assignee").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return taskResponses(tasks), nil
}

func (s *TasksService) Get(id uint, actorID uint) (*types.TaskResponse, error) {
	task, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(task.Column.ProjectID, actorID); err != nil {
		return nil, err
	}

	return s.reload(id)
}

// Update writes only the fields present in the request. Setting a non-null
// assignee re-validates project membership.
func (s *TasksService) Update(id uint, actorID uint, update TaskUpdate) (*types.TaskResponse, error) {
	task, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(task.Column.ProjectID, actorID); err != nil {
		return nil, err
	}

	if update.AssigneeID.Set && update.AssigneeID.Valid {
		if err := s.requireAssignee(task.Column.ProjectID, update.AssigneeID.Value); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]any)

	if update.Title.Set && update.Title.Valid && update.Title.Value != "" {
		updates["title"] = update.Title.Value
	}
	if update.Description.Set {
		if update.Description.Valid {
			updates["description"] = update.Description.Value
		} else {
			updates["description"] = nil
		}
	}
	if update.AssigneeID.Set {
		if update.AssigneeID.Valid {
			updates["assignee_id"] = update.AssigneeID.Value
		} else {
			updates["assignee_id"] = nil
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(task).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	resp, err := s.reload(id)
	if err != nil {
		return nil, err
	}

	s.events.ToProject(task.Column.ProjectID, EventTaskUpdated, resp)

	return resp, nil
}

// Remove deletes the task without renumbering surviving siblings.
func (s *TasksService) Remove(id uint, actorID uint) error {
	task, err := s.load(id)
	if err != nil {
		return err
	}

	if err := s.authorize(task.Column.ProjectID, actorID); err != nil {
		return err
	}

	if err := s.db.Delete(&models.Task{}, id).Error; err != nil {
		return err
	}

	s.events.ToProject(task.Column.ProjectID, EventTaskDeleted, types.EntityDeletedEvent{ID: id})

	return nil
}

// Move relocates the task to newOrder in targetColumnID, which may be its
// current column (pure reorder) or another column of the same project.
// Sibling adjustments in both containers and the task's own write commit as
// one transaction, so readers never observe a partially renumbered column.
func (s *TasksService) Move(id uint, actorID uint, targetColumnID uint, newOrder int) (*types.TaskResponse, error) {
	task, err := s.load(id)
	if err != nil {
		return nil, err
	}

	var target models.Column
	if err := s.db.First(&target, targetColumnID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Target column not found")
		}
		return nil, err
	}

	if task.Column.ProjectID != target.ProjectID {
		return nil, apperrors.Forbidden("Cannot move a task to a different project")
	}

	if err := s.authorize(task.Column.ProjectID, actorID); err != nil {
		return nil, err
	}

	sourceColumnID := task.ColumnID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if sourceColumnID == targetColumnID {
			shifts := ordering.Reorder(task.Order, newOrder)
			if err := applyShifts(tx, &models.Task{}, "column_id", sourceColumnID, shifts...); err != nil {
				return err
			}
		} else {
			if err := applyShifts(tx, &models.Task{}, "column_id", sourceColumnID,
				ordering.CloseGap(task.Order)); err != nil {
				return err
			}
			if err := applyShifts(tx, &models.Task{}, "column_id", targetColumnID,
				ordering.OpenSlot(newOrder)); err != nil {
				return err
			}
		}

		return tx.Model(&models.Task{}).Where("id = ?", id).
			UpdateColumns(map[string]any{
				"column_id": targetColumnID,
				"order":     newOrder,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	s.events.ToProject(task.Column.ProjectID, EventTaskMoved, types.TaskMovedEvent{
		TaskID:         id,
		SourceColumnID: sourceColumnID,
		TargetColumnID: targetColumnID,
		NewOrder:       newOrder,
	})

	return s.reload(id)
}
