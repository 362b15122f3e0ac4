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

// orderedTasks is the preload scope keeping task lists sorted by order.
func orderedTasks(db *gorm.DB) *gorm.DB {
	return db.Order(`"order" ASC`)
}

// ColumnsService coordinates column mutations: it authorizes the actor,
// computes order adjustments, persists them atomically and broadcasts the
// result to the project room.
type ColumnsService struct {
	db     *gorm.DB
	guard  *access.Guard
	events Broadcaster
}

func NewColumnsService(db *gorm.DB, guard *access.Guard, events Broadcaster) *ColumnsService {
	return &ColumnsService{db: db, guard: guard, events: events}
}

func (s *ColumnsService) authorize(projectID uint, userID uint) error {
	ok, err := s.guard.IsParticipant(projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("You do not have access to this project")
	}
	return nil
}

func (s *ColumnsService) load(id uint) (*models.Column, error) {
	var column models.Column

	err := s.db.First(&column, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Column not found")
	}
	if err != nil {
		return nil, err
	}

	return &column, nil
}

// Create appends a column at the end of the project's board.
func (s *ColumnsService) Create(projectID uint, actorID uint, title string) (*types.ColumnResponse, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Project not found")
		}
		return nil, err
	}

	if err := s.authorize(projectID, actorID); err != nil {
		return nil, err
	}

	var last models.Column
	err := s.db.Where("project_id = ?", projectID).Order(`"order" DESC`).First(&last).Error
	empty := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !empty {
		return nil, err
	}

	column := models.Column{
		ProjectID: projectID,
		Title:     title,
		Order:     ordering.Next(last.Order, empty),
	}

	if err := s.db.Create(&column).Error; err != nil {
		return nil, err
	}

	resp := columnResponse(column)
	s.events.ToProject(projectID, EventColumnCreated, resp)

	return &resp, nil
}

// List returns the project's columns ordered ascending, tasks included.
func (s *ColumnsService) List(projectID uint, actorID uint) ([]types.ColumnResponse, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Project not found")
		}
		return nil, err
	}

	if err := s.authorize(projectID, actorID); err != nil {
		return nil, err
	}

	columns, err := s.sortedColumns(projectID)
	if err != nil {
		return nil, err
	}

	return columnResponses(columns), nil
}

func (s *ColumnsService) sortedColumns(projectID uint) ([]models.Column, error) {
	var columns []models.Column

	err := s.db.Where("project_id = ?", projectID).
		Order(`"order" ASC`).
		Preload("Tasks", orderedTasks).
		Preload("Tasks.Assignee").
		Find(&columns).Error

	return columns, err
}

func (s *ColumnsService) Get(id uint, actorID uint) (*types.ColumnResponse, error) {
	column, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(column.ProjectID, actorID); err != nil {
		return nil, err
	}

	if err := s.db.Preload("Tasks", orderedTasks).Preload("Tasks.Assignee").
		First(column, id).Error; err != nil {
		return nil, err
	}

	resp := columnResponse(*column)
	return &resp, nil
}

func (s *ColumnsService) Update(id uint, actorID uint, title string) (*types.ColumnResponse, error) {
	column, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(column.ProjectID, actorID); err != nil {
		return nil, err
	}

	if err := s.db.Model(column).Update("title", title).Error; err != nil {
		return nil, err
	}

	if err := s.db.Preload("Tasks", orderedTasks).Preload("Tasks.Assignee").
		First(column, id).Error; err != nil {
		return nil, err
	}

	resp := columnResponse(*column)
	s.events.ToProject(column.ProjectID, EventColumnUpdated, resp)

	return &resp, nil
}

// Remove deletes the column and its tasks. Surviving siblings keep their
// order values: deletion leaves gaps, only moves renumber.
func (s *ColumnsService) Remove(id uint, actorID uint) error {
	column, err := s.load(id)
	if err != nil {
		return err
	}

	if err := s.authorize(column.ProjectID, actorID); err != nil {
		return err
	}

	if err := s.db.Delete(column).Error; err != nil {
		return err
	}

	s.events.ToProject(column.ProjectID, EventColumnDeleted, types.EntityDeletedEvent{ID: id})

	return nil
}

// Reorder moves the column to newOrder within its project. All sibling
// adjustments and the column's own write commit in one transaction, then the
// project room receives the full freshly-sorted column list so subscribers
// can resync without re-fetching.
func (s *ColumnsService) Reorder(id uint, actorID uint, newOrder int) (*types.ColumnResponse, error) {
	column, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(column.ProjectID, actorID); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		shifts := ordering.Reorder(column.Order, newOrder)
		if err := applyShifts(tx, &models.Column{}, "project_id", column.ProjectID, shifts...); err != nil {
			return err
		}

		return tx.Model(&models.Column{}).Where("id = ?", id).
			UpdateColumn("order", newOrder).Error
	})
	if err != nil {
		return nil, err
	}

	columns, err := s.sortedColumns(column.ProjectID)
	if err != nil {
		return nil, err
	}

	s.events.ToProject(column.ProjectID, EventProjectUpdated, map[string]any{
		"columns": columnResponses(columns),
	})

	for _, c := range columns {
		if c.ID == id {
			resp := columnResponse(c)
			s.events.ToProject(column.ProjectID, EventColumnUpdated, resp)
			return &resp, nil
		}
	}

	return nil, apperrors.NotFound("Column not found")
}
