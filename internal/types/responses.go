package types

import "time"

type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TaskResponse struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Order       int           `json:"order"`
	ColumnID    uint          `json:"column_id"`
	Assignee    *UserResponse `json:"assignee"`
}

type ColumnResponse struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Order     int            `json:"order"`
	ProjectID uint           `json:"project_id"`
	Tasks     []TaskResponse `json:"tasks"`
}

type ParticipantResponse struct {
	UserID    uint         `json:"user_id"`
	ProjectID uint         `json:"project_id"`
	Role      string       `json:"role"`
	User      UserResponse `json:"user"`
}

type ProjectResponse struct {
	ID           uint                  `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	OwnerID      uint                  `json:"owner_id"`
	Owner        UserResponse          `json:"owner"`
	Participants []ParticipantResponse `json:"participants"`
	Columns      []ColumnResponse      `json:"columns,omitempty"`
}

type NotificationResponse struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskMovedEvent is the task:moved broadcast payload.
type TaskMovedEvent struct {
	TaskID         uint `json:"taskId"`
	SourceColumnID uint `json:"sourceColumnId"`
	TargetColumnID uint `json:"targetColumnId"`
	NewOrder       int  `json:"newOrder"`
}

// EntityDeletedEvent carries the id of a deleted column or task.
type EntityDeletedEvent struct {
	ID uint `json:"id"`
}

// ParticipantRemovedEvent is the project-room participant:removed payload.
type ParticipantRemovedEvent struct {
	UserID    uint `json:"user_id"`
	ProjectID uint `json:"project_id"`
}

// RemovedFromProjectEvent is the direct user:removed-from-project payload.
type RemovedFromProjectEvent struct {
	ProjectID   uint   `json:"projectId"`
	ProjectName string `json:"projectName"`
}
