package services

import (
	"github.com/corkboard-dev/corkboard/internal/models"
	"github.com/corkboard-dev/corkboard/internal/types"
)

func userResponse(u models.User) types.UserResponse {
	return types.UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func taskResponse(t models.Task) types.TaskResponse {
	resp := types.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Order:       t.Order,
		ColumnID:    t.ColumnID,
	}

	if t.Assignee != nil {
		assignee := userResponse(*t.Assignee)
		resp.Assignee = &assignee
	}

	return resp
}

func taskResponses(tasks []models.Task) []types.TaskResponse {
	out := make([]types.TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = taskResponse(t)
	}
	return out
}

func columnResponse(c models.Column) types.ColumnResponse {
	return types.ColumnResponse{
		ID:        c.ID,
		Title:     c.Title,
		Order:     c.Order,
		ProjectID: c.ProjectID,
		Tasks:     taskResponses(c.Tasks),
	}
}

func columnResponses(columns []models.Column) []types.ColumnResponse {
	out := make([]types.ColumnResponse, len(columns))
	for i, c := range columns {
		out[i] = columnResponse(c)
	}
	return out
}

func participantResponse(p models.ProjectParticipant) types.ParticipantResponse {
	return types.ParticipantResponse{
		UserID:    p.UserID,
		ProjectID: p.ProjectID,
		Role:      p.Role,
		User:      userResponse(p.User),
	}
}

func projectResponse(p models.Project) types.ProjectResponse {
	resp := types.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		Owner:       userResponse(p.Owner),
		Columns:     columnResponses(p.Columns),
	}

	resp.Participants = make([]types.ParticipantResponse, len(p.Participants))
	for i, participant := range p.Participants {
		resp.Participants[i] = participantResponse(participant)
	}

	return resp
}
