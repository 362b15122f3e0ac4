package services

import (
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/corkboard-dev/corkboard/internal/access"
	"github.com/corkboard-dev/corkboard/internal/apperrors"
	"github.com/corkboard-dev/corkboard/internal/models"
	"github.com/corkboard-dev/corkboard/internal/types"
)

// ProjectUpdate carries a partial project update. Name ignores empty values;
// an explicit null description clears it.
type ProjectUpdate struct {
	Name        types.Optional[string]
	Description types.Optional[string]
}

// ProjectsService coordinates project and participant mutations. Ownership
// rules: the primary owner (Project.OwnerID) always has a participant row,
// cannot be removed or demoted, and can only stop being owner through the
// leave/transfer path.
type ProjectsService struct {
	db       *gorm.DB
	guard    *access.Guard
	events   Broadcaster
	exporter *BacklogExporter
}

func NewProjectsService(db *gorm.DB, guard *access.Guard, events Broadcaster, exporter *BacklogExporter) *ProjectsService {
	return &ProjectsService{db: db, guard: guard, events: events, exporter: exporter}
}

func (s *ProjectsService) loadWithParticipants(id uint) (*models.Project, error) {
	var project models.Project

	err := s.db.Preload("Participants").Preload("Participants.User").Preload("Owner").
		First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Project not found")
	}
	if err != nil {
		return nil, err
	}

	return &project, nil
}

// Create persists the project and its founding owner participant atomically.
func (s *ProjectsService) Create(ownerID uint, name string, description string) (*types.ProjectResponse, error) {
	project := models.Project{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		return tx.Create(&models.ProjectParticipant{
			UserID:    ownerID,
			ProjectID: project.ID,
			Role:      types.RoleOwner,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	loaded, err := s.loadWithParticipants(project.ID)
	if err != nil {
		return nil, err
	}

	resp := projectResponse(*loaded)
	return &resp, nil
}

// List returns every project the user participates in, newest first.
func (s *ProjectsService) List(userID uint) ([]types.ProjectResponse, error) {
	var projects []models.Project

	err := s.db.
		Joins("JOIN project_participants ON project_participants.project_id = projects.id").
		Where("project_participants.user_id = ?", userID).
		Order("projects.created_at DESC").
		Preload("Owner").
		Preload("Participants").
		Preload("Participants.User").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	out := make([]types.ProjectResponse, len(projects))
	for i, p := range projects {
		out[i] = projectResponse(p)
	}

	return out, nil
}

// Get returns the full board: participants plus columns with their ordered
// tasks and assignee summaries.
func (s *ProjectsService) Get(id uint, userID uint) (*types.ProjectResponse, error) {
	var project models.Project

	err := s.db.
		Preload("Owner").
		Preload("Participants").
		Preload("Participants.User").
		Preload("Columns", func(db *gorm.DB) *gorm.DB { return db.Order(`"order" ASC`) }).
		Preload("Columns.Tasks", orderedTasks).
		Preload("Columns.Tasks.Assignee").
		First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Project not found")
	}
	if err != nil {
		return nil, err
	}

	isParticipant := false
	for _, p := range project.Participants {
		if p.UserID == userID {
			isParticipant = true
			break
		}
	}
	if !isParticipant {
		return nil, apperrors.Forbidden("You do not have access to this project")
	}

	resp := projectResponse(project)
	return &resp, nil
}

// Update writes only the fields present in the request. Primary owner only.
func (s *ProjectsService) Update(id uint, userID uint, update ProjectUpdate) (*types.ProjectResponse, error) {
	project, err := s.loadWithParticipants(id)
	if err != nil {
		return nil, err
	}

	if project.OwnerID != userID {
		return nil, apperrors.Forbidden("Only the owner can update the project")
	}

	updates := make(map[string]any)

	if update.Name.Set && update.Name.Valid && update.Name.Value != "" {
		updates["name"] = update.Name.Value
	}
	if update.Description.Set {
		if update.Description.Valid {
			updates["description"] = update.Description.Value
		} else {
			updates["description"] = ""
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	loaded, err := s.loadWithParticipants(id)
	if err != nil {
		return nil, err
	}

	resp := projectResponse(*loaded)
	s.events.ToProject(id, EventProjectUpdated, resp)

	return &resp, nil
}

// Delete removes the project and, by cascade, its participants, columns and
// tasks. Primary owner only.
func (s *ProjectsService) Delete(id uint, userID uint) error {
	project, err := s.loadWithParticipants(id)
	if err != nil {
		return err
	}

	if project.OwnerID != userID {
		return apperrors.Forbidden("Only the owner can delete the project")
	}

	return s.db.Delete(&models.Project{}, id).Error
}

// AddParticipant registers an existing user, matched by email, as a project
// participant. Owners only.
func (s *ProjectsService) AddParticipant(projectID uint, actorID uint, email string, role string) (*types.ParticipantResponse, error) {
	project, err := s.loadWithParticipants(projectID)
	if err != nil {
		return nil, err
	}

	if !s.guard.IsOwner(project, actorID) {
		return nil, apperrors.Forbidden("Only owners can add participants")
	}

	if role == "" {
		role = types.RoleMember
	}
	if !types.ValidRole(role) {
		return nil, apperrors.BadRequest("Invalid role")
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, err
	}

	for _, p := range project.Participants {
		if p.UserID == user.ID {
			return nil, apperrors.BadRequest("User is already a participant of this project")
		}
	}

	participant := models.ProjectParticipant{
		UserID:    user.ID,
		ProjectID: projectID,
		Role:      role,
	}

	if err := s.db.Create(&participant).Error; err != nil {
		return nil, err
	}

	participant.User = user
	resp := participantResponse(participant)
	s.events.ToProject(projectID, EventParticipantAdded, resp)

	return &resp, nil
}

// RemoveParticipant expels a participant. The primary owner can never be
// removed this way; ownership must be transferred via Leave first. The
// removed user gets a direct realtime event plus a persisted notification,
// since their client may not be subscribed to the project room anymore.
func (s *ProjectsService) RemoveParticipant(projectID uint, actorID uint, participantUserID uint) error {
	project, err := s.loadWithParticipants(projectID)
	if err != nil {
		return err
	}

	if !s.guard.IsOwner(project, actorID) {
		return apperrors.Forbidden("Only owners can remove participants")
	}

	if participantUserID == project.OwnerID {
		return apperrors.BadRequest("Cannot remove the project owner")
	}

	var row *models.ProjectParticipant
	for i := range project.Participants {
		if project.Participants[i].UserID == participantUserID {
			row = &project.Participants[i]
			break
		}
	}
	if row == nil {
		return apperrors.NotFound("Participant not found")
	}

	payload, err := json.Marshal(types.RemovedFromProjectEvent{
		ProjectID:   projectID,
		ProjectName: project.Name,
	})
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ProjectParticipant{}, row.ID).Error; err != nil {
			return err
		}

		return tx.Create(&models.Notification{
			UserID:  participantUserID,
			Type:    EventUserRemoved,
			Payload: datatypes.JSON(payload),
		}).Error
	})
	if err != nil {
		return err
	}

	s.events.ToProject(projectID, EventParticipantRemoved, types.ParticipantRemovedEvent{
		UserID:    participantUserID,
		ProjectID: projectID,
	})
	s.events.ToUser(participantUserID, EventUserRemoved, types.RemovedFromProjectEvent{
		ProjectID:   projectID,
		ProjectName: project.Name,
	})

	return nil
}

// UpdateParticipantRole changes a participant's role. Owners only; the
// primary owner cannot be demoted below OWNER.
func (s *ProjectsService) UpdateParticipantRole(projectID uint, actorID uint, participantUserID uint, role string) (*types.ParticipantResponse, error) {
	project, err := s.loadWithParticipants(projectID)
	if err != nil {
		return nil, err
	}

	if !s.guard.IsOwner(project, actorID) {
		return nil, apperrors.Forbidden("Only owners can change roles")
	}

	if !types.ValidRole(role) {
		return nil, apperrors.BadRequest("Invalid role")
	}

	if participantUserID == project.OwnerID && role != types.RoleOwner {
		return nil, apperrors.BadRequest("Cannot demote the project owner")
	}

	var row *models.ProjectParticipant
	for i := range project.Participants {
		if project.Participants[i].UserID == participantUserID {
			row = &project.Participants[i]
			break
		}
	}
	if row == nil {
		return nil, apperrors.NotFound("Participant not found")
	}

	if err := s.db.Model(&models.ProjectParticipant{}).
		Where("id = ?", row.ID).
		Update("role", role).Error; err != nil {
		return nil, err
	}

	row.Role = role
	resp := participantResponse(*row)

	return &resp, nil
}

// Leave removes the caller from the project. The primary owner must hand off
// first: to an explicit successor, else to the first other OWNER-role
// participant; with nobody to hand off to, the project is deleted outright.
// Returns true when the project was deleted as a side effect.
func (s *ProjectsService) Leave(projectID uint, userID uint, successorID *uint) (bool, error) {
	project, err := s.loadWithParticipants(projectID)
	if err != nil {
		return false, err
	}

	var me *models.ProjectParticipant
	others := make([]models.ProjectParticipant, 0, len(project.Participants))
	for i := range project.Participants {
		if project.Participants[i].UserID == userID {
			me = &project.Participants[i]
		} else {
			others = append(others, project.Participants[i])
		}
	}
	if me == nil {
		return false, apperrors.Forbidden("You are not part of this project")
	}

	if project.OwnerID == userID {
		if len(others) == 0 {
			return true, s.db.Delete(&models.Project{}, projectID).Error
		}

		var successor *models.ProjectParticipant
		if successorID != nil {
			for i := range others {
				if others[i].UserID == *successorID {
					successor = &others[i]
					break
				}
			}
			if successor == nil {
				return false, apperrors.BadRequest("The new owner must be a participant of this project")
			}
		} else {
			for i := range others {
				if others[i].Role == types.RoleOwner {
					successor = &others[i]
					break
				}
			}
			if successor == nil {
				return true, s.db.Delete(&models.Project{}, projectID).Error
			}
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Project{}).Where("id = ?", projectID).
				Update("owner_id", successor.UserID).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.ProjectParticipant{}).Where("id = ?", successor.ID).
				Update("role", types.RoleOwner).Error; err != nil {
				return err
			}

			return tx.Delete(&models.ProjectParticipant{}, me.ID).Error
		})
		if err != nil {
			return false, err
		}

		s.events.ToProject(projectID, EventParticipantRemoved, types.ParticipantRemovedEvent{
			UserID:    userID,
			ProjectID: projectID,
		})

		return false, nil
	}

	if me.Role == types.RoleOwner {
		ownerRows := 0
		for _, p := range project.Participants {
			if p.Role == types.RoleOwner {
				ownerRows++
			}
		}
		if ownerRows == 1 {
			return false, apperrors.BadRequest("You cannot leave as the only owner. Assign another owner first.")
		}
	}

	if err := s.db.Delete(&models.ProjectParticipant{}, me.ID).Error; err != nil {
		return false, err
	}

	s.events.ToProject(projectID, EventParticipantRemoved, types.ParticipantRemovedEvent{
		UserID:    userID,
		ProjectID: projectID,
	})

	return false, nil
}

// ExportBacklog flattens the board into a task list and hands it to the
// export webhook. Requires participant access via Get.
func (s *ProjectsService) ExportBacklog(projectID uint, userID uint, email string) (int, error) {
	board, err := s.Get(projectID, userID)
	if err != nil {
		return 0, err
	}

	if s.exporter == nil {
		return 0, apperrors.Unavailable("Backlog export is not configured")
	}

	count, err := s.exporter.Send(board, userID, email)
	if err != nil {
		return 0, apperrors.Unavailable("Failed to start the export")
	}

	return count, nil
}
