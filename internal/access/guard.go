// Package access answers the two authorization questions every mutation asks:
// is this user a participant of the project, and is this user an owner.
package access

import (
	"gorm.io/gorm"

	"github.com/corkboard-dev/corkboard/internal/models"
	"github.com/corkboard-dev/corkboard/internal/types"
)

type Guard struct {
	db *gorm.DB
}

func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// IsParticipant reports whether userID has a participant row for projectID.
func (g *Guard) IsParticipant(projectID uint, userID uint) (bool, error) {
	var count int64

	err := g.db.Model(&models.ProjectParticipant{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// IsOwner reports whether userID is the project's primary owner or holds an
// OWNER-role participant row. The project's Participants must be loaded.
func (g *Guard) IsOwner(project *models.Project, userID uint) bool {
	if project.OwnerID == userID {
		return true
	}

	for _, p := range project.Participants {
		if p.UserID == userID && p.Role == types.RoleOwner {
			return true
		}
	}

	return false
}
