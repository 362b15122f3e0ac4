package services

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/corkboard-dev/corkboard/internal/apperrors"
	"github.com/corkboard-dev/corkboard/internal/models"
	"github.com/corkboard-dev/corkboard/internal/types"
)

func TestCreateProjectAddsOwnerParticipant(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada", "ada@example.com")

	resp, err := f.projects.Create(owner.ID, "Board", "the plan")
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	if resp.OwnerID != owner.ID {
		t.Errorf("expected owner %d, got %d", owner.ID, resp.OwnerID)
	}
	if len(resp.Participants) != 1 {
		t.Fatalf("expected one participant, got %d", len(resp.Participants))
	}
	if resp.Participants[0].UserID != owner.ID || resp.Participants[0].Role != types.RoleOwner {
		t.Errorf("expected owner participant with OWNER role, got %+v", resp.Participants[0])
	}
}

func TestGetProjectRequiresParticipation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada", "ada@example.com")
	outsider := f.user(t, "Eve", "eve@example.com")
	project := f.project(t, owner)

	if _, err := f.projects.Get(project.ID, owner.ID); err != nil {
		t.Fatalf("owner should see the project: %v", err)
	}

	_, err := f.projects.Get(project.ID, outsider.ID)
	if !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	_, err = f.projects.Get(9999, owner.ID)
	if !apperrors.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListProjectsOnlyMine(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")

	mine := f.project(t, ada)
	f.project(t, bob)

	projects, err := f.projects.List(ada.ID)
	if err != nil {
		t.Fatalf("failed to list projects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != mine.ID {
		t.Fatalf("expected exactly project %d, got %+v", mine.ID, projects)
	}
}

func TestUpdateProjectOwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada", "ada@example.com")
	member := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, owner)
	f.member(t, project, member, types.RoleMember)

	_, err := f.projects.Update(project.ID, member.ID, ProjectUpdate{
		Name: types.Some("renamed"),
	})
	if !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	resp, err := f.projects.Update(project.ID, owner.ID, ProjectUpdate{
		Name:        types.Some("renamed"),
		Description: types.Null[string](),
	})
	if err != nil {
		t.Fatalf("failed to update project: %v", err)
	}
	if resp.Name != "renamed" || resp.Description != "" {
		t.Errorf("unexpected project after update: %+v", resp)
	}

	event := f.events.last(t)
	if event.Event != EventProjectUpdated {
		t.Errorf("expected %s, got %s", EventProjectUpdated, event.Event)
	}
}

func TestAddParticipant(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, owner)

	participant, err := f.projects.AddParticipant(project.ID, owner.ID, "bob@example.com", "")
	if err != nil {
		t.Fatalf("failed to add participant: %v", err)
	}
	if participant.UserID != bob.ID || participant.Role != types.RoleMember {
		t.Errorf("expected bob as MEMBER, got %+v", participant)
	}

	event := f.events.last(t)
	if event.Event != EventParticipantAdded {
		t.Errorf("expected %s, got %s", EventParticipantAdded, event.Event)
	}

	_, err = f.projects.AddParticipant(project.ID, owner.ID, "bob@example.com", "")
	if !apperrors.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected bad request for duplicate, got %v", err)
	}

	_, err = f.projects.AddParticipant(project.ID, owner.ID, "nobody@example.com", "")
	if !apperrors.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected not found for unknown email, got %v", err)
	}

	_, err = f.projects.AddParticipant(project.ID, bob.ID, "ada@example.com", "")
	if !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected forbidden for non-owner actor, got %v", err)
	}

	_, err = f.projects.AddParticipant(project.ID, owner.ID, "bob@example.com", "ADMIN")
	if !apperrors.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected bad request for invalid role, got %v", err)
	}
}

func TestRemoveParticipantNotifiesUser(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, owner)
	f.member(t, project, bob, types.RoleMember)

	if err := f.projects.RemoveParticipant(project.ID, owner.ID, bob.ID); err != nil {
		t.Fatalf("failed to remove participant: %v", err)
	}

	var count int64
	f.db.Model(&models.ProjectParticipant{}).
		Where("project_id = ? AND user_id = ?", project.ID, bob.ID).
		Count(&count)
	if count != 0 {
		t.Error("expected participant row deleted")
	}

	if _, ok := f.events.find(EventParticipantRemoved); !ok {
		t.Errorf("expected %s broadcast", EventParticipantRemoved)
	}
	direct, ok := f.events.find(EventUserRemoved)
	if !ok {
		t.Fatalf("expected %s sent to the removed user", EventUserRemoved)
	}
	if direct.UserID != bob.ID {
		t.Errorf("expected direct event for user %d, got %d", bob.ID, direct.UserID)
	}

	// Offline fallback: the removal is also stored as a notification.
	var notification models.Notification
	if err := f.db.Where("user_id = ?", bob.ID).First(&notification).Error; err != nil {
		t.Fatalf("expected stored notification: %v", err)
	}
	if notification.Type != EventUserRemoved {
		t.Errorf("expected type %s, got %s", EventUserRemoved, notification.Type)
	}
	var payload types.RemovedFromProjectEvent
	if err := json.Unmarshal(notification.Payload, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.ProjectID != project.ID || payload.ProjectName != "Board" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestRemoveParticipantProtectsOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, owner)
	f.member(t, project, bob, types.RoleMember)

	err := f.projects.RemoveParticipant(project.ID, owner.ID, owner.ID)
	if !apperrors.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}

	err = f.projects.RemoveParticipant(project.ID, bob.ID, owner.ID)
	if !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateParticipantRole(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, owner)
	f.member(t, project, bob, types.RoleMember)

	participant, err := f.projects.UpdateParticipantRole(project.ID, owner.ID, bob.ID, types.RoleOwner)
	if err != nil {
		t.Fatalf("failed to update role: %v", err)
	}
	if participant.Role != types.RoleOwner {
		t.Errorf("expected OWNER, got %s", participant.Role)
	}

	_, err = f.projects.UpdateParticipantRole(project.ID, owner.ID, owner.ID, types.RoleMember)
	if !apperrors.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected bad request demoting the primary owner, got %v", err)
	}
}

func TestLeaveTransfersOwnership(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, ada)
	f.member(t, project, bob, types.RoleMember)

	deleted, err := f.projects.Leave(project.ID, ada.ID, &bob.ID)
	if err != nil {
		t.Fatalf("failed to leave: %v", err)
	}
	if deleted {
		t.Fatal("project should survive the handoff")
	}

	var reloaded models.Project
	if err := f.db.Preload("Participants").First(&reloaded, project.ID).Error; err != nil {
		t.Fatalf("failed to reload project: %v", err)
	}
	if reloaded.OwnerID != bob.ID {
		t.Errorf("expected owner %d, got %d", bob.ID, reloaded.OwnerID)
	}
	if len(reloaded.Participants) != 1 {
		t.Fatalf("expected one participant, got %d", len(reloaded.Participants))
	}
	if reloaded.Participants[0].UserID != bob.ID || reloaded.Participants[0].Role != types.RoleOwner {
		t.Errorf("expected bob promoted to OWNER, got %+v", reloaded.Participants[0])
	}
}

func TestLeaveRejectsUnknownSuccessor(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "Ada", "ada@example.com")
	eve := f.user(t, "Eve", "eve@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, ada)
	f.member(t, project, bob, types.RoleMember)

	_, err := f.projects.Leave(project.ID, ada.ID, &eve.ID)
	if !apperrors.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestLeaveSoleParticipantDeletesProject(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "Ada", "ada@example.com")
	project := f.project(t, ada)
	column := f.column(t, project.ID, "Todo", 0)
	f.task(t, column.ID, "t0", 0)

	deleted, err := f.projects.Leave(project.ID, ada.ID, nil)
	if err != nil {
		t.Fatalf("failed to leave: %v", err)
	}
	if !deleted {
		t.Fatal("expected project deletion")
	}

	var projectCount, columnCount, taskCount int64
	f.db.Model(&models.Project{}).Where("id = ?", project.ID).Count(&projectCount)
	f.db.Model(&models.Column{}).Where("project_id = ?", project.ID).Count(&columnCount)
	f.db.Model(&models.Task{}).Where("column_id = ?", column.ID).Count(&taskCount)
	if projectCount != 0 || columnCount != 0 || taskCount != 0 {
		t.Errorf("expected full cascade, got project=%d column=%d task=%d",
			projectCount, columnCount, taskCount)
	}
}

func TestLeaveAutoPromotesCoOwner(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, ada)
	f.member(t, project, bob, types.RoleOwner)

	deleted, err := f.projects.Leave(project.ID, ada.ID, nil)
	if err != nil {
		t.Fatalf("failed to leave: %v", err)
	}
	if deleted {
		t.Fatal("project should survive when a co-owner remains")
	}

	var reloaded models.Project
	if err := f.db.First(&reloaded, project.ID).Error; err != nil {
		t.Fatalf("failed to reload project: %v", err)
	}
	if reloaded.OwnerID != bob.ID {
		t.Errorf("expected ownership handed to %d, got %d", bob.ID, reloaded.OwnerID)
	}
}

func TestMemberLeaves(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "Ada", "ada@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, ada)
	f.member(t, project, bob, types.RoleMember)

	deleted, err := f.projects.Leave(project.ID, bob.ID, nil)
	if err != nil {
		t.Fatalf("failed to leave: %v", err)
	}
	if deleted {
		t.Fatal("project should survive a member leaving")
	}

	ok, err := f.guard.IsParticipant(project.ID, bob.ID)
	if err != nil {
		t.Fatalf("guard failed: %v", err)
	}
	if ok {
		t.Error("expected bob gone from the project")
	}
}

func TestDeleteProjectOwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada", "ada@example.com")
	member := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, owner)
	f.member(t, project, member, types.RoleMember)

	err := f.projects.Delete(project.ID, member.ID)
	if !apperrors.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if err := f.projects.Delete(project.ID, owner.ID); err != nil {
		t.Fatalf("failed to delete project: %v", err)
	}

	_, err = f.projects.Get(project.ID, owner.ID)
	if !apperrors.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
