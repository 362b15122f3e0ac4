package services

// Broadcast event catalog. Project-room events reach every subscriber of the
// affected project; user:removed-from-project goes straight to one user's
// connections.
const (
	EventProjectUpdated     = "project:updated"
	EventColumnCreated      = "column:created"
	EventColumnUpdated      = "column:updated"
	EventColumnDeleted      = "column:deleted"
	EventTaskCreated        = "task:created"
	EventTaskUpdated        = "task:updated"
	EventTaskMoved          = "task:moved"
	EventTaskDeleted        = "task:deleted"
	EventParticipantAdded   = "participant:added"
	EventParticipantRemoved = "participant:removed"
	EventUserRemoved        = "user:removed-from-project"
)

// Broadcaster fans committed mutations out to connected clients. Delivery is
// fire-and-forget: it runs after the transaction commits and its failures
// never surface to the mutating caller.
type Broadcaster interface {
	ToProject(projectID uint, event string, payload any)
	ToUser(userID uint, event string, payload any)
}
