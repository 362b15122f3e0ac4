package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/corkboard-dev/corkboard/internal/access"
	"github.com/corkboard-dev/corkboard/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A fresh connection would see a fresh in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectParticipant{},
		&models.Column{},
		&models.Task{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

// recorder is a Broadcaster that captures emitted events for assertions.
type recordedEvent struct {
	ProjectID uint
	UserID    uint
	Event     string
	Payload   any
}

type recorder struct {
	events []recordedEvent
}

func (r *recorder) ToProject(projectID uint, event string, payload any) {
	r.events = append(r.events, recordedEvent{ProjectID: projectID, Event: event, Payload: payload})
}

func (r *recorder) ToUser(userID uint, event string, payload any) {
	r.events = append(r.events, recordedEvent{UserID: userID, Event: event, Payload: payload})
}

func (r *recorder) last(t *testing.T) recordedEvent {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatal("expected at least one broadcast event")
	}
	return r.events[len(r.events)-1]
}

func (r *recorder) find(event string) (recordedEvent, bool) {
	for _, e := range r.events {
		if e.Event == event {
			return e, true
		}
	}
	return recordedEvent{}, false
}

type fixture struct {
	db       *gorm.DB
	guard    *access.Guard
	events   *recorder
	projects *ProjectsService
	columns  *ColumnsService
	tasks    *TasksService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	guard := access.NewGuard(db)
	events := &recorder{}

	return &fixture{
		db:       db,
		guard:    guard,
		events:   events,
		projects: NewProjectsService(db, guard, events, nil),
		columns:  NewColumnsService(db, guard, events),
		tasks:    NewTasksService(db, guard, events),
	}
}

func (f *fixture) user(t *testing.T, name string, email string) *models.User {
	t.Helper()

	user := models.User{Name: name, Email: email, PasswordHash: "x"}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return &user
}

func (f *fixture) project(t *testing.T, owner *models.User) *models.Project {
	t.Helper()

	resp, err := f.projects.Create(owner.ID, "Board", "")
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	var project models.Project
	if err := f.db.First(&project, resp.ID).Error; err != nil {
		t.Fatalf("failed to load project: %v", err)
	}

	return &project
}

func (f *fixture) member(t *testing.T, project *models.Project, user *models.User, role string) {
	t.Helper()

	err := f.db.Create(&models.ProjectParticipant{
		UserID:    user.ID,
		ProjectID: project.ID,
		Role:      role,
	}).Error
	if err != nil {
		t.Fatalf("failed to add participant: %v", err)
	}
}

func (f *fixture) column(t *testing.T, projectID uint, title string, order int) *models.Column {
	t.Helper()

	column := models.Column{ProjectID: projectID, Title: title, Order: order}
	if err := f.db.Create(&column).Error; err != nil {
		t.Fatalf("failed to create column: %v", err)
	}

	return &column
}

func (f *fixture) task(t *testing.T, columnID uint, title string, order int) *models.Task {
	t.Helper()

	task := models.Task{ColumnID: columnID, Title: title, Order: order}
	if err := f.db.Create(&task).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return &task
}

// columnOrders maps column title to order for one project.
func (f *fixture) columnOrders(t *testing.T, projectID uint) map[string]int {
	t.Helper()

	var columns []models.Column
	if err := f.db.Where("project_id = ?", projectID).Find(&columns).Error; err != nil {
		t.Fatalf("failed to load columns: %v", err)
	}

	out := make(map[string]int, len(columns))
	for _, c := range columns {
		out[c.Title] = c.Order
	}

	return out
}

// taskOrders maps task title to order for one column.
func (f *fixture) taskOrders(t *testing.T, columnID uint) map[string]int {
	t.Helper()

	var tasks []models.Task
	if err := f.db.Where("column_id = ?", columnID).Find(&tasks).Error; err != nil {
		t.Fatalf("failed to load tasks: %v", err)
	}

	out := make(map[string]int, len(tasks))
	for _, task := range tasks {
		out[task.Title] = task.Order
	}

	return out
}

func assertOrders(t *testing.T, got map[string]int, want map[string]int) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(got), got)
	}
	for title, order := range want {
		if got[title] != order {
			t.Errorf("expected %q at order %d, got %d", title, order, got[title])
		}
	}
}

var _ Broadcaster = (*recorder)(nil)
