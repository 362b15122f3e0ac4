package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/corkboard-dev/corkboard/internal/types"
)

// BacklogTask is one flattened row of an exported board.
type BacklogTask struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Column      string  `json:"column"`
	Order       int     `json:"order"`
	Assignee    *string `json:"assignee"`
}

// BacklogExportRequest is the payload posted to the export webhook.
type BacklogExportRequest struct {
	ProjectID   uint          `json:"project_id"`
	ProjectName string        `json:"project_name"`
	RequestedBy uint          `json:"requested_by"`
	Email       string        `json:"email,omitempty"`
	ExportedAt  string        `json:"exported_at"`
	Tasks       []BacklogTask `json:"tasks"`
}

// BacklogExporter posts flattened board snapshots to an external webhook.
// The URL comes from EXPORT_WEBHOOK_URL; a nil exporter means the feature
// is switched off.
type BacklogExporter struct {
	webhookURL string
}

func NewBacklogExporter(webhookURL string) *BacklogExporter {
	if webhookURL == "" {
		return nil
	}

	return &BacklogExporter{webhookURL: webhookURL}
}

// Send flattens the board column by column, in board order, and delivers it.
// Returns the number of exported tasks.
func (e *BacklogExporter) Send(board *types.ProjectResponse, requestedBy uint, email string) (int, error) {
	tasks := []BacklogTask{}
	for _, column := range board.Columns {
		for _, task := range column.Tasks {
			row := BacklogTask{
				ID:          task.ID,
				Title:       task.Title,
				Description: task.Description,
				Column:      column.Title,
				Order:       task.Order,
			}
			if task.Assignee != nil {
				name := task.Assignee.Name
				row.Assignee = &name
			}
			tasks = append(tasks, row)
		}
	}

	payload := BacklogExportRequest{
		ProjectID:   board.ID,
		ProjectName: board.Name,
		RequestedBy: requestedBy,
		Email:       email,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Tasks:       tasks,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal export payload: %w", err)
	}

	resp, err := http.Post(e.webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return 0, fmt.Errorf("failed to send export webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("export webhook returned status %d", resp.StatusCode)
	}

	return len(tasks), nil
}
