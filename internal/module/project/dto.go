package project

import (
	"time"

	"github.com/google/uuid"
)

// RegisterTeamRequest creates a project with the caller as Lead and one
// pending invitation per email.
type RegisterTeamRequest struct {
	Name         string   `json:"name" binding:"required"`
	TeamName     string   `json:"team_name" binding:"required"`
	Description  string   `json:"description"`
	MemberEmails []string `json:"member_emails" binding:"required"`
}

// CreateTaskRequest adds a task. Lead only.
type CreateTaskRequest struct {
	Title      string     `json:"title" binding:"required"`
	AssigneeID *uuid.UUID `json:"assignee_id"`
	DueDate    string     `json:"due_date"`
}

// UpdateTaskRequest edits a task. Lead only; nil fields are unchanged.
type UpdateTaskRequest struct {
	Title      *string     `json:"title"`
	AssigneeID *uuid.UUID  `json:"assignee_id"`
	DueDate    *string     `json:"due_date"`
	Status     *TaskStatus `json:"status"`
}

// AddCommentRequest appends a comment to a task.
type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// SaveReportRequest updates the report draft.
type SaveReportRequest struct {
	Report string `json:"report"`
}

// SubmitReportRequest is the two-step confirmation of submission.
type SubmitReportRequest struct {
	Confirm bool `json:"confirm"`
}

// AddFileRequest attaches a file or link entry to the report.
type AddFileRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
	Size string `json:"size"`
}

// UpdateProjectMetaRequest is the admin rename operation.
type UpdateProjectMetaRequest struct {
	Name     *string `json:"name"`
	TeamName *string `json:"team_name"`
}

// SaveEvaluationRequest is the admin grading operation. Score is
// derived from the breakdown server-side.
type SaveEvaluationRequest struct {
	Feedback  string    `json:"feedback" binding:"required"`
	Breakdown Breakdown `json:"breakdown" binding:"required"`
}

// ProjectSummary is the directory-listing form of a project.
type ProjectSummary struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	TeamName     string           `json:"team_name"`
	Supervisor   string           `json:"supervisor,omitempty"`
	MemberCount  int              `json:"member_count"`
	ReportStatus ReportStatus     `json:"report_status"`
	EvalStatus   EvaluationStatus `json:"eval_status"`
	EvalScore    int              `json:"eval_score"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ToSummary converts a project to its directory-listing form.
func (p *Project) ToSummary() ProjectSummary {
	return ProjectSummary{
		ID:           p.ID,
		Name:         p.Name,
		TeamName:     p.TeamName,
		Supervisor:   p.Supervisor,
		MemberCount:  len(p.Members),
		ReportStatus: p.ReportStatus,
		EvalStatus:   p.EvalStatus,
		EvalScore:    p.EvalScore,
		CreatedAt:    p.CreatedAt,
	}
}

// ProjectResponse is the full "my team" view.
type ProjectResponse struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	TeamName     string        `json:"team_name"`
	Description  string        `json:"description"`
	Supervisor   string        `json:"supervisor,omitempty"`
	Active       bool          `json:"active"`
	Members      []Member      `json:"members"`
	Tasks        []Task        `json:"tasks"`
	Files        []ProjectFile `json:"files"`
	Report       string        `json:"report"`
	ReportStatus ReportStatus  `json:"report_status"`
	Evaluation   Evaluation    `json:"evaluation"`
	MyRole       Role          `json:"my_role,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ToResponse converts a fully-loaded project to the "my team" view.
// myRole may be empty for admin views.
func (p *Project) ToResponse(myRole Role) *ProjectResponse {
	members := p.Members
	if members == nil {
		members = []Member{}
	}
	tasks := p.Tasks
	if tasks == nil {
		tasks = []Task{}
	}
	files := p.Files
	if files == nil {
		files = []ProjectFile{}
	}
	return &ProjectResponse{
		ID:           p.ID,
		Name:         p.Name,
		TeamName:     p.TeamName,
		Description:  p.Description,
		Supervisor:   p.Supervisor,
		Active:       p.IsActive(),
		Members:      members,
		Tasks:        tasks,
		Files:        files,
		Report:       p.Report,
		ReportStatus: p.ReportStatus,
		Evaluation:   p.Evaluation(),
		MyRole:       myRole,
		CreatedAt:    p.CreatedAt,
	}
}

// Notification is a derived, never-persisted informational item.
type Notification struct {
	Type    string `json:"type"` // "evaluation" or "tasks"
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}
