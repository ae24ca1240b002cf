package project

import (
	"time"

	"github.com/google/uuid"
)

// Member roles.
type Role string

const (
	RoleLead   Role = "Lead"
	RoleMember Role = "Member"
)

// Membership status. An invitation is pending until the holder of the
// invited email signs in and accepts; accepting is a one-way move.
type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
)

// Report status. Draft -> Submitted is one-way; there is no un-submit.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "Draft"
	ReportStatusSubmitted ReportStatus = "Submitted"
)

// Evaluation status. Set to Completed only by an explicit admin grading
// action; never reverts.
type EvaluationStatus string

const (
	EvaluationStatusPending   EvaluationStatus = "Pending"
	EvaluationStatusCompleted EvaluationStatus = "Completed"
)

// Task statuses, kept in sync with the completed flag.
type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusDone       TaskStatus = "Done"
)

// InvitedPlaceholderName is the display name given to a pending member
// before the invited account accepts.
const InvitedPlaceholderName = "Invited User"

// FileSizeLink marks a file entry that is an external link rather than
// an upload.
const FileSizeLink = "Link"

// Evaluation score bounds.
const (
	MaxInnovation    = 40
	MaxExecution     = 30
	MaxDocumentation = 30
	MinFeedbackLen   = 10
)

// Project represents one team's project record.
type Project struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"not null"`
	TeamName    string    `json:"team_name" gorm:"not null"`
	Description string    `json:"description"`
	Supervisor  string    `json:"supervisor"`

	Report       string       `json:"report"`
	ReportStatus ReportStatus `json:"report_status" gorm:"type:varchar(16);not null;default:'Draft'"`

	EvalScore         int              `json:"eval_score" gorm:"not null;default:0"`
	EvalFeedback      string           `json:"eval_feedback"`
	EvalStatus        EvaluationStatus `json:"eval_status" gorm:"type:varchar(16);not null;default:'Pending'"`
	EvalInnovation    int              `json:"eval_innovation" gorm:"not null;default:0"`
	EvalExecution     int              `json:"eval_execution" gorm:"not null;default:0"`
	EvalDocumentation int              `json:"eval_documentation" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Members []Member      `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
	Tasks   []Task        `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
	Files   []ProjectFile `json:"files,omitempty" gorm:"foreignKey:ProjectID"`
}

// TableName returns the database table name.
func (Project) TableName() string {
	return "projects"
}

// IsActive reports whether every member has accepted. Task and report
// mutation are gated on this.
func (p *Project) IsActive() bool {
	if len(p.Members) == 0 {
		return false
	}
	for _, m := range p.Members {
		if m.Status != MemberStatusAccepted {
			return false
		}
	}
	return true
}

// IsSubmitted reports whether the report is locked.
func (p *Project) IsSubmitted() bool {
	return p.ReportStatus == ReportStatusSubmitted
}

// Lead returns the Lead member, or nil if the roster has none.
func (p *Project) Lead() *Member {
	for i := range p.Members {
		if p.Members[i].Role == RoleLead {
			return &p.Members[i]
		}
	}
	return nil
}

// Member represents one roster entry. UserID stays nil until the
// invited account accepts; until then the entry is matched by email.
type Member struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID uuid.UUID    `json:"project_id" gorm:"type:uuid;not null;index"`
	UserID    *uuid.UUID   `json:"user_id,omitempty" gorm:"type:uuid"`
	Name      string       `json:"name" gorm:"not null"`
	Email     string       `json:"email" gorm:"not null"` // stored lower-case
	Role      Role         `json:"role" gorm:"type:varchar(8);not null"`
	Status    MemberStatus `json:"status" gorm:"type:varchar(12);not null"`
	Position  int          `json:"position" gorm:"not null"` // insertion order
	CreatedAt time.Time    `json:"created_at"`
}

// TableName returns the database table name.
func (Member) TableName() string {
	return "project_members"
}

// Matches reports whether this roster entry belongs to the given
// identity, by user id or by non-empty email.
func (m *Member) Matches(userID uuid.UUID, email string) bool {
	if m.UserID != nil && *m.UserID == userID {
		return true
	}
	return email != "" && m.Email == email
}

// Task represents a single task row. Tasks are element-granular so
// concurrent writers contend per task, not per list.
type Task struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID    uuid.UUID  `json:"project_id" gorm:"type:uuid;not null;index"`
	Title        string     `json:"title" gorm:"not null"`
	AssigneeID   *uuid.UUID `json:"assignee_id,omitempty" gorm:"type:uuid"`
	AssigneeName string     `json:"assignee_name"`
	DueDate      string     `json:"due_date"` // YYYY-MM-DD
	Completed    bool       `json:"completed" gorm:"not null;default:false"`
	Status       TaskStatus `json:"status" gorm:"type:varchar(16);not null;default:'To Do'"`
	Position     int        `json:"position" gorm:"not null"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Comments []TaskComment `json:"comments,omitempty" gorm:"foreignKey:TaskID"`
}

// TableName returns the database table name.
func (Task) TableName() string {
	return "tasks"
}

// SyncStatus aligns the status column with the completed flag.
func (t *Task) SyncStatus() {
	if t.Completed {
		t.Status = TaskStatusDone
	} else if t.Status == TaskStatusDone {
		t.Status = TaskStatusToDo
	}
}

// TaskComment represents one comment on a task.
type TaskComment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	Text      string    `json:"text" gorm:"not null"`
	Author    string    `json:"author" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (TaskComment) TableName() string {
	return "task_comments"
}

// ProjectFile represents one report attachment or link entry.
type ProjectFile struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	URL       string    `json:"url" gorm:"not null"`
	Size      string    `json:"size"` // human-readable, or "Link"
	Position  int       `json:"position" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (ProjectFile) TableName() string {
	return "project_files"
}

// Evaluation is the grading payload attached to a project.
type Evaluation struct {
	Score     int              `json:"score"`
	Feedback  string           `json:"feedback"`
	Status    EvaluationStatus `json:"status"`
	Breakdown Breakdown        `json:"breakdown"`
}

// Breakdown is the per-criterion score split. Score must equal the sum.
type Breakdown struct {
	Innovation    int `json:"innovation"`
	Execution     int `json:"execution"`
	Documentation int `json:"documentation"`
}

// Sum returns the total of all criteria.
func (b Breakdown) Sum() int {
	return b.Innovation + b.Execution + b.Documentation
}

// Evaluation assembles the evaluation view of the project columns.
func (p *Project) Evaluation() Evaluation {
	return Evaluation{
		Score:    p.EvalScore,
		Feedback: p.EvalFeedback,
		Status:   p.EvalStatus,
		Breakdown: Breakdown{
			Innovation:    p.EvalInnovation,
			Execution:     p.EvalExecution,
			Documentation: p.EvalDocumentation,
		},
	}
}
