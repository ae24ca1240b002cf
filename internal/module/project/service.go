package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acadex/server/internal/module/user"
	"github.com/acadex/server/internal/shared/metrics"
)

// UserStore is the slice of the user repository the lifecycle logic
// needs. Satisfied by user.Repository.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Service provides the team/project lifecycle business logic.
type Service struct {
	repo    Repository
	users   UserStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, users UserStore, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{repo: repo, users: users, metrics: m, logger: logger}
}

// callerName resolves the caller's current display name for roster
// entries and comment authorship.
func (s *Service) callerName(ctx context.Context, c Caller) string {
	if u, err := s.users.GetByID(ctx, c.UserID); err == nil {
		return u.Name
	}
	return user.ResolveDisplayName("", c.UserID, c.Email, c.Email == "")
}

// Caller identifies the requesting account within a roster.
type Caller struct {
	UserID uuid.UUID
	Email  string // lower-case, empty for guests
}

// ========== Directory ==========

// ListProjects returns the directory listing of all projects.
func (s *Service) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, p.ToSummary())
	}
	return summaries, nil
}

// GetMyTeam resolves the caller's project through the membership index.
func (s *Service) GetMyTeam(ctx context.Context, userID uuid.UUID, email string) (*ProjectResponse, error) {
	project, member, err := s.myTeam(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	return project.ToResponse(member.Role), nil
}

// myTeam loads the caller's project and their roster entry in it.
func (s *Service) myTeam(ctx context.Context, userID uuid.UUID, email string) (*Project, *Member, error) {
	membership, err := s.repo.GetMembership(ctx, userID, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, nil, ErrNoTeam
		}
		return nil, nil, err
	}
	project, err := s.repo.GetProjectByID(ctx, membership.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return project, membership, nil
}

// ========== Team lifecycle ==========

// RegisterTeam creates a project with the caller as sole accepted Lead
// and one pending invitation per email. Duplicate invited emails are
// preserved; the first pending entry wins at accept time.
func (s *Service) RegisterTeam(ctx context.Context, c Caller, req *RegisterTeamRequest) (*ProjectResponse, error) {
	if c.Email == "" {
		return nil, ErrGuestCannotCreate
	}
	callerEmail := strings.ToLower(c.Email)
	callerName := s.callerName(ctx, c)

	emails := make([]string, 0, len(req.MemberEmails))
	for _, e := range req.MemberEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			emails = append(emails, e)
		}
	}
	if len(emails) == 0 {
		return nil, ErrNoInvitedMembers
	}

	if _, err := s.repo.GetMembership(ctx, c.UserID, callerEmail); err == nil {
		return nil, ErrAlreadyInTeam
	} else if !errors.Is(err, ErrMemberNotFound) {
		return nil, err
	}

	if taken, err := s.repo.NameExists(ctx, req.Name); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrNameTaken
	}

	project := &Project{
		ID:           uuid.New(),
		Name:         req.Name,
		TeamName:     req.TeamName,
		Description:  req.Description,
		ReportStatus: ReportStatusDraft,
		EvalStatus:   EvaluationStatusPending,
	}

	roster := make([]*Member, 0, len(emails)+1)
	roster = append(roster, &Member{
		ID:        uuid.New(),
		ProjectID: project.ID,
		UserID:    &c.UserID,
		Name:      callerName,
		Email:     callerEmail,
		Role:      RoleLead,
		Status:    MemberStatusAccepted,
		Position:  0,
	})
	for i, email := range emails {
		roster = append(roster, &Member{
			ID:        uuid.New(),
			ProjectID: project.ID,
			Name:      InvitedPlaceholderName,
			Email:     email,
			Role:      RoleMember,
			Status:    MemberStatusPending,
			Position:  i + 1,
		})
	}

	if err := s.repo.CreateProjectWithMembers(ctx, project, roster); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ProjectsRegisteredTotal.Inc()
	}
	s.logger.Info("team registered",
		zap.String("project_id", project.ID.String()),
		zap.String("lead_id", c.UserID.String()),
		zap.String("name", project.Name),
		zap.Int("invited", len(emails)),
	)

	created, err := s.repo.GetProjectByID(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	return created.ToResponse(RoleLead), nil
}

// AcceptInvite reconciles the caller's first pending roster entry:
// user id, name, and status are set in place. Safe only once; after
// acceptance no pending entry remains and the call fails.
func (s *Service) AcceptInvite(ctx context.Context, c Caller) (*ProjectResponse, error) {
	if c.Email == "" {
		return nil, ErrNoPendingInvite
	}

	project, _, err := s.myTeam(ctx, c.UserID, c.Email)
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.GetPendingMemberByEmail(ctx, project.ID, c.Email)
	if err != nil {
		return nil, err
	}

	pending.UserID = &c.UserID
	pending.Name = s.callerName(ctx, c)
	pending.Status = MemberStatusAccepted
	if err := s.repo.UpdateMember(ctx, pending); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordInviteResponse("accepted")
	}
	s.logger.Info("invitation accepted",
		zap.String("project_id", project.ID.String()),
		zap.String("user_id", c.UserID.String()),
	)

	updated, err := s.repo.GetProjectByID(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	return updated.ToResponse(pending.Role), nil
}

// DeclineInvite removes exactly the caller's pending roster entry. The
// project persists even if only the Lead remains.
func (s *Service) DeclineInvite(ctx context.Context, c Caller) error {
	if c.Email == "" {
		return ErrNoPendingInvite
	}

	project, _, err := s.myTeam(ctx, c.UserID, c.Email)
	if err != nil {
		return err
	}

	pending, err := s.repo.GetPendingMemberByEmail(ctx, project.ID, c.Email)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteMember(ctx, pending.ID); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordInviteResponse("declined")
	}
	s.logger.Info("invitation declined",
		zap.String("project_id", project.ID.String()),
		zap.String("user_id", c.UserID.String()),
	)
	return nil
}

// ========== Tasks ==========

// activeTeamMember loads the caller's project and enforces the
// all-members-accepted gate shared by task and report mutations.
func (s *Service) activeTeamMember(ctx context.Context, c Caller) (*Project, *Member, error) {
	project, member, err := s.myTeam(ctx, c.UserID, c.Email)
	if err != nil {
		return nil, nil, err
	}
	if !project.IsActive() {
		return nil, nil, ErrProjectInactive
	}
	return project, member, nil
}

// CreateTask adds a task. Lead only; the assignee must be an accepted
// member of the project.
func (s *Service) CreateTask(ctx context.Context, c Caller, req *CreateTaskRequest) (*Task, error) {
	project, member, err := s.activeTeamMember(ctx, c)
	if err != nil {
		return nil, err
	}
	if member.Role != RoleLead {
		return nil, ErrNotLead
	}

	task := &Task{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Title:     req.Title,
		DueDate:   req.DueDate,
		Status:    TaskStatusToDo,
		Position:  len(project.Tasks),
	}

	if req.AssigneeID != nil {
		assignee := findMemberByUserID(project.Members, *req.AssigneeID)
		if assignee == nil {
			return nil, ErrAssigneeNotFound
		}
		task.AssigneeID = req.AssigneeID
		task.AssigneeName = assignee.Name
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleTask flips a task's completed flag and syncs its status. The
// assignee may toggle their own task; the Lead may toggle any.
func (s *Service) ToggleTask(ctx context.Context, c Caller, taskID uuid.UUID) (*Task, error) {
	project, member, err := s.activeTeamMember(ctx, c)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.GetTask(ctx, project.ID, taskID)
	if err != nil {
		return nil, err
	}

	isAssignee := task.AssigneeID != nil && *task.AssigneeID == c.UserID
	if !isAssignee && member.Role != RoleLead {
		return nil, ErrNotTaskAssignee
	}

	task.Completed = !task.Completed
	task.SyncStatus()
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask edits a task's fields. Lead only.
func (s *Service) UpdateTask(ctx context.Context, c Caller, taskID uuid.UUID, req *UpdateTaskRequest) (*Task, error) {
	project, member, err := s.activeTeamMember(ctx, c)
	if err != nil {
		return nil, err
	}
	if member.Role != RoleLead {
		return nil, ErrNotLead
	}

	task, err := s.repo.GetTask(ctx, project.ID, taskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.AssigneeID != nil {
		assignee := findMemberByUserID(project.Members, *req.AssigneeID)
		if assignee == nil {
			return nil, ErrAssigneeNotFound
		}
		task.AssigneeID = req.AssigneeID
		task.AssigneeName = assignee.Name
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
	}
	if req.Status != nil {
		task.Status = *req.Status
		task.Completed = *req.Status == TaskStatusDone
	}

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task. Lead only.
func (s *Service) DeleteTask(ctx context.Context, c Caller, taskID uuid.UUID) error {
	project, member, err := s.activeTeamMember(ctx, c)
	if err != nil {
		return err
	}
	if member.Role != RoleLead {
		return ErrNotLead
	}

	task, err := s.repo.GetTask(ctx, project.ID, taskID)
	if err != nil {
		return err
	}
	return s.repo.DeleteTask(ctx, task.ID)
}

// AddComment appends a comment to a task. Any member may comment.
func (s *Service) AddComment(ctx context.Context, c Caller, taskID uuid.UUID, req *AddCommentRequest) (*TaskComment, error) {
	project, member, err := s.activeTeamMember(ctx, c)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.GetTask(ctx, project.ID, taskID)
	if err != nil {
		return nil, err
	}

	comment := &TaskComment{
		ID:     uuid.New(),
		TaskID: task.ID,
		Text:   req.Text,
		Author: member.Name,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ========== Report ==========

// SaveReport updates the report draft. Rejected once submitted.
func (s *Service) SaveReport(ctx context.Context, c Caller, req *SaveReportRequest) error {
	project, _, err := s.activeTeamMember(ctx, c)
	if err != nil {
		return err
	}
	if project.IsSubmitted() {
		return ErrReportLocked
	}

	project.Report = req.Report
	return s.repo.UpdateProject(ctx, project)
}

// SubmitReport performs the one-way Draft -> Submitted transition. The
// confirm flag is the two-step replacement for an interactive confirm.
func (s *Service) SubmitReport(ctx context.Context, c Caller, req *SubmitReportRequest) error {
	if !req.Confirm {
		return ErrConfirmRequired
	}

	project, _, err := s.activeTeamMember(ctx, c)
	if err != nil {
		return err
	}
	if project.IsSubmitted() {
		return ErrAlreadySubmitted
	}

	project.ReportStatus = ReportStatusSubmitted
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ReportsSubmittedTotal.Inc()
	}
	s.logger.Info("report submitted",
		zap.String("project_id", project.ID.String()),
		zap.String("user_id", c.UserID.String()),
	)
	return nil
}

// AddFile attaches a file or link entry. Rejected once submitted.
func (s *Service) AddFile(ctx context.Context, c Caller, req *AddFileRequest) (*ProjectFile, error) {
	project, _, err := s.activeTeamMember(ctx, c)
	if err != nil {
		return nil, err
	}
	if project.IsSubmitted() {
		return nil, ErrReportLocked
	}

	size := req.Size
	if size == "" {
		size = FileSizeLink
	}

	file := &ProjectFile{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Name:      req.Name,
		URL:       req.URL,
		Size:      size,
		Position:  len(project.Files),
	}
	if err := s.repo.CreateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile removes a file entry. Rejected once submitted.
func (s *Service) DeleteFile(ctx context.Context, c Caller, fileID uuid.UUID) error {
	project, _, err := s.activeTeamMember(ctx, c)
	if err != nil {
		return err
	}
	if project.IsSubmitted() {
		return ErrReportLocked
	}

	file, err := s.repo.GetFile(ctx, project.ID, fileID)
	if err != nil {
		return err
	}
	return s.repo.DeleteFile(ctx, file.ID)
}

// ========== Notifications ==========

// GetNotifications derives informational items from the caller's team
// state. Nothing is persisted; no team yields an empty list.
func (s *Service) GetNotifications(ctx context.Context, userID uuid.UUID, email string) ([]Notification, error) {
	project, _, err := s.myTeam(ctx, userID, email)
	if err != nil {
		if errors.Is(err, ErrNoTeam) {
			return []Notification{}, nil
		}
		return nil, err
	}
	return deriveNotifications(project), nil
}

// deriveNotifications is a pure function over the project state.
func deriveNotifications(p *Project) []Notification {
	items := []Notification{}
	if p.EvalStatus == EvaluationStatusCompleted {
		items = append(items, Notification{
			Type:    "evaluation",
			Message: fmt.Sprintf("Your project has been evaluated: %d/100", p.EvalScore),
		})
	}
	pending := 0
	for _, t := range p.Tasks {
		if !t.Completed {
			pending++
		}
	}
	if pending > 0 {
		items = append(items, Notification{
			Type:    "tasks",
			Message: fmt.Sprintf("You have %d pending task(s)", pending),
			Count:   pending,
		})
	}
	return items
}

// ========== Admin operations ==========

// AdminListProjects returns every project in full form.
func (s *Service) AdminListProjects(ctx context.Context) ([]*ProjectResponse, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]*ProjectResponse, 0, len(projects))
	for _, p := range projects {
		responses = append(responses, p.ToResponse(""))
	}
	return responses, nil
}

// AdminUpdateProjectMeta renames a project and/or its team.
func (s *Service) AdminUpdateProjectMeta(ctx context.Context, projectID uuid.UUID, req *UpdateProjectMetaRequest) (*ProjectResponse, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && !strings.EqualFold(*req.Name, project.Name) {
		if taken, err := s.repo.NameExists(ctx, *req.Name); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrNameTaken
		}
		project.Name = *req.Name
	}
	if req.TeamName != nil {
		project.TeamName = *req.TeamName
	}

	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	return project.ToResponse(""), nil
}

// AdminDeleteProject removes a project and its dependent rows.
func (s *Service) AdminDeleteProject(ctx context.Context, projectID uuid.UUID) error {
	if err := s.repo.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	s.logger.Info("project deleted", zap.String("project_id", projectID.String()))
	return nil
}

// SaveEvaluation validates and applies a grading. The score is derived
// from the breakdown; the status becomes Completed and never reverts.
func (s *Service) SaveEvaluation(ctx context.Context, projectID uuid.UUID, req *SaveEvaluationRequest) (*ProjectResponse, error) {
	if err := validateEvaluation(req); err != nil {
		return nil, err
	}

	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	project.EvalInnovation = req.Breakdown.Innovation
	project.EvalExecution = req.Breakdown.Execution
	project.EvalDocumentation = req.Breakdown.Documentation
	project.EvalScore = req.Breakdown.Sum()
	project.EvalFeedback = req.Feedback
	project.EvalStatus = EvaluationStatusCompleted

	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EvaluationsTotal.Inc()
	}
	s.logger.Info("evaluation saved",
		zap.String("project_id", project.ID.String()),
		zap.Int("score", project.EvalScore),
	)
	return project.ToResponse(""), nil
}

func validateEvaluation(req *SaveEvaluationRequest) error {
	b := req.Breakdown
	if b.Innovation < 0 || b.Innovation > MaxInnovation ||
		b.Execution < 0 || b.Execution > MaxExecution ||
		b.Documentation < 0 || b.Documentation > MaxDocumentation {
		return ErrBreakdownOutOfRange
	}
	if sum := b.Sum(); sum < 0 || sum > 100 {
		return ErrInvalidEvaluation
	}
	if len(strings.TrimSpace(req.Feedback)) < MinFeedbackLen {
		return ErrFeedbackTooShort
	}
	return nil
}

// findMemberByUserID finds an accepted roster entry by user id.
func findMemberByUserID(members []Member, userID uuid.UUID) *Member {
	for i := range members {
		if members[i].UserID != nil && *members[i].UserID == userID {
			return &members[i]
		}
	}
	return nil
}
