package project

import "errors"

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrNoTeam            = errors.New("you are not part of a team")
	ErrAlreadyInTeam     = errors.New("you already belong to a project")
	ErrNameTaken         = errors.New("a project with this name already exists")
	ErrGuestCannotCreate = errors.New("an email address is required to register a team")
	ErrNoInvitedMembers  = errors.New("at least one member email is required")

	ErrNoPendingInvite = errors.New("no pending invitation found")
	ErrMemberNotFound  = errors.New("member not found")

	ErrProjectInactive  = errors.New("project is not active until all members accept")
	ErrNotLead          = errors.New("only the team lead may do this")
	ErrNotTaskAssignee  = errors.New("only the assignee or the team lead may toggle this task")
	ErrTaskNotFound     = errors.New("task not found")
	ErrAssigneeNotFound = errors.New("assignee is not a member of this project")

	ErrReportLocked        = errors.New("report has been submitted and can no longer be changed")
	ErrAlreadySubmitted    = errors.New("report has already been submitted")
	ErrConfirmRequired     = errors.New("submission must be confirmed")
	ErrFileNotFound        = errors.New("file not found")
	ErrInvalidEvaluation   = errors.New("invalid evaluation")
	ErrFeedbackTooShort    = errors.New("feedback must be at least 10 characters")
	ErrBreakdownOutOfRange = errors.New("breakdown scores are out of range")
)
