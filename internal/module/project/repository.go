package project

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for project data access.
type Repository interface {
	// Project operations
	CreateProjectWithMembers(ctx context.Context, project *Project, members []*Member) error
	GetProjectByID(ctx context.Context, id uuid.UUID) (*Project, error)
	GetProjectForMember(ctx context.Context, userID uuid.UUID, email string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	NameExists(ctx context.Context, name string) (bool, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error

	// Member operations
	CreateMember(ctx context.Context, member *Member) error
	GetMembership(ctx context.Context, userID uuid.UUID, email string) (*Member, error)
	GetPendingMemberByEmail(ctx context.Context, projectID uuid.UUID, email string) (*Member, error)
	UpdateMember(ctx context.Context, member *Member) error
	DeleteMember(ctx context.Context, id uuid.UUID) error

	// Task operations
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, projectID, taskID uuid.UUID) (*Task, error)
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	CreateComment(ctx context.Context, comment *TaskComment) error

	// File operations
	CreateFile(ctx context.Context, file *ProjectFile) error
	GetFile(ctx context.Context, projectID, fileID uuid.UUID) (*ProjectFile, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new project repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ========== Project operations ==========

// CreateProjectWithMembers creates the project and its full initial
// roster in one transaction, so a failed invite insert never leaves a
// leadless project behind.
func (r *repository) CreateProjectWithMembers(ctx context.Context, project *Project, members []*Member) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Tasks", "Files").Create(project).Error; err != nil {
			return err
		}
		for _, m := range members {
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return err
	}
	return nil
}

// preloadAll loads the full project graph in insertion order.
func preloadAll(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Tasks.Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *repository) GetProjectByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	var project Project
	err := preloadAll(r.db.WithContext(ctx)).First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// GetProjectForMember resolves "my team" through the membership index:
// the project whose roster contains the user id, or the email for a
// still-pending invitation.
func (r *repository) GetProjectForMember(ctx context.Context, userID uuid.UUID, email string) (*Project, error) {
	member, err := r.GetMembership(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	return r.GetProjectByID(ctx, member.ProjectID)
}

func (r *repository) ListProjects(ctx context.Context) ([]*Project, error) {
	var projects []*Project
	err := preloadAll(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// NameExists checks project-name uniqueness case-insensitively. The
// unique index on lower(name) closes the check-then-create race.
func (r *repository) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Project{}).
		Where("lower(name) = lower(?)", name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) UpdateProject(ctx context.Context, project *Project) error {
	if err := r.db.WithContext(ctx).
		Omit("Members", "Tasks", "Files").
		Save(project).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return err
	}
	return nil
}

func (r *repository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// ========== Member operations ==========

func (r *repository) CreateMember(ctx context.Context, member *Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *repository) GetMembership(ctx context.Context, userID uuid.UUID, email string) (*Member, error) {
	var member Member
	query := r.db.WithContext(ctx).Order("created_at ASC")
	if email != "" {
		query = query.Where("user_id = ? OR email = ?", userID, strings.ToLower(email))
	} else {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// GetPendingMemberByEmail returns the first pending roster entry for
// the email, in insertion order. Duplicate invitations are allowed, so
// first match wins.
func (r *repository) GetPendingMemberByEmail(ctx context.Context, projectID uuid.UUID, email string) (*Member, error) {
	var member Member
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND email = ? AND status = ?", projectID, strings.ToLower(email), MemberStatusPending).
		Order("position ASC").
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPendingInvite
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) UpdateMember(ctx context.Context, member *Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *repository) DeleteMember(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Member{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// ========== Task operations ==========

func (r *repository) CreateTask(ctx context.Context, task *Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *repository) GetTask(ctx context.Context, projectID, taskID uuid.UUID) (*Task, error) {
	var task Task
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND project_id = ?", taskID, projectID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *repository) UpdateTask(ctx context.Context, task *Task) error {
	return r.db.WithContext(ctx).Omit("Comments").Save(task).Error
}

func (r *repository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *repository) CreateComment(ctx context.Context, comment *TaskComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ========== File operations ==========

func (r *repository) CreateFile(ctx context.Context, file *ProjectFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *repository) GetFile(ctx context.Context, projectID, fileID uuid.UUID) (*ProjectFile, error) {
	var file ProjectFile
	err := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", fileID, projectID).
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *repository) DeleteFile(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ProjectFile{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}

// isUniqueViolation reports whether the error is a Postgres unique
// constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
