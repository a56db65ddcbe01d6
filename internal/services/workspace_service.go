package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/models"
	"github.com/charlesng35/track/internal/permissions"
	"github.com/charlesng35/track/pkg/validator"
)

// CreateWorkspaceInput describes a new workspace.
type CreateWorkspaceInput struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Description   string  `json:"description" validate:"max=2000"`
	Domain        *string `json:"domain" validate:"omitempty,max=255"`
	RequireDomain bool    `json:"require_domain"`
}

// UpdateWorkspaceInput replaces every mutable workspace attribute.
type UpdateWorkspaceInput struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Description   string  `json:"description" validate:"max=2000"`
	Domain        *string `json:"domain" validate:"omitempty,max=255"`
	RequireDomain bool    `json:"require_domain"`
}

// MemberView is a membership joined with the member's public profile.
type MemberView struct {
	ID       string               `json:"id"`
	UserID   string               `json:"user_id"`
	Role     models.WorkspaceRole `json:"role"`
	JoinedAt time.Time            `json:"joined_at"`
	User     models.PublicUser    `json:"user"`
}

// WorkspaceSummary is a workspace listed together with the caller's membership.
type WorkspaceSummary struct {
	models.Workspace
	UserRole models.WorkspaceRole `json:"user_role"`
	JoinedAt time.Time            `json:"joined_at"`
}

// WorkspaceService manages workspaces and their member listings.
type WorkspaceService struct {
	db    *gorm.DB
	guard MembershipGuard
	audit *AuditService
}

// NewWorkspaceService constructs a WorkspaceService.
func NewWorkspaceService(db *gorm.DB, guard MembershipGuard, audit *AuditService) (*WorkspaceService, error) {
	if db == nil {
		return nil, errors.New("workspace service: db is required")
	}
	if guard == nil {
		return nil, errors.New("workspace service: guard is required")
	}
	return &WorkspaceService{db: db, guard: guard, audit: audit}, nil
}

// Create inserts the workspace and its owner membership, then makes it the
// owner's default workspace. All three writes commit together.
func (s *WorkspaceService) Create(ctx context.Context, ownerID string, in CreateWorkspaceInput) (*models.Workspace, error) {
	ctx = ensureContext(ctx)

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validator.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	var workspace models.Workspace
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := createWorkspaceTx(tx, ownerID, in)
		if err != nil {
			return err
		}
		workspace = *created
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:     ownerID,
		WorkspaceID: workspace.ID,
		Action:      "workspace.create",
		Resource:    workspace.ID,
		Result:      "success",
	})
	return &workspace, nil
}

// createWorkspaceTx performs the workspace, membership and default-workspace writes on tx.
func createWorkspaceTx(tx *gorm.DB, ownerID string, in CreateWorkspaceInput) (*models.Workspace, error) {
	var owner models.User
	if err := tx.Select("id").Where("id = ?", ownerID).Take(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("workspace service: load owner: %w", err)
	}

	workspace := models.Workspace{
		Name:          in.Name,
		Slug:          slug.Make(in.Name),
		Description:   in.Description,
		Domain:        normaliseDomain(in.Domain),
		RequireDomain: in.RequireDomain,
		OwnerID:       ownerID,
	}
	if err := tx.Create(&workspace).Error; err != nil {
		return nil, fmt.Errorf("workspace service: create workspace: %w", err)
	}

	member := models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      ownerID,
		Role:        models.WorkspaceRoleOwner,
	}
	if err := tx.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("workspace service: create owner membership: %w", err)
	}

	if err := tx.Model(&models.User{}).Where("id = ?", ownerID).
		Update("default_workspace_id", workspace.ID).Error; err != nil {
		return nil, fmt.Errorf("workspace service: set default workspace: %w", err)
	}
	return &workspace, nil
}

// Get returns a workspace visible to any of its members.
func (s *WorkspaceService) Get(ctx context.Context, workspaceID, callerID string) (*models.Workspace, error) {
	ctx = ensureContext(ctx)

	if _, err := s.guard.Check(ctx, workspaceID, callerID, permissions.ActionWorkspaceView); err != nil {
		return nil, err
	}
	return s.load(ctx, workspaceID)
}

// Authorize fails with ErrInsufficientPermissions unless callerID may perform
// action in workspaceID.
func (s *WorkspaceService) Authorize(ctx context.Context, workspaceID, callerID string, action permissions.Action) error {
	_, err := s.guard.Check(ensureContext(ctx), workspaceID, callerID, action)
	return err
}

// Update replaces name, description, domain and the domain flag.
func (s *WorkspaceService) Update(ctx context.Context, workspaceID, callerID string, in UpdateWorkspaceInput) (*models.Workspace, error) {
	ctx = ensureContext(ctx)

	if _, err := s.guard.Check(ctx, workspaceID, callerID, permissions.ActionWorkspaceUpdate); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validator.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	workspace, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":           in.Name,
		"slug":           slug.Make(in.Name),
		"description":    in.Description,
		"domain":         normaliseDomain(in.Domain),
		"require_domain": in.RequireDomain,
	}
	if err := s.db.WithContext(ctx).Model(workspace).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("workspace service: update workspace: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:     callerID,
		WorkspaceID: workspaceID,
		Action:      "workspace.update",
		Resource:    workspaceID,
		Result:      "success",
	})
	return s.load(ctx, workspaceID)
}

// ListMembers returns the workspace's members in join order.
func (s *WorkspaceService) ListMembers(ctx context.Context, workspaceID, callerID string) ([]MemberView, error) {
	ctx = ensureContext(ctx)

	if _, err := s.guard.Check(ctx, workspaceID, callerID, permissions.ActionMembersView); err != nil {
		return nil, err
	}

	var members []models.WorkspaceMember
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("workspace_id = ?", workspaceID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("workspace service: list members: %w", err)
	}

	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		view := MemberView{
			ID:       m.ID,
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
		if m.User != nil {
			view.User = m.User.Public()
		}
		views = append(views, view)
	}
	return views, nil
}

// ListForUser returns every workspace the user belongs to, newest first.
func (s *WorkspaceService) ListForUser(ctx context.Context, userID string) ([]WorkspaceSummary, error) {
	ctx = ensureContext(ctx)

	var members []models.WorkspaceMember
	if err := s.db.WithContext(ctx).
		Preload("Workspace").
		Where("user_id = ?", userID).
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("workspace service: list workspaces: %w", err)
	}

	summaries := make([]WorkspaceSummary, 0, len(members))
	for _, m := range members {
		if m.Workspace == nil {
			continue
		}
		summaries = append(summaries, WorkspaceSummary{
			Workspace: *m.Workspace,
			UserRole:  m.Role,
			JoinedAt:  m.JoinedAt,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *WorkspaceService) load(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := s.db.WithContext(ctx).Where("id = ?", workspaceID).Take(&workspace).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("workspace service: load workspace: %w", err)
	}
	return &workspace, nil
}

func normaliseDomain(domain *string) *string {
	if domain == nil {
		return nil
	}
	return stringPtr(strings.ToLower(*domain))
}
