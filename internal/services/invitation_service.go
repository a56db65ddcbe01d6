package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/models"
	"github.com/charlesng35/track/internal/permissions"
	"github.com/charlesng35/track/pkg/crypto"
	"github.com/charlesng35/track/pkg/logger"
	"github.com/charlesng35/track/pkg/metrics"
	"github.com/charlesng35/track/pkg/validator"
)

const avatarURLFormat = "https://api.dicebear.com/7.x/pixel-art/svg?seed=%s&size=80"

// InviteKind distinguishes the two invite paths.
type InviteKind string

const (
	InviteKindDirectAdd     InviteKind = "direct_add"
	InviteKindPendingSignup InviteKind = "pending_signup"
)

// InviteOutcome reports whether a pending invitation was inserted or rotated.
type InviteOutcome string

const (
	InviteOutcomeCreated InviteOutcome = "created"
	InviteOutcomeUpdated InviteOutcome = "updated"
)

// MembershipGuard authorizes workspace actions.
type MembershipGuard interface {
	Check(ctx context.Context, workspaceID, userID string, action permissions.Action) (models.WorkspaceRole, error)
}

// InvitationOption customises InvitationService behaviour.
type InvitationOption func(*InvitationService)

// WithInvitationClock injects a custom clock primarily for testing.
func WithInvitationClock(clock func() time.Time) InvitationOption {
	return func(s *InvitationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithInvitationTTL overrides the invitation token lifetime.
func WithInvitationTTL(ttl time.Duration) InvitationOption {
	return func(s *InvitationService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPasswordCost sets the bcrypt cost used when accepting. Values below the
// minimum are raised to it.
func WithPasswordCost(cost int) InvitationOption {
	return func(s *InvitationService) {
		s.passwordCost = cost
	}
}

// WithInvitationAudit records lifecycle events.
func WithInvitationAudit(audit *AuditService) InvitationOption {
	return func(s *InvitationService) {
		s.audit = audit
	}
}

// WithInvitationNotifier replaces the default message renderer.
func WithInvitationNotifier(notifier *Notifier) InvitationOption {
	return func(s *InvitationService) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// InvitationService owns the invitation lifecycle from invite to acceptance.
type InvitationService struct {
	db           *gorm.DB
	guard        MembershipGuard
	dispatcher   *Dispatcher
	notifier     *Notifier
	audit        *AuditService
	issuer       *TokenIssuer
	ttl          time.Duration
	passwordCost int
	now          func() time.Time
	log          *zap.Logger
}

// NewInvitationService constructs an InvitationService. A nil dispatcher leaves
// queued rows for the maintenance retry job.
func NewInvitationService(db *gorm.DB, guard MembershipGuard, dispatcher *Dispatcher, opts ...InvitationOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	if guard == nil {
		return nil, errors.New("invitation service: guard is required")
	}

	svc := &InvitationService{
		db:           db,
		guard:        guard,
		dispatcher:   dispatcher,
		notifier:     NewNotifier(""),
		ttl:          DefaultInvitationTTL,
		passwordCost: crypto.MinPasswordCost,
		now:          time.Now,
		log:          logger.WithModule("invitations"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.issuer = NewTokenIssuer(svc.ttl, svc.now)
	return svc, nil
}

// InviteInput carries the parameters of an invite request.
type InviteInput struct {
	WorkspaceID string               `json:"-"`
	InviterID   string               `json:"-"`
	Email       string               `json:"email" validate:"required,email,max=255"`
	Role        models.WorkspaceRole `json:"role"`
}

// InviteResult describes what an invite did. Token is only set for the pending
// path and must not be rendered to API consumers.
type InviteResult struct {
	Kind          InviteKind
	Outcome       InviteOutcome
	Email         string
	WorkspaceName string
	Membership    *models.WorkspaceMember
	User          *models.User
	Invitation    *models.Invitation
	Token         string
}

// Invite adds an existing user directly, or creates or rotates the pending
// invitation for the address.
func (s *InvitationService) Invite(ctx context.Context, in InviteInput) (*InviteResult, error) {
	ctx = ensureContext(ctx)

	if _, err := s.guard.Check(ctx, in.WorkspaceID, in.InviterID, permissions.ActionInvitationsManage); err != nil {
		return nil, err
	}

	in.Email = normaliseEmail(in.Email)
	if err := validator.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}
	role, err := invitableRole(in.Role)
	if err != nil {
		return nil, err
	}

	workspace, err := s.loadWorkspace(ctx, s.db, in.WorkspaceID)
	if err != nil {
		return nil, err
	}

	var existing models.User
	err = s.db.WithContext(ctx).Where("LOWER(email) = ?", in.Email).Take(&existing).Error
	switch {
	case err == nil:
		return s.directAdd(ctx, workspace, &existing, role, in.InviterID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.pendingSignup(ctx, workspace, in.Email, role, in.InviterID)
	default:
		return nil, fmt.Errorf("invitation service: lookup user: %w", err)
	}
}

func (s *InvitationService) directAdd(ctx context.Context, workspace *models.Workspace, user *models.User, role models.WorkspaceRole, inviterID string) (*InviteResult, error) {
	member := models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      user.ID,
		Role:        role,
		JoinedAt:    s.now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.WorkspaceMember{}).
			Where("workspace_id = ? AND user_id = ?", workspace.ID, user.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("invitation service: check membership: %w", err)
		}
		if count > 0 {
			return ErrAlreadyMember
		}

		if err := tx.Create(&member).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("invitation service: create membership: %w", err)
		}

		// A lingering invitation for the address is superseded by the membership.
		var lingering []string
		if err := tx.Model(&models.Invitation{}).
			Where("workspace_id = ? AND email = ? AND status = ?", workspace.ID, normaliseEmail(user.Email), models.InvitationStatusPending).
			Pluck("id", &lingering).Error; err != nil {
			return fmt.Errorf("invitation service: load pending invitations: %w", err)
		}
		for _, id := range lingering {
			if err := s.cancelRow(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Invitations.WithLabelValues("direct_add").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:     inviterID,
		WorkspaceID: workspace.ID,
		Action:      "invitation.direct_add",
		Resource:    user.ID,
		Result:      "success",
		Metadata:    map[string]any{"role": role},
	})

	return &InviteResult{
		Kind:          InviteKindDirectAdd,
		Outcome:       InviteOutcomeCreated,
		Email:         user.Email,
		WorkspaceName: workspace.Name,
		Membership:    &member,
		User:          user,
	}, nil
}

func (s *InvitationService) pendingSignup(ctx context.Context, workspace *models.Workspace, email string, role models.WorkspaceRole, inviterID string) (*InviteResult, error) {
	issued, err := s.issuer.Issue()
	if err != nil {
		return nil, err
	}

	inviterName := s.displayName(ctx, inviterID)

	var (
		invitation models.Invitation
		outcome    InviteOutcome
		outboxID   string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("workspace_id = ? AND email = ? AND status = ?", workspace.ID, email, models.InvitationStatusPending).
			Order("created_at DESC").
			Take(&invitation).Error
		switch {
		case err == nil:
			outcome = InviteOutcomeUpdated
			if err := s.rotate(tx, &invitation, issued, map[string]any{"role": role, "invited_by": inviterID}); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			outcome = InviteOutcomeCreated
			invitation = models.Invitation{
				Email:          email,
				WorkspaceID:    workspace.ID,
				InvitedBy:      inviterID,
				Role:           role,
				TokenHash:      issued.Hash,
				Status:         models.InvitationStatusPending,
				ExpiresAt:      issued.ExpiresAt,
				DeliveryStatus: models.DeliveryStatusQueued,
			}
			invitation.CreatedAt = issued.IssuedAt
			invitation.UpdatedAt = issued.IssuedAt
			if err := tx.Create(&invitation).Error; err != nil {
				return fmt.Errorf("invitation service: create invitation: %w", err)
			}
		default:
			return fmt.Errorf("invitation service: lookup pending invitation: %w", err)
		}

		id, err := s.enqueueInvitation(tx, &invitation, workspace.Name, inviterName, issued.Token)
		outboxID = id
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deliver(ctx, outboxID)
	s.refresh(ctx, &invitation)

	metrics.Invitations.WithLabelValues(string(outcome)).Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:     inviterID,
		WorkspaceID: workspace.ID,
		Action:      "invitation." + string(outcome),
		Resource:    invitation.ID,
		Result:      "success",
		Metadata:    map[string]any{"email": email, "role": role},
	})

	return &InviteResult{
		Kind:          InviteKindPendingSignup,
		Outcome:       outcome,
		Email:         email,
		WorkspaceName: workspace.Name,
		Invitation:    &invitation,
		Token:         issued.Token,
	}, nil
}

// InvitationPreview is what an unauthenticated holder of a token may see.
type InvitationPreview struct {
	ID            string               `json:"id"`
	Email         string               `json:"email"`
	WorkspaceID   string               `json:"workspace_id"`
	WorkspaceName string               `json:"workspace_name"`
	Role          models.WorkspaceRole `json:"role"`
	InviterName   string               `json:"inviter_name"`
	CreatedAt     time.Time            `json:"created_at"`
	ExpiresAt     time.Time            `json:"expires_at"`
}

// GetByToken resolves an active invitation. Absent, consumed and expired
// tokens all yield ErrInvitationInvalidToken.
func (s *InvitationService) GetByToken(ctx context.Context, token string) (*InvitationPreview, error) {
	ctx = ensureContext(ctx)

	invitation, err := s.resolveToken(s.db.WithContext(ctx), token)
	if err != nil {
		return nil, err
	}

	preview := &InvitationPreview{
		ID:          invitation.ID,
		Email:       invitation.Email,
		WorkspaceID: invitation.WorkspaceID,
		Role:        invitation.Role,
		CreatedAt:   invitation.CreatedAt,
		ExpiresAt:   invitation.ExpiresAt,
	}
	if invitation.Workspace != nil {
		preview.WorkspaceName = invitation.Workspace.Name
	}
	if invitation.Inviter != nil {
		preview.InviterName = invitation.Inviter.DisplayName()
	}
	return preview, nil
}

// Cancel withdraws a pending invitation.
func (s *InvitationService) Cancel(ctx context.Context, invitationID, requesterID string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	invitation, err := s.loadPending(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Check(ctx, invitation.WorkspaceID, requesterID, permissions.ActionInvitationsManage); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.cancelRow(tx, invitation.ID)
	}); err != nil {
		return nil, err
	}
	invitation.Status = models.InvitationStatusCancelled

	metrics.Invitations.WithLabelValues("cancelled").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:     requesterID,
		WorkspaceID: invitation.WorkspaceID,
		Action:      "invitation.cancel",
		Resource:    invitation.ID,
		Result:      "success",
	})
	return invitation, nil
}

// Resend rotates the token and expiry of a pending invitation and sends it again.
func (s *InvitationService) Resend(ctx context.Context, invitationID, requesterID string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	invitation, err := s.loadPending(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Check(ctx, invitation.WorkspaceID, requesterID, permissions.ActionInvitationsManage); err != nil {
		return nil, err
	}

	workspace, err := s.loadWorkspace(ctx, s.db, invitation.WorkspaceID)
	if err != nil {
		return nil, err
	}
	issued, err := s.issuer.Issue()
	if err != nil {
		return nil, err
	}
	inviterName := s.displayName(ctx, invitation.InvitedBy)

	var outboxID string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.rotate(tx, invitation, issued, nil); err != nil {
			return err
		}
		id, err := s.enqueueInvitation(tx, invitation, workspace.Name, inviterName, issued.Token)
		outboxID = id
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deliver(ctx, outboxID)
	s.refresh(ctx, invitation)

	metrics.Invitations.WithLabelValues("resent").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:     requesterID,
		WorkspaceID: invitation.WorkspaceID,
		Action:      "invitation.resend",
		Resource:    invitation.ID,
		Result:      "success",
	})
	return invitation, nil
}

// InvitationView is an invitation listed with its inviter's display name.
type InvitationView struct {
	models.Invitation
	InviterName string `json:"inviter_name"`
}

// ListForWorkspace returns every invitation of the workspace, newest first.
func (s *InvitationService) ListForWorkspace(ctx context.Context, workspaceID, requesterID string) ([]InvitationView, error) {
	ctx = ensureContext(ctx)

	if _, err := s.guard.Check(ctx, workspaceID, requesterID, permissions.ActionInvitationsView); err != nil {
		return nil, err
	}

	var rows []models.Invitation
	if err := s.db.WithContext(ctx).
		Preload("Inviter").
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("invitation service: list invitations: %w", err)
	}

	views := make([]InvitationView, 0, len(rows))
	for _, row := range rows {
		view := InvitationView{Invitation: row}
		if row.Inviter != nil {
			view.InviterName = row.Inviter.DisplayName()
		}
		views = append(views, view)
	}
	return views, nil
}

// AcceptInput carries the account details supplied by the invitee.
type AcceptInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// AcceptResult is the state committed by a successful acceptance.
type AcceptResult struct {
	User       models.User
	Workspace  models.Workspace
	Membership models.WorkspaceMember
	Invitation models.Invitation
}

// Accept consumes the token, creating the user and membership atomically. The
// welcome message is delivered after commit and never affects the outcome.
func (s *InvitationService) Accept(ctx context.Context, token string, in AcceptInput) (*AcceptResult, error) {
	ctx = ensureContext(ctx)

	in.Email = normaliseEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validator.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	var (
		result   AcceptResult
		outboxID string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invitation, err := s.resolveToken(tx, token)
		if err != nil {
			return err
		}
		if !strings.EqualFold(invitation.Email, in.Email) {
			return ErrEmailMismatch
		}

		if err := ensureAccountAvailable(tx, in.Username, in.Email); err != nil {
			return err
		}

		hashed, err := crypto.HashPasswordWithCost(in.Password, s.passwordCost)
		if err != nil {
			return fmt.Errorf("invitation service: hash password: %w", err)
		}

		now := s.now().UTC()
		user := models.User{
			Email:    in.Email,
			Username: in.Username,
			FullName: in.FullName,
			Password: hashed,
			Avatar:   fmt.Sprintf(avatarURLFormat, in.Username),
		}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadyExists.WithInternal(err)
			}
			return fmt.Errorf("invitation service: create user: %w", err)
		}

		member := models.WorkspaceMember{
			WorkspaceID: invitation.WorkspaceID,
			UserID:      user.ID,
			Role:        invitation.Role,
			JoinedAt:    now,
		}
		if err := tx.Create(&member).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadyExists.WithInternal(err)
			}
			return fmt.Errorf("invitation service: create membership: %w", err)
		}

		if err := tx.Model(&user).Update("default_workspace_id", invitation.WorkspaceID).Error; err != nil {
			return fmt.Errorf("invitation service: set default workspace: %w", err)
		}
		user.DefaultWorkspaceID = &invitation.WorkspaceID

		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", invitation.ID, models.InvitationStatusPending).
			Updates(map[string]any{
				"status":      models.InvitationStatusAccepted,
				"accepted_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("invitation service: mark accepted: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInvitationInvalidToken
		}
		invitation.Status = models.InvitationStatusAccepted
		invitation.AcceptedAt = &now

		if s.dispatcher != nil {
			if err := s.dispatcher.CancelForInvitation(tx, invitation.ID); err != nil {
				return err
			}
			welcome, err := s.notifier.Welcome(user, invitation.Workspace.Name)
			if err != nil {
				return err
			}
			if err := s.dispatcher.Enqueue(tx, &welcome); err != nil {
				return err
			}
			outboxID = welcome.ID
		}

		result = AcceptResult{
			User:       user,
			Workspace:  *invitation.Workspace,
			Membership: member,
			Invitation: *invitation,
		}
		result.Invitation.Workspace = nil
		result.Invitation.Inviter = nil
		return nil
	})
	if err != nil {
		metrics.Invitations.WithLabelValues("rejected").Inc()
		return nil, err
	}

	s.deliver(ctx, outboxID)

	metrics.Invitations.WithLabelValues("accepted").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:     result.User.ID,
		WorkspaceID: result.Workspace.ID,
		Action:      "invitation.accept",
		Resource:    result.Invitation.ID,
		Result:      "success",
	})
	return &result, nil
}

func (s *InvitationService) resolveToken(db *gorm.DB, token string) (*models.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvitationInvalidToken
	}

	var invitation models.Invitation
	err := db.Preload("Workspace").
		Preload("Inviter").
		Where("token_hash = ?", crypto.HashToken(token)).
		Take(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationInvalidToken
		}
		return nil, fmt.Errorf("invitation service: resolve token: %w", err)
	}
	if !invitation.IsActive(s.now().UTC()) || invitation.Workspace == nil {
		return nil, ErrInvitationInvalidToken
	}
	return &invitation, nil
}

func (s *InvitationService) loadPending(ctx context.Context, invitationID string) (*models.Invitation, error) {
	invitationID = strings.TrimSpace(invitationID)
	if invitationID == "" {
		return nil, ErrInvitationNotPending
	}

	var invitation models.Invitation
	err := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", invitationID, models.InvitationStatusPending).
		Take(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotPending
		}
		return nil, fmt.Errorf("invitation service: load invitation: %w", err)
	}
	return &invitation, nil
}

func (s *InvitationService) loadWorkspace(ctx context.Context, db *gorm.DB, workspaceID string) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := db.WithContext(ctx).Where("id = ?", workspaceID).Take(&workspace).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("invitation service: load workspace: %w", err)
	}
	return &workspace, nil
}

// rotate replaces the token and expiry of a pending row. created_at moves with
// the token so that expires_at - created_at is always the ttl.
func (s *InvitationService) rotate(tx *gorm.DB, invitation *models.Invitation, issued IssuedInvitationToken, extra map[string]any) error {
	updates := map[string]any{
		"token_hash":          issued.Hash,
		"expires_at":          issued.ExpiresAt,
		"created_at":          issued.IssuedAt,
		"status":              models.InvitationStatusPending,
		"delivery_status":     models.DeliveryStatusQueued,
		"last_delivery_error": "",
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&models.Invitation{}).
		Where("id = ? AND status = ?", invitation.ID, models.InvitationStatusPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("invitation service: rotate token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInvitationNotPending
	}

	invitation.TokenHash = issued.Hash
	invitation.ExpiresAt = issued.ExpiresAt
	invitation.CreatedAt = issued.IssuedAt
	invitation.DeliveryStatus = models.DeliveryStatusQueued
	invitation.LastDeliveryError = ""
	if role, ok := extra["role"].(models.WorkspaceRole); ok {
		invitation.Role = role
	}
	if inviter, ok := extra["invited_by"].(string); ok {
		invitation.InvitedBy = inviter
	}

	if s.dispatcher != nil {
		return s.dispatcher.CancelForInvitation(tx, invitation.ID)
	}
	return nil
}

func (s *InvitationService) cancelRow(tx *gorm.DB, invitationID string) error {
	res := tx.Model(&models.Invitation{}).
		Where("id = ? AND status = ?", invitationID, models.InvitationStatusPending).
		Update("status", models.InvitationStatusCancelled)
	if res.Error != nil {
		return fmt.Errorf("invitation service: cancel invitation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInvitationNotPending
	}
	if s.dispatcher != nil {
		return s.dispatcher.CancelForInvitation(tx, invitationID)
	}
	return nil
}

func (s *InvitationService) enqueueInvitation(tx *gorm.DB, invitation *models.Invitation, workspaceName, inviterName, token string) (string, error) {
	if s.dispatcher == nil {
		return "", nil
	}

	msg, err := s.notifier.Invitation(InvitationEmail{
		To:            invitation.Email,
		InviterName:   inviterName,
		WorkspaceName: workspaceName,
		Role:          invitation.Role,
		Token:         token,
		ExpiresIn:     formatTTL(s.issuer.TTL()),
	})
	if err != nil {
		return "", err
	}
	msg.InvitationID = &invitation.ID
	if err := s.dispatcher.Enqueue(tx, &msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// deliver sends a committed outbox row. Failures stay on the row for retry.
func (s *InvitationService) deliver(ctx context.Context, outboxID string) {
	if s.dispatcher == nil || outboxID == "" {
		return
	}
	report, err := s.dispatcher.Deliver(ctx, outboxID)
	if err != nil {
		s.log.Warn("post-commit delivery bookkeeping failed", zap.String("outbox_id", outboxID), zap.Error(err))
		return
	}
	if report.Failed > 0 {
		s.log.Warn("notification delivery deferred to retry", zap.String("outbox_id", outboxID))
	}
}

func (s *InvitationService) refresh(ctx context.Context, invitation *models.Invitation) {
	var fresh models.Invitation
	if err := s.db.WithContext(ctx).Where("id = ?", invitation.ID).Take(&fresh).Error; err == nil {
		*invitation = fresh
	}
}

func (s *InvitationService) displayName(ctx context.Context, userID string) string {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "username", "full_name").Where("id = ?", userID).Take(&user).Error; err != nil {
		return ""
	}
	return user.DisplayName()
}

func invitableRole(role models.WorkspaceRole) (models.WorkspaceRole, error) {
	role = models.WorkspaceRole(strings.ToLower(strings.TrimSpace(string(role))))
	switch role {
	case "":
		return models.WorkspaceRoleMember, nil
	case models.WorkspaceRoleAdmin, models.WorkspaceRoleMember:
		return role, nil
	}
	return "", ErrInvalidRole
}

// ensureAccountAvailable pre-checks uniqueness. The unique indexes remain the
// authority under concurrent inserts.
func ensureAccountAvailable(tx *gorm.DB, username, email string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	if err := tx.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return nil
}

func formatTTL(ttl time.Duration) string {
	hours := int(ttl.Round(time.Hour) / time.Hour)
	if hours <= 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
