package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/models"
	"github.com/charlesng35/track/pkg/crypto"
	apperrors "github.com/charlesng35/track/pkg/errors"
	"github.com/charlesng35/track/pkg/metrics"
	"github.com/charlesng35/track/pkg/validator"
)

// RegisterInput describes a self-service signup.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// UserOption customises UserService behaviour.
type UserOption func(*UserService)

// WithUserPasswordCost sets the bcrypt cost for new accounts.
func WithUserPasswordCost(cost int) UserOption {
	return func(s *UserService) {
		s.passwordCost = cost
	}
}

// WithUserAudit records account events.
func WithUserAudit(audit *AuditService) UserOption {
	return func(s *UserService) {
		s.audit = audit
	}
}

// UserService manages accounts and credential checks.
type UserService struct {
	db           *gorm.DB
	audit        *AuditService
	passwordCost int
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, opts ...UserOption) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	svc := &UserService{db: db, passwordCost: crypto.MinPasswordCost}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register creates the account together with a personal workspace it owns.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	in.Email = normaliseEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validator.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	hashed, err := crypto.HashPasswordWithCost(in.Password, s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Email:    in.Email,
		Username: in.Username,
		FullName: in.FullName,
		Password: hashed,
		Avatar:   fmt.Sprintf(avatarURLFormat, in.Username),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAccountAvailable(tx, user.Username, user.Email); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadyExists.WithInternal(err)
			}
			return fmt.Errorf("user service: create user: %w", err)
		}

		name := user.DisplayName()
		workspace, err := createWorkspaceTx(tx, user.ID, CreateWorkspaceInput{
			Name:        fmt.Sprintf("%s's Workspace", name),
			Description: fmt.Sprintf("Personal workspace for %s", name),
		})
		if err != nil {
			return err
		}
		user.DefaultWorkspaceID = &workspace.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ActorID:     user.ID,
		WorkspaceID: *user.DefaultWorkspaceID,
		Action:      "user.register",
		Resource:    user.ID,
		Result:      "success",
	})
	return &user, nil
}

// Authenticate verifies an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = normaliseEmail(email)
	if email == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = ?", email).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: lookup user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		recordAudit(s.audit, ctx, AuditEntry{
			ActorID:  user.ID,
			Action:   "user.login",
			Resource: user.ID,
			Result:   "failure",
		})
		return nil, apperrors.ErrInvalidCredentials
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// GetByID retrieves a user by their identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}
