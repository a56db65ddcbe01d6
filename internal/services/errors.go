package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/permissions"
	apperrors "github.com/charlesng35/track/pkg/errors"
)

var (
	// ErrInsufficientPermissions is returned by every guarded operation whose caller lacks a qualifying role.
	ErrInsufficientPermissions = permissions.ErrInsufficientPermissions

	// ErrInvitationInvalidToken covers absent, consumed and expired invitation tokens alike.
	ErrInvitationInvalidToken = apperrors.New(apperrors.KindNotFound, "INVITATION_INVALID", "Invalid or expired invitation")
	// ErrInvitationNotPending is returned when cancelling or resending an invitation that is no longer pending.
	ErrInvitationNotPending = apperrors.New(apperrors.KindNotFound, "INVITATION_NOT_FOUND", "Invitation not found or already processed")
	// ErrEmailMismatch indicates the accepting email differs from the invited address.
	ErrEmailMismatch = apperrors.New(apperrors.KindValidation, "INVITATION_EMAIL_MISMATCH", "Email does not match invitation")
	// ErrAlreadyMember indicates the target user already belongs to the workspace.
	ErrAlreadyMember = apperrors.New(apperrors.KindConflict, "ALREADY_MEMBER", "User is already a member of this workspace")
	// ErrInvalidRole rejects roles that cannot be granted through an invitation.
	ErrInvalidRole = apperrors.New(apperrors.KindValidation, "INVALID_ROLE", "Role must be admin or member")

	// ErrUsernameTaken indicates the requested username is in use.
	ErrUsernameTaken = apperrors.New(apperrors.KindConflict, "USERNAME_TAKEN", "Username already taken")
	// ErrEmailTaken indicates an account with the email already exists.
	ErrEmailTaken = apperrors.New(apperrors.KindConflict, "EMAIL_TAKEN", "An account with this email already exists")
	// ErrAlreadyExists is the storage-level uniqueness fallback.
	ErrAlreadyExists = apperrors.New(apperrors.KindConflict, "ALREADY_EXISTS", "Resource already exists")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New(apperrors.KindNotFound, "USER_NOT_FOUND", "User not found")
	// ErrWorkspaceNotFound is only surfaced to callers that already passed the membership guard.
	ErrWorkspaceNotFound = apperrors.New(apperrors.KindNotFound, "WORKSPACE_NOT_FOUND", "Workspace not found")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "duplicate entry")
}

// validationError converts validator output into a 400 AppError.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.NewBadRequest(err.Error())
}
