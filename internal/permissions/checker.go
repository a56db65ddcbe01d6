package permissions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/models"
	apperrors "github.com/charlesng35/track/pkg/errors"
	"github.com/charlesng35/track/pkg/metrics"
)

// ErrInsufficientPermissions is returned whenever the caller lacks a qualifying
// membership. Unknown workspaces produce the same error so that non-members
// cannot probe for tenant existence.
var ErrInsufficientPermissions = apperrors.New(apperrors.KindAuthorization, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions")

// Checker resolves workspace memberships and evaluates role requirements.
type Checker struct {
	db *gorm.DB
}

// NewChecker constructs a permission checker backed by the provided database.
func NewChecker(db *gorm.DB) (*Checker, error) {
	if db == nil {
		return nil, errors.New("permission checker: db is required")
	}
	return &Checker{db: db}, nil
}

// Authorize succeeds iff userID holds a membership in workspaceID whose role is
// in roles. No roles means any membership qualifies.
func (c *Checker) Authorize(ctx context.Context, workspaceID, userID string, roles ...models.WorkspaceRole) (models.WorkspaceRole, error) {
	return c.authorize(ctx, "direct", workspaceID, userID, roles)
}

// Check evaluates the registered role set of action.
func (c *Checker) Check(ctx context.Context, workspaceID, userID string, action Action) (models.WorkspaceRole, error) {
	def, ok := Get(action)
	if !ok {
		metrics.PermissionChecks.WithLabelValues(string(action), "error").Inc()
		return "", fmt.Errorf("%w %q", ErrUnknownAction, action)
	}
	roles := def.Roles
	if def.AnyMember() {
		roles = nil
	}
	return c.authorize(ctx, string(action), workspaceID, userID, roles)
}

// Membership returns the membership row for the pair, or gorm.ErrRecordNotFound.
func (c *Checker) Membership(ctx context.Context, workspaceID, userID string) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	err := c.db.WithContext(ensureContext(ctx)).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Take(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Checker) authorize(ctx context.Context, label, workspaceID, userID string, roles []models.WorkspaceRole) (models.WorkspaceRole, error) {
	workspaceID = strings.TrimSpace(workspaceID)
	userID = strings.TrimSpace(userID)
	if workspaceID == "" || userID == "" {
		metrics.PermissionChecks.WithLabelValues(label, "deny").Inc()
		return "", ErrInsufficientPermissions
	}

	member, err := c.Membership(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.PermissionChecks.WithLabelValues(label, "deny").Inc()
			return "", ErrInsufficientPermissions
		}
		metrics.PermissionChecks.WithLabelValues(label, "error").Inc()
		return "", fmt.Errorf("permission checker: load membership: %w", err)
	}

	if len(roles) > 0 && !slices.Contains(roles, member.Role) {
		metrics.PermissionChecks.WithLabelValues(label, "deny").Inc()
		return member.Role, ErrInsufficientPermissions
	}

	metrics.PermissionChecks.WithLabelValues(label, "allow").Inc()
	return member.Role, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
