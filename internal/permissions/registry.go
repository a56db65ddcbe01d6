package permissions

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charlesng35/track/internal/models"
)

// Action names a workspace-scoped operation guarded by role.
type Action string

// Definition binds an action to the roles allowed to perform it.
// An empty Roles list admits any member of the workspace.
type Definition struct {
	Action      Action
	Roles       []models.WorkspaceRole
	Description string
}

// AnyMember reports whether every membership satisfies the definition.
func (d Definition) AnyMember() bool {
	return len(d.Roles) == 0
}

type actionRegistry struct {
	mu      sync.RWMutex
	actions map[Action]*Definition
}

var globalRegistry = &actionRegistry{
	actions: make(map[Action]*Definition),
}

var (
	errNilDefinition = errors.New("permission: nil definition")
	errEmptyAction   = errors.New("permission: action is required")
	errDuplicate     = errors.New("permission: already registered")
	errUnknownRole   = errors.New("permission: unknown role")

	// ErrUnknownAction is returned when checking an action that was never registered.
	ErrUnknownAction = errors.New("permission: unknown action")
)

// Register adds an action definition to the global registry.
func Register(def *Definition) error {
	if def == nil {
		return errNilDefinition
	}

	action := Action(strings.TrimSpace(string(def.Action)))
	if action == "" {
		return errEmptyAction
	}

	roles, err := normaliseRoles(def.Roles)
	if err != nil {
		return fmt.Errorf("%w: %s", err, action)
	}

	cp := &Definition{Action: action, Roles: roles, Description: def.Description}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.actions[action]; exists {
		return fmt.Errorf("%w: %s", errDuplicate, action)
	}
	globalRegistry.actions[action] = cp
	return nil
}

// Get returns a copy of the definition registered for action.
func Get(action Action) (*Definition, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	def, ok := globalRegistry.actions[action]
	if !ok {
		return nil, false
	}
	return cloneDefinition(def), true
}

func unregister(action Action) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	delete(globalRegistry.actions, action)
}

func cloneDefinition(def *Definition) *Definition {
	cp := *def
	if len(def.Roles) > 0 {
		cp.Roles = append([]models.WorkspaceRole(nil), def.Roles...)
	}
	return &cp
}

func normaliseRoles(roles []models.WorkspaceRole) ([]models.WorkspaceRole, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	seen := make(map[models.WorkspaceRole]struct{}, len(roles))
	out := make([]models.WorkspaceRole, 0, len(roles))
	for _, role := range roles {
		if !role.Valid() {
			return nil, fmt.Errorf("%w %q", errUnknownRole, role)
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out, nil
}
