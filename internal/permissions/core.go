package permissions

import "github.com/charlesng35/track/internal/models"

const (
	ActionWorkspaceView     Action = "workspace.view"
	ActionWorkspaceUpdate   Action = "workspace.update"
	ActionMembersView       Action = "members.view"
	ActionInvitationsView   Action = "invitations.view"
	ActionInvitationsManage Action = "invitations.manage"
)

// Managers are the roles allowed to administer membership and invitations.
var Managers = []models.WorkspaceRole{models.WorkspaceRoleOwner, models.WorkspaceRoleAdmin}

func init() {
	defs := []*Definition{
		{Action: ActionWorkspaceView, Description: "View workspace details"},
		{Action: ActionMembersView, Description: "List workspace members"},
		{Action: ActionWorkspaceUpdate, Roles: Managers, Description: "Update workspace settings"},
		{Action: ActionInvitationsView, Roles: Managers, Description: "List workspace invitations"},
		{Action: ActionInvitationsManage, Roles: Managers, Description: "Invite, cancel and resend invitations"},
	}

	for _, def := range defs {
		if err := Register(def); err != nil {
			panic(err)
		}
	}
}
