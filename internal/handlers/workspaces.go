package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/track/internal/models"
	"github.com/charlesng35/track/internal/permissions"
	"github.com/charlesng35/track/internal/services"
	"github.com/charlesng35/track/pkg/response"
)

// WorkspaceHandler exposes workspace, member and invitation management.
type WorkspaceHandler struct {
	workspaces  *services.WorkspaceService
	invitations *services.InvitationService
}

func NewWorkspaceHandler(workspaces *services.WorkspaceService, invitations *services.InvitationService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, invitations: invitations}
}

type inviteRequest struct {
	Email string               `json:"email" validate:"required,email,max=255"`
	Role  models.WorkspaceRole `json:"role"`
}

type directAddResponse struct {
	Membership *models.WorkspaceMember `json:"membership"`
	UserEmail  string                  `json:"user_email"`
	UserName   string                  `json:"user_name"`
	Message    string                  `json:"message"`
}

type pendingSignupResponse struct {
	Message       string `json:"message"`
	Email         string `json:"email"`
	Status        string `json:"status"`
	WorkspaceName string `json:"workspace_name"`
}

type invitationActionResponse struct {
	Message    string             `json:"message"`
	Invitation *models.Invitation `json:"invitation"`
}

// authorize rejects callers without the role for action before the body is read,
// so outsiders see 403 whatever they send.
func (h *WorkspaceHandler) authorize(c *gin.Context, userID string, action permissions.Action) bool {
	if err := h.workspaces.Authorize(requestContext(c), c.Param("id"), userID, action); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

// GET /api/workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := h.workspaces.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items)})
}

// POST /api/workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateWorkspaceInput
	if !bindAndValidate(c, &req) {
		return
	}

	workspace, err := h.workspaces.Create(requestContext(c), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, workspace)
}

// GET /api/workspaces/:id
func (h *WorkspaceHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	workspace, err := h.workspaces.Get(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, workspace)
}

// PUT /api/workspaces/:id
func (h *WorkspaceHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if !h.authorize(c, userID, permissions.ActionWorkspaceUpdate) {
		return
	}

	var req services.UpdateWorkspaceInput
	if !bindAndValidate(c, &req) {
		return
	}

	workspace, err := h.workspaces.Update(requestContext(c), c.Param("id"), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, workspace)
}

// GET /api/workspaces/:id/members
func (h *WorkspaceHandler) Members(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	members, err := h.workspaces.ListMembers(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, members, &response.Meta{Total: len(members)})
}

// POST /api/workspaces/:id/invite
func (h *WorkspaceHandler) Invite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if !h.authorize(c, userID, permissions.ActionInvitationsManage) {
		return
	}

	var req inviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.invitations.Invite(requestContext(c), services.InviteInput{
		WorkspaceID: c.Param("id"),
		InviterID:   userID,
		Email:       req.Email,
		Role:        req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Kind == services.InviteKindDirectAdd {
		name := ""
		if result.User != nil {
			name = result.User.DisplayName()
		}
		response.Created(c, directAddResponse{
			Membership: result.Membership,
			UserEmail:  result.Email,
			UserName:   name,
			Message:    fmt.Sprintf("%s has been added to %s", result.Email, result.WorkspaceName),
		})
		return
	}

	response.Success(c, http.StatusOK, pendingSignupResponse{
		Message:       fmt.Sprintf("Invitation sent to %s", result.Email),
		Email:         result.Email,
		Status:        string(services.InviteKindPendingSignup),
		WorkspaceName: result.WorkspaceName,
	})
}

// GET /api/workspaces/:id/invitations
func (h *WorkspaceHandler) Invitations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := h.invitations.ListForWorkspace(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items)})
}

// DELETE /api/workspaces/invitations/:id
func (h *WorkspaceHandler) CancelInvitation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invitation, err := h.invitations.Cancel(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitationActionResponse{
		Message:    "Invitation cancelled",
		Invitation: invitation,
	})
}

// POST /api/workspaces/invitations/:id/resend
func (h *WorkspaceHandler) ResendInvitation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invitation, err := h.invitations.Resend(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitationActionResponse{
		Message:    fmt.Sprintf("Invitation resent to %s", invitation.Email),
		Invitation: invitation,
	})
}
