package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/track/internal/auth"
	"github.com/charlesng35/track/internal/models"
	"github.com/charlesng35/track/internal/services"
	"github.com/charlesng35/track/pkg/logger"
	"github.com/charlesng35/track/pkg/response"
)

type accessTokenIssuer interface {
	GenerateAccessToken(userID string) (iauth.IssuedToken, error)
}

// InvitationHandler serves the public, token-addressed invitation endpoints.
type InvitationHandler struct {
	invitations *services.InvitationService
	jwt         accessTokenIssuer
}

func NewInvitationHandler(invitations *services.InvitationService, jwt *iauth.JWTService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations, jwt: jwt}
}

type workspaceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type acceptResponse struct {
	User      models.PublicUser `json:"user"`
	Workspace workspaceRef      `json:"workspace"`
	Token     string            `json:"token,omitempty"`
}

// GET /api/invitations/:token
func (h *InvitationHandler) Preview(c *gin.Context) {
	preview, err := h.invitations.GetByToken(requestContext(c), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, preview)
}

// POST /api/invitations/:token/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req services.AcceptInput
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.invitations.Accept(requestContext(c), c.Param("token"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Accept has committed; a signing failure still answers 201, without a token.
	payload := acceptResponse{
		User:      result.User.Public(),
		Workspace: workspaceRef{ID: result.Workspace.ID, Name: result.Workspace.Name},
	}
	issued, err := h.jwt.GenerateAccessToken(result.User.ID)
	if err != nil {
		logger.WithModule("handlers").Warn("issue access token after accept",
			zap.String("user_id", result.User.ID),
			zap.Error(err),
		)
	} else {
		payload.Token = issued.Token
	}

	response.Created(c, payload)
}
