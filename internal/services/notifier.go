package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/charlesng35/track/internal/models"
)

const (
	defaultFrontendURL = "http://localhost:5173"
	defaultProductName = "Track"
)

var (
	invitationText = texttemplate.Must(texttemplate.New("invitation").Parse(
		`Hello,

{{.InviterName}} has invited you to join the "{{.WorkspaceName}}" workspace on {{.Product}} as {{.Role}}.

Create your account and join the workspace:
{{.Link}}

This invitation expires in {{.ExpiresIn}}. If you did not expect this email, you can ignore it.
`))

	invitationHTML = htmltemplate.Must(htmltemplate.New("invitation").Parse(
		`<p>Hello,</p>
<p><strong>{{.InviterName}}</strong> has invited you to join the <strong>{{.WorkspaceName}}</strong> workspace on {{.Product}} as {{.Role}}.</p>
<p><a href="{{.Link}}">Accept invitation</a></p>
<p>This invitation expires in {{.ExpiresIn}}. If you did not expect this email, you can ignore it.</p>
`))

	welcomeText = texttemplate.Must(texttemplate.New("welcome").Parse(
		`Hi {{.Name}},

Welcome to {{.Product}}! Your account is ready and you are now a member of "{{.WorkspaceName}}".

Sign in at {{.Link}}
`))

	welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome").Parse(
		`<p>Hi {{.Name}},</p>
<p>Welcome to {{.Product}}! Your account is ready and you are now a member of <strong>{{.WorkspaceName}}</strong>.</p>
<p><a href="{{.Link}}">Open {{.Product}}</a></p>
`))
)

// Notifier renders outbound emails into outbox rows.
type Notifier struct {
	frontendURL string
	product     string
}

// NewNotifier returns a renderer whose links point at frontendURL.
func NewNotifier(frontendURL string) *Notifier {
	frontendURL = strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	if frontendURL == "" {
		frontendURL = defaultFrontendURL
	}
	return &Notifier{frontendURL: frontendURL, product: defaultProductName}
}

// InvitationLink is the onboarding URL carrying token.
func (n *Notifier) InvitationLink(token string) string {
	return fmt.Sprintf("%s/onboarding?token=%s", n.frontendURL, url.QueryEscape(token))
}

// InvitationEmail describes the variables of an invitation message.
type InvitationEmail struct {
	To            string
	InviterName   string
	WorkspaceName string
	Role          models.WorkspaceRole
	Token         string
	ExpiresIn     string
}

// Invitation renders an invitation message.
func (n *Notifier) Invitation(in InvitationEmail) (models.NotificationOutbox, error) {
	data := map[string]any{
		"InviterName":   fallback(in.InviterName, "A teammate"),
		"WorkspaceName": in.WorkspaceName,
		"Role":          string(in.Role),
		"Link":          n.InvitationLink(in.Token),
		"ExpiresIn":     fallback(in.ExpiresIn, "72 hours"),
		"Product":       n.product,
	}

	text, html, err := render(invitationText, invitationHTML, data)
	if err != nil {
		return models.NotificationOutbox{}, fmt.Errorf("notifier: render invitation: %w", err)
	}

	return models.NotificationOutbox{
		Kind:      models.NotificationKindInvitation,
		Recipient: in.To,
		Subject:   fmt.Sprintf("You've been invited to join %s on %s", in.WorkspaceName, n.product),
		TextBody:  text,
		HTMLBody:  html,
		Status:    models.OutboxStatusPending,
	}, nil
}

// Welcome renders the message sent after an invitation is accepted.
func (n *Notifier) Welcome(user models.User, workspaceName string) (models.NotificationOutbox, error) {
	data := map[string]any{
		"Name":          user.DisplayName(),
		"WorkspaceName": workspaceName,
		"Link":          n.frontendURL,
		"Product":       n.product,
	}

	text, html, err := render(welcomeText, welcomeHTML, data)
	if err != nil {
		return models.NotificationOutbox{}, fmt.Errorf("notifier: render welcome: %w", err)
	}

	return models.NotificationOutbox{
		Kind:      models.NotificationKindWelcome,
		Recipient: user.Email,
		Subject:   fmt.Sprintf("Welcome to %s", n.product),
		TextBody:  text,
		HTMLBody:  html,
		Status:    models.OutboxStatusPending,
	}, nil
}

func render(text *texttemplate.Template, html *htmltemplate.Template, data map[string]any) (string, string, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := text.Execute(&textBuf, data); err != nil {
		return "", "", err
	}
	if err := html.Execute(&htmlBuf, data); err != nil {
		return "", "", err
	}
	return textBuf.String(), htmlBuf.String(), nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
