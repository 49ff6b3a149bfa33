package mailer

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	texttemplate "text/template"
	"time"

	"watchly/internal/core"
)

//go:embed "templates"
var templateFS embed.FS

const notificationTemplate = "notification.tmpl"

// Mailer delivers notification emails through the SMTP2GO HTTP API.
// It makes exactly one attempt per Send; retrying is the caller's job.
type Mailer struct {
	apiKey   string
	sender   string
	endpoint string
	client   *http.Client
	html     *template.Template
	plain    *texttemplate.Template
}

// SMTP2GO API request structure
type SMTP2GORequest struct {
	APIKey   string   `json:"api_key"`
	To       []string `json:"to"`
	Sender   string   `json:"sender"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body"`
	HtmlBody string   `json:"html_body"`
}

// SMTP2GO API response structure
type SMTP2GOResponse struct {
	RequestID string `json:"request_id"`
	Data      struct {
		Succeeded int    `json:"succeeded"`
		Failed    int    `json:"failed"`
		EmailID   string `json:"email_id"`
		Error     string `json:"error"`
	} `json:"data"`
}

type templateData struct {
	Body   string
	SentAt string
}

func New(config core.MailerConfig) (*Mailer, error) {
	html, err := template.New("email").ParseFS(templateFS, "templates/"+notificationTemplate)
	if err != nil {
		return nil, core.NewInternalError("failed to parse email templates", err)
	}

	// the plain part must not be HTML-escaped
	plain, err := texttemplate.New("email").ParseFS(templateFS, "templates/"+notificationTemplate)
	if err != nil {
		return nil, core.NewInternalError("failed to parse email templates", err)
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = core.DefaultSMTP2GOEndpoint
	}

	return &Mailer{
		apiKey:   config.APIKey,
		sender:   config.Sender,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		html:  html,
		plain: plain,
	}, nil
}

// Send renders the notification bodies and posts them to SMTP2GO. A missing
// API key or sender fails with a CONFIGURATION_ERROR and rejected requests
// fail with a VALIDATION_ERROR. Anything else is a plain, retryable error.
func (m *Mailer) Send(ctx context.Context, recipient, subject, body string) error {
	if m.apiKey == "" {
		return core.NewConfigurationError("SMTP2GO API key is not configured", nil)
	}
	if m.sender == "" {
		return core.NewConfigurationError("SMTP2GO sender is not configured", nil)
	}
	if recipient == "" {
		return core.NewValidationError("recipient is required", nil)
	}

	data := templateData{
		Body:   body,
		SentAt: time.Now().UTC().Format(time.RFC1123),
	}

	plainBody := new(bytes.Buffer)
	if err := m.plain.ExecuteTemplate(plainBody, "plainBody", data); err != nil {
		return core.NewInternalError("failed to render plain body", err)
	}

	htmlBody := new(bytes.Buffer)
	if err := m.html.ExecuteTemplate(htmlBody, "htmlBody", data); err != nil {
		return core.NewInternalError("failed to render html body", err)
	}

	request := SMTP2GORequest{
		APIKey:   m.apiKey,
		To:       []string{recipient},
		Sender:   m.sender,
		Subject:  subject,
		TextBody: strings.TrimSpace(plainBody.String()),
		HtmlBody: strings.TrimSpace(htmlBody.String()),
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return m.sendViaAPI(ctx, jsonData)
}

func (m *Mailer) sendViaAPI(ctx context.Context, jsonData []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return core.NewConfigurationError("failed to create SMTP2GO request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("SMTP2GO request failed with status: %d", resp.StatusCode)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return core.NewValidationError(
			fmt.Sprintf("SMTP2GO rejected request with status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var response SMTP2GOResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Data.Failed > 0 || response.Data.Error != "" {
		return fmt.Errorf("SMTP2GO reported %d failed recipients: %s", response.Data.Failed, response.Data.Error)
	}

	return nil
}
