package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/xaenox/docdesk/internal/models"
	"gopkg.in/gomail.v2"
)

type EmailConfig struct {
	Host             string
	Port             int
	Username         string
	Password         string
	From             string
	SalesTo          string
	SendConfirmation bool
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email notifies the sales inbox and, optionally, confirms to the requester.
type Email struct {
	sender mailSender
	cfg    EmailConfig
}

func NewEmail(cfg EmailConfig) *Email {
	return &Email{
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cfg:    cfg,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) LeadSubmitted(ctx context.Context, lead *models.Lead) error {
	sales, err := e.salesMessage(lead)
	if err != nil {
		return err
	}
	msgs := []*gomail.Message{sales}

	if e.cfg.SendConfirmation {
		confirmation, err := e.confirmationMessage(lead)
		if err != nil {
			return err
		}
		msgs = append(msgs, confirmation)
	}

	if err := e.sender.DialAndSend(msgs...); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

var salesTemplate = template.Must(template.New("sales").Parse(`<html>
<body>
	<h2>New callback request ({{.Priority}} priority)</h2>
	<p><strong>{{.Name}}</strong>{{if .Company}} from {{.Company}}{{end}} asked to be called {{.BestTimeToCall}} ({{.Timezone}}).</p>
	<ul>
		<li>Email: {{.Email}}</li>
		<li>Phone: {{.Phone}}</li>
		<li>Interest: {{.Interest}}</li>
	</ul>
	<p>Question:</p>
	<blockquote>{{.Question}}</blockquote>
</body>
</html>`))

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<html>
<body>
	<h2>Thanks, {{.Name}}!</h2>
	<p>We received your callback request and will contact you within 24 hours.</p>
	<p>Your question:</p>
	<blockquote>{{.Question}}</blockquote>
</body>
</html>`))

func (e *Email) salesMessage(lead *models.Lead) (*gomail.Message, error) {
	m, err := e.newMessage(salesTemplate, lead)
	if err != nil {
		return nil, err
	}
	m.SetHeader("To", e.cfg.SalesTo)
	m.SetHeader("Reply-To", lead.Email)
	m.SetHeader("Subject", fmt.Sprintf("[%s] Callback request from %s", lead.Priority, lead.Name))
	return m, nil
}

func (e *Email) confirmationMessage(lead *models.Lead) (*gomail.Message, error) {
	m, err := e.newMessage(confirmationTemplate, lead)
	if err != nil {
		return nil, err
	}
	m.SetHeader("To", lead.Email)
	m.SetHeader("Subject", "We'll call you back soon")
	return m, nil
}

func (e *Email) newMessage(tmpl *template.Template, lead *models.Lead) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, lead); err != nil {
		return nil, fmt.Errorf("error rendering %s email: %w", tmpl.Name(), err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetBody("text/html", body.String())
	return m, nil
}
