// Package mailer sends transactional mail over SMTP. When SMTP is not
// configured the mailer is a no-op, so handlers can call it unconditionally.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/postpilot-cms/postpilot/internal/config"
	log "github.com/sirupsen/logrus"
)

type Mailer struct {
	cfg          config.SMTPConfig
	frontendHost string
	projectName  string
	resetExpiry  time.Duration
}

func New(cfg config.SMTPConfig, frontendHost string, resetExpiry time.Duration) *Mailer {
	return &Mailer{
		cfg:          cfg,
		frontendHost: frontendHost,
		projectName:  "PostPilot",
		resetExpiry:  resetExpiry,
	}
}

// Enabled reports whether mail delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled()
}

var resetPasswordTmpl = template.Must(template.New("reset").Parse(`
<p>Hello {{.Username}},</p>
<p>We received a request to reset the password for your {{.ProjectName}} account.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>This link is valid for {{.ValidHours}} hours. If you did not request a
password reset, you can ignore this email.</p>
`))

var newAccountTmpl = template.Must(template.New("account").Parse(`
<p>Hello {{.Username}},</p>
<p>An account has been created for you on {{.ProjectName}}.</p>
<p>Email: {{.Email}}<br>Password: {{.Password}}</p>
<p><a href="{{.Link}}">Log in</a></p>
`))

// SendPasswordReset mails the reset link for the given token.
func (m *Mailer) SendPasswordReset(emailTo, token string) error {
	var body bytes.Buffer
	err := resetPasswordTmpl.Execute(&body, map[string]any{
		"Username":    emailTo,
		"ProjectName": m.projectName,
		"Link":        fmt.Sprintf("%s/reset-password?token=%s", m.frontendHost, token),
		"ValidHours":  int(m.resetExpiry.Hours()),
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s - Password recovery for user %s", m.projectName, emailTo)
	return m.send(emailTo, subject, body.String())
}

// SendNewAccount mails initial credentials to a user created by an admin.
func (m *Mailer) SendNewAccount(emailTo, password string) error {
	var body bytes.Buffer
	err := newAccountTmpl.Execute(&body, map[string]any{
		"Username":    emailTo,
		"Email":       emailTo,
		"Password":    password,
		"ProjectName": m.projectName,
		"Link":        m.frontendHost,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s - New account for user %s", m.projectName, emailTo)
	return m.send(emailTo, subject, body.String())
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if !m.Enabled() {
		log.WithField("to", to).Debug("smtp not configured, skipping mail")
		return nil
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	log.WithField("to", to).Info("mail sent")
	return nil
}
