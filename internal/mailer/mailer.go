// Package mailer renders and delivers transactional email over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// Config carries SMTP connection settings plus the sender identity.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FromName    string
	FrontendURL string
}

// Sender delivers rendered messages over SMTP. Local development points
// it at Mailpit; nothing here is provider specific.
type Sender struct {
	cfg Config
}

// NewSender constructs a Sender instance.
func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<h2>Welcome, {{.Name}}!</h2>
<p>Please confirm your email address to activate your account.</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>This link expires in 24 hours. If you did not sign up, you can ignore this message.</p>`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<h2>You're all set, {{.Name}}!</h2>
<p>Your email has been verified and your account is active.</p>
<p><a href="{{.Link}}">Go to your dashboard</a></p>`))

// SendVerification emails the signed verification link.
func (s *Sender) SendVerification(to, name, token string) error {
	var body bytes.Buffer
	err := verificationTmpl.Execute(&body, map[string]string{
		"Name": name,
		"Link": s.cfg.FrontendURL + "/verify-email?token=" + token,
	})
	if err != nil {
		return fmt.Errorf("mailer: render verification: %w", err)
	}
	return s.send(to, "Verify your email address", body.String())
}

// SendWelcome emails the post-verification greeting.
func (s *Sender) SendWelcome(to, name string) error {
	var body bytes.Buffer
	err := welcomeTmpl.Execute(&body, map[string]string{
		"Name": name,
		"Link": s.cfg.FrontendURL,
	})
	if err != nil {
		return fmt.Errorf("mailer: render welcome: %w", err)
	}
	return s.send(to, "Welcome aboard", body.String())
}

func (s *Sender) send(to, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
