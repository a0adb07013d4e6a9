package client

import (
	"fmt"
	"net/smtp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"zion-admin/internal/config"
)

// Mailer sends delivery emails. The SMTP implementation supports a
// dry-run mode that echoes the message back without talking to the
// server.
type Mailer interface {
	Send(msg *EmailMessage) (*SendResult, error)
}

type EmailMessage struct {
	To      string
	Subject string
	Body    string
	ReplyTo string
}

type SendResult struct {
	OK      bool   `json:"ok"`
	DryRun  bool   `json:"dry_run"`
	Preview string `json:"preview,omitempty"`
	Error   string `json:"error,omitempty"`
}

type smtpMailerImpl struct {
	cfg *config.SMTP
}

func NewSMTPMailer(cfg *config.SMTP) Mailer {
	return &smtpMailerImpl{cfg: cfg}
}

func (m *smtpMailerImpl) Send(msg *EmailMessage) (*SendResult, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("empty recipient")
	}

	if m.cfg.DryRun {
		return &SendResult{OK: true, DryRun: true, Preview: truncatePreview(msg.Body, 4000)}, nil
	}

	if m.cfg.User == "" || m.cfg.Pass == "" || m.fromEmail() == "" {
		return nil, fmt.Errorf("SMTP_USER/SMTP_PASS/SMTP_FROM_EMAIL missing")
	}

	// Microsoft servers tend to reject a From that differs from the
	// authenticated user.
	if !strings.EqualFold(m.fromEmail(), m.cfg.User) {
		log.Warn().Str("from", m.fromEmail()).Str("user", m.cfg.User).
			Msg("SMTP from differs from authenticated user; some servers reject this")
	}

	raw := m.buildRaw(msg)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.fromEmail(), []string{msg.To}, raw); err != nil {
		return &SendResult{OK: false, Error: err.Error()}, nil
	}

	return &SendResult{OK: true}, nil
}

// truncatePreview caps s at max bytes without splitting a multi-byte
// rune.
func truncatePreview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (m *smtpMailerImpl) fromEmail() string {
	if m.cfg.FromEmail != "" {
		return m.cfg.FromEmail
	}
	return m.cfg.User
}

func (m *smtpMailerImpl) buildRaw(msg *EmailMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.fromEmail())
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
