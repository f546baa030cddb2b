// Package mailer handles outbound email and the response inbox. The SMTP
// sender is the production path; the simulated sender and the file-drop inbox
// keep the clarification loop runnable without mail infrastructure.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/config"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// SendReceipt confirms a dispatched message.
type SendReceipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender dispatches email to candidates and the employer.
type Sender interface {
	Send(ctx context.Context, msg Message) (*SendReceipt, error)
}

// SMTPSender sends via plain SMTP with optional auth.
type SMTPSender struct {
	cfg config.EmailConfig
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (*SendReceipt, error) {
	if msg.To == "" {
		return nil, eris.New("mailer: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "mailer: send")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), s.cfg.SMTPHost)
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, []byte(b.String())); err != nil {
		return nil, eris.Wrapf(err, "mailer: smtp send to %s", msg.To)
	}

	zap.L().Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("message_id", messageID),
	)
	return &SendReceipt{MessageID: messageID, SentAt: time.Now().UTC()}, nil
}

// SimSender records messages in memory and always succeeds. Used for dry runs
// and tests.
type SimSender struct {
	Sent []Message
}

func NewSimSender() *SimSender { return &SimSender{} }

func (s *SimSender) Send(_ context.Context, msg Message) (*SendReceipt, error) {
	s.Sent = append(s.Sent, msg)
	zap.L().Info("[simulation] email send",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return &SendReceipt{
		MessageID: fmt.Sprintf("sim_%s_%d", msg.To, time.Now().UnixNano()),
		SentAt:    time.Now().UTC(),
	}, nil
}
