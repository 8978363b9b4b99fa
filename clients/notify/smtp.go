package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"

	"callfloor/config"
)

// SMTPSender delivers OTP codes by email through a plain SMTP relay.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Channel() string {
	return "email"
}

func (s *SMTPSender) SendOTP(ctx context.Context, recipient, code string) error {
	if recipient == "" {
		return fmt.Errorf("agent has no email address on file")
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your login verification code\r\n\r\nYour one-time code is %s. It expires shortly.\r\n",
		s.cfg.From, recipient, code)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	log.Printf("✅ OTP email dispatched to %s", recipient)
	return nil
}

// LogSender is the stand-in used when a channel is not configured. It logs
// the code instead of delivering it, which keeps dev logins usable.
type LogSender struct {
	channel string
}

func NewLogSender(channel string) *LogSender {
	return &LogSender{channel: channel}
}

func (s *LogSender) Channel() string {
	return s.channel
}

func (s *LogSender) SendOTP(ctx context.Context, recipient, code string) error {
	log.Printf("⚠️ %s delivery not configured - OTP for %s is %s", s.channel, recipient, code)
	return nil
}
