package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer sends account emails. The SMTP implementation is swapped for a
// recorder in tests.
type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

// smtpMailer delivers over SMTP using MAIL_* environment settings.
type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func newSMTPMailer() *smtpMailer {
	port := 587
	if v := os.Getenv("MAIL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "noreply@example.com"
	}
	return &smtpMailer{
		host:     os.Getenv("MAIL_SERVER"),
		port:     port,
		username: os.Getenv("MAIL_USERNAME"),
		password: os.Getenv("MAIL_PASSWORD"),
		from:     from,
	}
}

func (m *smtpMailer) SendPasswordReset(to, resetURL string) error {
	if m.host == "" {
		return fmt.Errorf("MAIL_SERVER not configured")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset Your Password")
	msg.SetBody("text/plain", "Click the link to reset your password: "+resetURL)

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}
