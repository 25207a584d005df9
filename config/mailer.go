package config

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

func SendMail(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	s := Current
	if s.SMTPHost == "" || s.SMTPFrom == "" {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.SMTPFrom)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := mail.NewDialer(s.SMTPHost, s.SMTPPort, s.SMTPUser, s.SMTPPass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	// ServerName must match the SMTP hostname, e.g. "smtp.gmail.com".
	d.TLSConfig = &tls.Config{
		ServerName:         s.SMTPHost,
		InsecureSkipVerify: s.SMTPSkipTLSVerify,
	}

	return d.DialAndSend(m)
}
