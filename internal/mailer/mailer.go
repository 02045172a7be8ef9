// Package mailer delivers generated login credentials to customers. The
// billing service treats delivery as best effort: a send failure degrades the
// operation result without undoing the roster insert.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

const credentialsSubject = "Your Cable Account Credentials"

// SMTPConfig carries the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Address  string
	Password string
}

// SMTPMailer sends credential mails over STARTTLS.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer wires an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp port is required")
	}
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, fmt.Errorf("smtp sender address is required")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// SendCredentials mails the login pair to the customer.
func (mailer *SMTPMailer) SendCredentials(ctx context.Context, toEmail string, mobileNumber string, password string) error {
	hostPort := net.JoinHostPort(mailer.cfg.Host, fmt.Sprintf("%d", mailer.cfg.Port))

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", hostPort)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	client, err := smtp.NewClient(conn, mailer.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: mailer.cfg.Host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	authentication := smtp.PlainAuth("", mailer.cfg.Address, mailer.cfg.Password, mailer.cfg.Host)
	if err := client.Auth(authentication); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(mailer.cfg.Address); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	message := buildCredentialsMessage(mailer.cfg.Address, toEmail, mobileNumber, password)
	if _, err := writer.Write([]byte(message)); err != nil {
		writer.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}

func buildCredentialsMessage(from string, to string, mobileNumber string, password string) string {
	var builder strings.Builder
	builder.WriteString("From: " + from + "\r\n")
	builder.WriteString("To: " + to + "\r\n")
	builder.WriteString("Subject: " + credentialsSubject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(`<html><body>` +
		`<h2>Account Created Successfully</h2>` +
		`<p>Dear Customer,</p>` +
		`<p>Your account has been created successfully. Below are your login credentials:</p>` +
		`<p><strong>Mobile Number:</strong> ` + mobileNumber + `<br>` +
		`<strong>Password:</strong> ` + password + `</p>` +
		`<p><strong>Important:</strong> Please keep this information secure and do not share it with anyone.</p>` +
		`</body></html>`)
	builder.WriteString("\r\n")
	return builder.String()
}

// LogMailer stands in when no SMTP credentials are configured. The password
// itself is never logged.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer wires a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendCredentials records that a credential mail would have been sent.
func (mailer *LogMailer) SendCredentials(_ context.Context, toEmail string, mobileNumber string, _ string) error {
	mailer.logger.Info("credential mail suppressed, smtp not configured",
		zap.String("to", toEmail),
		zap.String("mobile_number", mobileNumber),
	)
	return nil
}
