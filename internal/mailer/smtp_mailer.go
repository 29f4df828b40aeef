package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// SMTPMailer implements the Mailer interface using net/smtp.
type SMTPMailer struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	senderName string
	logger     *zap.Logger
}

// NewSMTPMailer creates a new SMTPMailer.
func NewSMTPMailer(host string, port int, username, password, fromEmail, senderName string, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       fromEmail,
		senderName: senderName,
		logger:     logger.Named("SMTPMailer"),
	}
}

// SendConfirmationCode sends the email-confirmation code over SMTP.
func (s *SMTPMailer) SendConfirmationCode(toEmail, code string) error {
	s.logger.Info("Sending confirmation code via SMTP",
		zap.String("toEmail", toEmail),
		zap.String("smtpHost", s.host),
		zap.Int("smtpPort", s.port))

	subject := "Confirm Your Email Address"
	body := fmt.Sprintf("Your confirmation code is: %s\r\n\r\n"+
		"If you did not request this, please ignore this email.\r\n", code)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.senderName, s.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", toEmail))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.from, []string{toEmail}, []byte(msg.String())); err != nil {
		s.logger.Error("Failed to send confirmation email", zap.String("toEmail", toEmail), zap.Error(err))
		return err
	}
	s.logger.Info("Confirmation email sent", zap.String("toEmail", toEmail))
	return nil
}
