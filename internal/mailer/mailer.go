package mailer

// Mailer defines the interface for sending email-confirmation codes.
type Mailer interface {
	SendConfirmationCode(toEmail, code string) error
}
