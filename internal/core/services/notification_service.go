package services

import (
	"context"
	"fmt"
	"net/smtp"

	"loanbook/internal/config"
	"loanbook/internal/core/domain"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// EmailNotifier sends reminders over SMTP
type EmailNotifier struct {
	cfg  config.SMTPConfig
	log  *logrus.Logger
	send func(e *email.Email) error
}

// NewEmailNotifier creates an SMTP notifier
func NewEmailNotifier(cfg config.SMTPConfig, log *logrus.Logger) *EmailNotifier {
	n := &EmailNotifier{cfg: cfg, log: log}
	n.send = n.sendSMTP
	return n
}

// NotifyInstallmentDue e-mails the borrower about an installment due today
func (n *EmailNotifier) NotifyInstallmentDue(ctx context.Context, r Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Email == "" {
		return fmt.Errorf("borrower %s has no e-mail address", r.Username)
	}

	e := n.compose(r)
	if err := n.send(e); err != nil {
		n.log.WithField("to", r.Email).WithError(err).Error("failed to send reminder e-mail")
		return fmt.Errorf("failed to send reminder: %w", err)
	}

	n.log.WithFields(logrus.Fields{"to": r.Email, "subject": e.Subject}).Info("reminder e-mail sent")
	return nil
}

func (n *EmailNotifier) compose(r Reminder) *email.Email {
	e := email.NewEmail()
	e.From = n.cfg.SenderEmail
	e.To = []string{r.Email}
	e.Subject = fmt.Sprintf("Installment due today on loan #%d", r.LoanID)

	body := fmt.Sprintf("Dear %s,\n\n", r.Username)
	body += fmt.Sprintf(
		"An installment of %d %s on loan #%d is due today (%s).\n",
		r.Amount, r.CurrencyCode, r.LoanID, r.DueDate.Format(domain.DateLayout),
	)
	if r.Status == domain.RepaymentStatusPartial {
		body += fmt.Sprintf("A previous overpayment of %d %s has been credited to it.\n", r.Outstanding, r.CurrencyCode)
	}
	body += "\nBest regards,\nLoanbook"
	e.Text = []byte(body)

	return e
}

func (n *EmailNotifier) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	return e.Send(addr, auth)
}

// LogNotifier only logs reminders. Used when SMTP is not configured.
type LogNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier creates a logging notifier
func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// NotifyInstallmentDue logs the reminder
func (n *LogNotifier) NotifyInstallmentDue(_ context.Context, r Reminder) error {
	n.log.WithFields(logrus.Fields{
		"username":       r.Username,
		"loan_id":        r.LoanID,
		"installment_id": r.InstallmentID,
		"amount":         r.Amount,
		"currency":       r.CurrencyCode,
		"due_date":       r.DueDate.Format(domain.DateLayout),
	}).Info("installment due")
	return nil
}
