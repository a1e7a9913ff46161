// Package email delivers billing notifications over SMTP.
package email

import (
	"fmt"

	"golang.org/x/text/language"
	xmessage "golang.org/x/text/message"
	"gopkg.in/gomail.v2"

	"github.com/clawncore/colabwize-backend/internal/shared/config"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// SMTPReceiptNotifier sends credit grant receipts through a plain SMTP
// relay. Safe for concurrent use; gomail dials per message.
type SMTPReceiptNotifier struct {
	cfg     *config.EmailConfig
	printer *xmessage.Printer
	logger  logger.Interface
}

// NewSMTPReceiptNotifier creates a new SMTPReceiptNotifier instance.
func NewSMTPReceiptNotifier(cfg *config.EmailConfig, logger logger.Interface) *SMTPReceiptNotifier {
	return &SMTPReceiptNotifier{
		cfg:     cfg,
		printer: xmessage.NewPrinter(language.English),
		logger:  logger,
	}
}

// SendCreditGrantReceipt emails a confirmation after credits land on an
// account.
func (n *SMTPReceiptNotifier) SendCreditGrantReceipt(email string, amount, balance int64, grantType string) error {
	subject := "Your ColabWize credits have arrived"
	body := n.printer.Sprintf(
		"Hi,\n\n%d credits (%s) were added to your ColabWize account.\nYour balance is now %d credits.\n\nThe ColabWize Team",
		amount, grantType, balance,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.Username, n.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send credit receipt: %w", err)
	}

	n.logger.Infow("credit receipt sent", "to", email, "amount", amount)
	return nil
}
