// Package services содержит отправку почтовых уведомлений о подписках.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/smtp"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// SenderService отправляет письма владельцам бизнесов по сообщениям
// из очередей уведомлений.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendUpcomingExpiryNotice отправляет предупреждение о скором окончании подписки.
func (s *SenderService) SendUpcomingExpiryNotice(body []byte) error {
	var notice models.ExpiryNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Your subscription is expiring soon"
	bodyText := fmt.Sprintf(
		"Hello, %s!\n\nYour %s subscription expires on %s (%d day(s) remaining).\n\nPlease renew it to keep access to the POS for you and your staff.",
		notice.Username, notice.PlanName, notice.EndsAt.Format("02.01.2006"), notice.DaysRemaining)

	return s.sendEmail([]string{notice.Email}, subject, bodyText)
}

// SendExpiredNotice отправляет уведомление об истёкшей подписке.
func (s *SenderService) SendExpiredNotice(body []byte) error {
	var notice models.ExpiryNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Your subscription has expired"
	bodyText := fmt.Sprintf(
		"Hello, %s!\n\nYour %s subscription expired on %s.\n\nEmployee access to the POS is suspended until the subscription is renewed.",
		notice.Username, notice.PlanName, notice.EndsAt.Format("02.01.2006"))

	return s.sendEmail([]string{notice.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
