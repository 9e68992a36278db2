// Package notify implements the notification port. Actual delivery is an
// external collaborator; this implementation hands the message off to an
// email endpoint and treats every failure as log-only.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/minhlq/charterdesk/internal/domain"
)

// EmailNotifier posts confirmation messages to the mail delivery service.
type EmailNotifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewEmailNotifier(endpoint string, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type confirmationMessage struct {
	To               string `json:"to"`
	Template         string `json:"template"`
	BookingCode      string `json:"booking_code"`
	ConfirmationCode string `json:"confirmation_code"`
	YachtName        string `json:"yacht_name"`
	InvoiceNumber    string `json:"invoice_number"`
	TotalPaid        int64  `json:"total_paid"`
	RemainingAmount  int64  `json:"remaining_amount"`
}

// BookingConfirmed sends the confirmation email. Callers invoke it
// fire-and-forget; an error here never affects the reconciliation.
func (n *EmailNotifier) BookingConfirmed(ctx context.Context, booking *domain.Booking, invoice *domain.Invoice) error {
	msg := confirmationMessage{
		To:          booking.Customer.Email,
		Template:    "booking_confirmed",
		BookingCode: booking.Code,
		YachtName:   booking.Charter.YachtName,
		TotalPaid:   booking.TotalPaid,
	}
	if booking.ConfirmationCode != nil {
		msg.ConfirmationCode = *booking.ConfirmationCode
	}
	if invoice != nil {
		msg.InvoiceNumber = invoice.Number
		msg.RemainingAmount = invoice.RemainingAmount
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error marshalling json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail service returned status %d", resp.StatusCode)
	}

	n.logger.Info("confirmation email queued",
		"booking_code", booking.Code,
		"to", booking.Customer.Email,
	)
	return nil
}
