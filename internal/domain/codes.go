package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reference codes are time-prefixed so support staff can eyeball when a
// record was created, with a random suffix for uniqueness under concurrent
// creation. The database enforces uniqueness as the final arbiter.

func randomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(s[:n])
}

// NewBookingCode allocates a customer-facing booking code.
func NewBookingCode(now time.Time) string {
	return fmt.Sprintf("BK%s%s", now.Format("060102"), randomSuffix(6))
}

// NewTransactionRef allocates the ledger reference used as the gateway order id.
func NewTransactionRef(now time.Time) string {
	return fmt.Sprintf("CD%s%s", now.Format("060102150405"), randomSuffix(6))
}

// NewConfirmationCode allocates the code sent to the customer on confirmation.
func NewConfirmationCode(now time.Time) string {
	return fmt.Sprintf("CF%s%s", now.Format("060102"), randomSuffix(6))
}

// NewInvoiceNumber derives the invoice number from the issue date plus a
// timestamp suffix.
func NewInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV%s-%06d", now.Format("20060102"), now.UnixNano()/1000%1000000)
}
