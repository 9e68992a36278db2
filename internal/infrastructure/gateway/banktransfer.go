package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/config"
	"github.com/minhlq/charterdesk/internal/domain"
)

// BankTransferAdapter covers manual transfers to the company account. There
// is no gateway round trip: the instruction tells the customer where to
// send the money with the transaction reference as transfer memo, and the
// "callback" is an operator confirmation payload signed with an internal
// secret.
type BankTransferAdapter struct {
	accountName   string
	accountNumber string
	bankName      string
	confirmSecret string
}

func NewBankTransferAdapter(cfg config.BankConfig) *BankTransferAdapter {
	return &BankTransferAdapter{
		accountName:   cfg.AccountName,
		accountNumber: cfg.AccountNumber,
		bankName:      cfg.BankName,
		confirmSecret: cfg.ConfirmSecret,
	}
}

func (a *BankTransferAdapter) Method() domain.PaymentMethod {
	return domain.MethodBankTransfer
}

func (a *BankTransferAdapter) BuildPaymentRequest(ctx context.Context, txn *domain.Transaction, booking *domain.Booking, returnURL string) (*application.PaymentInstruction, error) {
	return &application.PaymentInstruction{
		Metadata: map[string]string{
			"bank_name":      a.bankName,
			"account_name":   a.accountName,
			"account_number": a.accountNumber,
			"amount":         strconv.FormatInt(txn.Amount, 10),
			"transfer_memo":  txn.Ref,
		},
	}, nil
}

// bankConfirm is the operator confirmation payload posted after the
// transfer shows up on the bank statement.
type bankConfirm struct {
	ReferenceCode string `json:"reference_code"`
	Amount        int64  `json:"amount"`
	BankTxnID     string `json:"bank_txn_id"`
	ConfirmedBy   string `json:"confirmed_by"`
	Signature     string `json:"signature"`
}

func (a *BankTransferAdapter) VerifySignature(raw []byte) bool {
	var confirm bankConfirm
	if err := json.Unmarshal(raw, &confirm); err != nil {
		return false
	}
	expected := a.sign(confirm.ReferenceCode, confirm.Amount)
	return hmac.Equal([]byte(confirm.Signature), []byte(expected))
}

func (a *BankTransferAdapter) ParseCallback(raw []byte) (*application.CallbackResult, error) {
	var confirm bankConfirm
	if err := json.Unmarshal(raw, &confirm); err != nil {
		return nil, fmt.Errorf("parse bank transfer confirmation: %w", err)
	}
	if confirm.ReferenceCode == "" {
		return nil, fmt.Errorf("bank transfer confirmation missing reference_code")
	}

	return &application.CallbackResult{
		ReferenceCode: confirm.ReferenceCode,
		GatewayAmount: confirm.Amount,
		Success:       true,
		GatewayTxnID:  confirm.BankTxnID,
	}, nil
}

// SignConfirmation produces the signature an operator tool attaches to a
// confirmation payload.
func (a *BankTransferAdapter) SignConfirmation(referenceCode string, amount int64) string {
	return a.sign(referenceCode, amount)
}

func (a *BankTransferAdapter) sign(referenceCode string, amount int64) string {
	mac := hmac.New(sha256.New, []byte(a.confirmSecret))
	mac.Write([]byte(referenceCode + ":" + strconv.FormatInt(amount, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
