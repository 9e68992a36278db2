package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/minhlq/charterdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBankAdapter() *BankTransferAdapter {
	return NewBankTransferAdapter(config.BankConfig{
		AccountName:   "CHARTERDESK JSC",
		AccountNumber: "0123456789",
		BankName:      "Vietcombank",
		ConfirmSecret: "bank-confirm-secret",
	})
}

func signedConfirm(a *BankTransferAdapter, ref string, amount int64, bankTxnID string) []byte {
	payload, _ := json.Marshal(bankConfirm{
		ReferenceCode: ref,
		Amount:        amount,
		BankTxnID:     bankTxnID,
		ConfirmedBy:   "ops@charterdesk.example.com",
		Signature:     a.SignConfirmation(ref, amount),
	})
	return payload
}

func TestBankTransferBuildPaymentRequest(t *testing.T) {
	adapter := testBankAdapter()
	txn, booking := testTxnAndBooking(t)

	instruction, err := adapter.BuildPaymentRequest(context.Background(), txn, booking, "")

	require.NoError(t, err)
	assert.Empty(t, instruction.RedirectURL)
	assert.Equal(t, "Vietcombank", instruction.Metadata["bank_name"])
	assert.Equal(t, "0123456789", instruction.Metadata["account_number"])
	assert.Equal(t, "200000", instruction.Metadata["amount"])
	assert.Equal(t, txn.Ref, instruction.Metadata["transfer_memo"])
}

func TestBankTransferVerifySignature(t *testing.T) {
	adapter := testBankAdapter()

	t.Run("accepts a signed confirmation", func(t *testing.T) {
		assert.True(t, adapter.VerifySignature(signedConfirm(adapter, "CD240101120000ABCDEF", 200_000, "FT24001234")))
	})

	t.Run("rejects a tampered amount", func(t *testing.T) {
		payload, _ := json.Marshal(bankConfirm{
			ReferenceCode: "CD240101120000ABCDEF",
			Amount:        999_999,
			Signature:     adapter.SignConfirmation("CD240101120000ABCDEF", 200_000),
		})
		assert.False(t, adapter.VerifySignature(payload))
	})

	t.Run("rejects junk", func(t *testing.T) {
		assert.False(t, adapter.VerifySignature([]byte("not json")))
	})
}

func TestBankTransferParseCallback(t *testing.T) {
	adapter := testBankAdapter()

	t.Run("parses a confirmation", func(t *testing.T) {
		result, err := adapter.ParseCallback(signedConfirm(adapter, "CD240101120000ABCDEF", 200_000, "FT24001234"))

		require.NoError(t, err)
		assert.Equal(t, "CD240101120000ABCDEF", result.ReferenceCode)
		assert.Equal(t, int64(200_000), result.GatewayAmount)
		assert.True(t, result.Success)
		assert.Equal(t, "FT24001234", result.GatewayTxnID)
	})

	t.Run("rejects a confirmation without a reference", func(t *testing.T) {
		_, err := adapter.ParseCallback([]byte(`{"amount":100}`))
		assert.Error(t, err)
	})
}
