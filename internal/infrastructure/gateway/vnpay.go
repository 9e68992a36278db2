// Package gateway implements the payment provider adapters: request
// builders, signature verifiers and callback parsers. Each adapter is
// constructed from its own config object and normalizes provider payloads
// into application.CallbackResult before they reach the workflow.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/config"
	"github.com/minhlq/charterdesk/internal/domain"
)

const (
	vnpVersion     = "2.1.0"
	vnpTimeLayout  = "20060102150405"
	vnpCodeSuccess = "00"
)

// VNPayAdapter implements the VNPay hosted-checkout protocol: a signed,
// sorted query string redirect out, and a signed IPN query string back.
// VNPay reports amounts multiplied by 100.
type VNPayAdapter struct {
	tmnCode    string
	hashSecret string
	payURL     string
}

func NewVNPayAdapter(cfg config.VNPayConfig) *VNPayAdapter {
	return &VNPayAdapter{
		tmnCode:    cfg.TmnCode,
		hashSecret: cfg.HashSecret,
		payURL:     cfg.PayURL,
	}
}

func (a *VNPayAdapter) Method() domain.PaymentMethod {
	return domain.MethodVNPay
}

func (a *VNPayAdapter) BuildPaymentRequest(ctx context.Context, txn *domain.Transaction, booking *domain.Booking, returnURL string) (*application.PaymentInstruction, error) {
	now := time.Now()
	params := map[string]string{
		"vnp_Version":    vnpVersion,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    a.tmnCode,
		"vnp_Amount":     strconv.FormatInt(txn.Amount*100, 10),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     txn.Ref,
		"vnp_OrderInfo":  "Payment for booking " + booking.Code,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  returnURL,
		"vnp_IpAddr":     "127.0.0.1",
		"vnp_CreateDate": now.Format(vnpTimeLayout),
	}
	if txn.ExpiresAt != nil {
		params["vnp_ExpireDate"] = txn.ExpiresAt.Format(vnpTimeLayout)
	}

	signedQuery := sortedQuery(params)
	secureHash := a.sign(signedQuery)

	return &application.PaymentInstruction{
		RedirectURL: a.payURL + "?" + signedQuery + "&vnp_SecureHash=" + secureHash,
		Metadata: map[string]string{
			"order_id": txn.Ref,
		},
	}, nil
}

// VerifySignature recomputes the HMAC over the sorted vnp_ parameters and
// compares it with vnp_SecureHash from the payload.
func (a *VNPayAdapter) VerifySignature(raw []byte) bool {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return false
	}
	received := values.Get("vnp_SecureHash")
	if received == "" {
		return false
	}

	params := make(map[string]string, len(values))
	for key := range values {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		if strings.HasPrefix(key, "vnp_") {
			params[key] = values.Get(key)
		}
	}

	expected := a.sign(sortedQuery(params))
	return hmac.Equal([]byte(strings.ToLower(received)), []byte(expected))
}

func (a *VNPayAdapter) ParseCallback(raw []byte) (*application.CallbackResult, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse vnpay callback: %w", err)
	}

	ref := values.Get("vnp_TxnRef")
	if ref == "" {
		return nil, fmt.Errorf("vnpay callback missing vnp_TxnRef")
	}
	rawAmount, err := strconv.ParseInt(values.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("vnpay callback has invalid vnp_Amount: %w", err)
	}

	code := values.Get("vnp_ResponseCode")
	result := &application.CallbackResult{
		ReferenceCode: ref,
		GatewayAmount: rawAmount / 100,
		Success:       code == vnpCodeSuccess,
		GatewayTxnID:  values.Get("vnp_TransactionNo"),
	}
	if !result.Success {
		result.FailureReason = "vnpay response code " + code
	}
	return result, nil
}

func (a *VNPayAdapter) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(a.hashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// sortedQuery encodes params as key=value pairs joined by &, keys in
// lexicographic order, as VNPay requires for hashing.
func sortedQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+url.QueryEscape(params[key]))
	}
	return strings.Join(pairs, "&")
}
