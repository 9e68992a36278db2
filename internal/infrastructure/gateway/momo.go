package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/config"
	"github.com/minhlq/charterdesk/internal/domain"
)

// MoMoAdapter implements the MoMo wallet protocol: a server-to-server
// create-payment call out, and a signed JSON IPN back. Both directions are
// signed with HMAC-SHA256 over a canonical key=value string.
type MoMoAdapter struct {
	partnerCode string
	accessKey   string
	secretKey   string
	endpoint    string
	ipnURL      string
	httpClient  *http.Client
}

func NewMoMoAdapter(cfg config.MoMoConfig) *MoMoAdapter {
	return &MoMoAdapter{
		partnerCode: cfg.PartnerCode,
		accessKey:   cfg.AccessKey,
		secretKey:   cfg.SecretKey,
		endpoint:    cfg.Endpoint,
		ipnURL:      cfg.IpnURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (a *MoMoAdapter) Method() domain.PaymentMethod {
	return domain.MethodMoMo
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	PayURL     string `json:"payUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

func (a *MoMoAdapter) BuildPaymentRequest(ctx context.Context, txn *domain.Transaction, booking *domain.Booking, returnURL string) (*application.PaymentInstruction, error) {
	orderInfo := "Payment for booking " + booking.Code
	rawSignature := "accessKey=" + a.accessKey +
		"&amount=" + strconv.FormatInt(txn.Amount, 10) +
		"&extraData=" +
		"&ipnUrl=" + a.ipnURL +
		"&orderId=" + txn.Ref +
		"&orderInfo=" + orderInfo +
		"&partnerCode=" + a.partnerCode +
		"&redirectUrl=" + returnURL +
		"&requestId=" + txn.Ref +
		"&requestType=captureWallet"

	req := momoCreateRequest{
		PartnerCode: a.partnerCode,
		RequestID:   txn.Ref,
		Amount:      txn.Amount,
		OrderID:     txn.Ref,
		OrderInfo:   orderInfo,
		RedirectURL: returnURL,
		IpnURL:      a.ipnURL,
		RequestType: "captureWallet",
		ExtraData:   "",
		Lang:        "vi",
		Signature:   a.sign(rawSignature),
	}

	resp, err := a.createPayment(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.ResultCode != 0 {
		return nil, fmt.Errorf("momo rejected payment request: %d %s", resp.ResultCode, resp.Message)
	}

	return &application.PaymentInstruction{
		RedirectURL: resp.PayURL,
		Metadata: map[string]string{
			"order_id": txn.Ref,
		},
	}, nil
}

func (a *MoMoAdapter) createPayment(ctx context.Context, req momoCreateRequest) (*momoCreateResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("momo returned status %d: %s", resp.StatusCode, string(body))
	}

	var momoResp momoCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&momoResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}
	return &momoResp, nil
}

type momoIPN struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

func (a *MoMoAdapter) VerifySignature(raw []byte) bool {
	var ipn momoIPN
	if err := json.Unmarshal(raw, &ipn); err != nil {
		return false
	}

	rawSignature := "accessKey=" + a.accessKey +
		"&amount=" + strconv.FormatInt(ipn.Amount, 10) +
		"&extraData=" + ipn.ExtraData +
		"&message=" + ipn.Message +
		"&orderId=" + ipn.OrderID +
		"&orderInfo=" + ipn.OrderInfo +
		"&orderType=" + ipn.OrderType +
		"&partnerCode=" + ipn.PartnerCode +
		"&payType=" + ipn.PayType +
		"&requestId=" + ipn.RequestID +
		"&responseTime=" + strconv.FormatInt(ipn.ResponseTime, 10) +
		"&resultCode=" + strconv.Itoa(ipn.ResultCode) +
		"&transId=" + strconv.FormatInt(ipn.TransID, 10)

	return hmac.Equal([]byte(ipn.Signature), []byte(a.sign(rawSignature)))
}

func (a *MoMoAdapter) ParseCallback(raw []byte) (*application.CallbackResult, error) {
	var ipn momoIPN
	if err := json.Unmarshal(raw, &ipn); err != nil {
		return nil, fmt.Errorf("parse momo callback: %w", err)
	}
	if ipn.OrderID == "" {
		return nil, fmt.Errorf("momo callback missing orderId")
	}

	result := &application.CallbackResult{
		ReferenceCode: ipn.OrderID,
		GatewayAmount: ipn.Amount,
		Success:       ipn.ResultCode == 0,
		GatewayTxnID:  strconv.FormatInt(ipn.TransID, 10),
	}
	if !result.Success {
		result.FailureReason = fmt.Sprintf("momo result code %d: %s", ipn.ResultCode, ipn.Message)
	}
	return result, nil
}

func (a *MoMoAdapter) sign(data string) string {
	mac := hmac.New(sha256.New, []byte(a.secretKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
