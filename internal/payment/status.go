package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/imrishuroy/go-storefront/internal/apperr"
)

type statusResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
		ResponseCode          string `json:"responseCode"`
	} `json:"data"`
}

// Result is the gateway's verdict on one payment attempt.
type Result struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	Success               bool   `json:"success"`
	State                 string `json:"state,omitempty"`
	Code                  string `json:"code,omitempty"`
	ProviderTransactionID string `json:"providerTransactionId,omitempty"`
	AmountMinor           int64  `json:"amount,omitempty"`
}

// StatusReceiver asks the gateway how a payment attempt ended.
type StatusReceiver struct {
	cfg  Config
	http *http.Client
}

func NewStatusReceiver(cfg Config) *StatusReceiver {
	return &StatusReceiver{cfg: cfg, http: cfg.httpClient()}
}

// Check queries the status of one transaction. A missing id or missing credentials fail
// before any call. Success mirrors the gateway's success flag.
func (s *StatusReceiver) Check(ctx context.Context, merchantTransactionID string) (*Result, error) {
	if merchantTransactionID == "" {
		return nil, apperr.Validation("id", "Missing transaction ID")
	}
	if err := s.cfg.ready(); err != nil {
		return nil, apperr.Internal("payment configuration", err)
	}

	path := StatusPath(s.cfg.MerchantID, merchantTransactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.baseURL()+path, nil)
	if err != nil {
		return nil, apperr.Internal("payment status check", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", StatusChecksum(s.cfg.MerchantID, merchantTransactionID, s.cfg.SaltKey, s.cfg.index()))
	req.Header.Set("X-MERCHANT-ID", s.cfg.MerchantID)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, apperr.Internal("payment status check", fmt.Errorf("call gateway: %w", err))
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Internal("payment status check", fmt.Errorf("read gateway response: %w", err))
	}

	var sr statusResponse
	decodeErr := json.Unmarshal(raw, &sr)
	log.Printf("[payment] status txn=%s status=%d success=%t state=%s", merchantTransactionID, resp.StatusCode, sr.Success, sr.Data.State)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Upstream(resp.StatusCode, "payment status check", fmt.Errorf("gateway status %d: %s", resp.StatusCode, sr.Message))
	}
	if decodeErr != nil {
		return nil, apperr.Upstream(http.StatusBadGateway, "payment status check", fmt.Errorf("decode gateway response: %w", decodeErr))
	}

	return &Result{
		MerchantTransactionID: merchantTransactionID,
		Success:               sr.Success,
		State:                 sr.Data.State,
		Code:                  sr.Code,
		ProviderTransactionID: sr.Data.TransactionID,
		AmountMinor:           sr.Data.Amount,
	}, nil
}
