package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/money"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

// payPayload is signed and sent base64-encoded. Field order is the wire order.
type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Name                  string            `json:"name"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type payResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL    string `json:"url"`
				Method string `json:"method"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// Initiation is the outcome of a successful initiation.
type Initiation struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	RedirectURL           string `json:"redirectUrl"`
	AmountMinor           int64  `json:"amount"`
	Code                  string `json:"code,omitempty"`
}

// Initiator starts payments on the gateway.
type Initiator struct {
	cfg      Config
	http     *http.Client
	validate *validatorv10.Validate
	nowFunc  func() time.Time
}

func NewInitiator(cfg Config) *Initiator {
	return &Initiator{
		cfg:      cfg,
		http:     cfg.httpClient(),
		validate: validation.New(),
		nowFunc:  time.Now,
	}
}

// Initiate validates req, signs the pay request and returns where to send the user.
// Invalid input fails with a validation error before anything is sent. A non-2xx answer
// becomes an upstream error with the gateway's status, a 2xx answer without a redirect URL
// an upstream error with 502, anything else an internal error.
func (in *Initiator) Initiate(ctx context.Context, req validation.PaymentRequest) (*Initiation, error) {
	if err := in.validate.Struct(req); err != nil {
		if fe := validation.FirstError(err); fe != nil {
			return nil, fe
		}
		return nil, apperr.Validation("", err.Error())
	}
	if err := in.cfg.ready(); err != nil {
		return nil, apperr.Internal("payment configuration", err)
	}

	now := in.nowFunc()
	txn := req.TransactionID
	if txn == "" {
		txn = NewTransactionID(req.OrderID, now)
	}
	amount, err := money.FloatToMinor(req.Amount)
	if err != nil {
		return nil, apperr.Validation("amount", "amount cannot be charged")
	}
	callback := in.cfg.CallbackURL(txn, req.OrderID)

	payload, err := json.Marshal(payPayload{
		MerchantID:            in.cfg.MerchantID,
		MerchantTransactionID: txn,
		MerchantUserID:        "MUID" + strconv.FormatInt(now.UnixMilli(), 10),
		Name:                  req.Name,
		Amount:                amount,
		RedirectURL:           callback,
		RedirectMode:          "POST",
		CallbackURL:           callback,
		MobileNumber:          req.Phone,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	})
	if err != nil {
		return nil, apperr.Internal("payment initiation", err)
	}
	encoded := base64.StdEncoding.EncodeToString(payload)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, apperr.Internal("payment initiation", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, in.cfg.baseURL()+PayPath, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Internal("payment initiation", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", Checksum(encoded, PayPath, in.cfg.SaltKey, in.cfg.index()))

	resp, err := in.http.Do(httpReq)
	if err != nil {
		return nil, apperr.Internal("payment initiation", fmt.Errorf("call gateway: %w", err))
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Internal("payment initiation", fmt.Errorf("read gateway response: %w", err))
	}

	var pr payResponse
	decodeErr := json.Unmarshal(raw, &pr)
	log.Printf("[payment] pay txn=%s status=%d code=%s", txn, resp.StatusCode, pr.Code)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Upstream(resp.StatusCode, "payment initiation", fmt.Errorf("gateway status %d: %s", resp.StatusCode, gatewayMessage(pr, raw)))
	}
	if decodeErr != nil {
		return nil, apperr.Upstream(http.StatusBadGateway, "payment initiation", fmt.Errorf("decode gateway response: %w", decodeErr))
	}
	redirect := pr.Data.InstrumentResponse.RedirectInfo.URL
	if redirect == "" {
		return nil, apperr.Upstream(http.StatusBadGateway, "payment initiation", fmt.Errorf("%w (code %q: %s)", ErrNoRedirect, pr.Code, pr.Message))
	}

	return &Initiation{
		MerchantTransactionID: txn,
		RedirectURL:           redirect,
		AmountMinor:           amount,
		Code:                  pr.Code,
	}, nil
}

func gatewayMessage(pr payResponse, raw []byte) string {
	if pr.Message != "" {
		return pr.Message
	}
	const limit = 200
	if len(raw) > limit {
		raw = raw[:limit]
	}
	return string(raw)
}
