package payment

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds one gateway round trip.
const DefaultTimeout = 30 * time.Second

// ErrNotConfigured means the merchant id or salt key is missing.
var ErrNotConfigured = errors.New("payment gateway credentials not configured")

// ErrNoRedirect means the gateway accepted the request but sent no redirect URL.
var ErrNoRedirect = errors.New("gateway response has no redirect url")

// Config holds the gateway credentials and endpoints.
type Config struct {
	MerchantID string
	SaltKey    string
	SaltIndex  int
	// BaseURL is the gateway root, e.g. https://api-preprod.phonepe.com/apis/pg-sandbox.
	BaseURL string
	// CallbackBaseURL is the public root of this service; the gateway returns the user to
	// CallbackBaseURL + "/api/status?id=<txn>&order=<order id>".
	CallbackBaseURL string
	HTTPClient      *http.Client
}

func (c Config) ready() error {
	if c.MerchantID == "" || c.SaltKey == "" {
		return ErrNotConfigured
	}
	return nil
}

func (c Config) baseURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}

func (c Config) index() int {
	if c.SaltIndex < 1 {
		return 1
	}
	return c.SaltIndex
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// CallbackURL is where the gateway sends the user and its server callback for txn. The
// order id rides along so the status route never has to guess it from the transaction id;
// it is omitted when empty.
func (c Config) CallbackURL(merchantTransactionID, orderID string) string {
	q := url.Values{"id": {merchantTransactionID}}
	if orderID != "" {
		q.Set("order", orderID)
	}
	return strings.TrimRight(c.CallbackBaseURL, "/") + "/api/status?" + q.Encode()
}
