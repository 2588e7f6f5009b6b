package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds one catalog round trip.
const DefaultTimeout = 30 * time.Second

// StatusError is a non-2xx answer of the catalog backend.
type StatusError struct {
	StatusCode  int
	Message     string
	ExistingIDs []string // set when create was rejected for duplicate ids
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog: status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog: status %d: %s", e.StatusCode, e.Message)
}

// ConnectivityError means the backend could not be reached or its answer not read.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("catalog: %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client calls the product REST API. Every method is one round trip; nothing is retried or cached.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the API mounted at baseURL, e.g. http://host:8080/api/products.
// A nil httpClient gets DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Create(ctx context.Context, products []Product) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodPost, "/create_products", products, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all products. An empty catalog is a 404 StatusError.
func (c *Client) List(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/get_all_products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodGet, "/get_product/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id string, u ProductUpdate) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodPut, "/update_product/"+url.PathEscape(id), u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a product and returns the backend's confirmation message.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/delete_product/"+url.PathEscape(id), nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	op := method + " " + path
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("catalog: marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectivityError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectivityError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var eb struct {
			Message     string   `json:"message"`
			ExistingIDs []string `json:"existingProductIds"`
		}
		if json.Unmarshal(raw, &eb) == nil {
			se.Message = eb.Message
			se.ExistingIDs = eb.ExistingIDs
		} else {
			se.Message = strings.TrimSpace(string(raw))
		}
		return se
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("catalog: decode %s response: %w", op, err)
	}
	return nil
}
