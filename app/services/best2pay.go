package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CurrencyRUB is the ISO 4217 numeric code Best2Pay expects for roubles.
const CurrencyRUB = "643"

type Best2PayConfig struct {
	Sector          string
	Secret          string
	BaseURL         string
	SuccessRedirect string
	FailRedirect    string
}

// SuccessURL substitutes the order id into the configured redirect.
func (c Best2PayConfig) SuccessURL(orderID string) string {
	return strings.ReplaceAll(c.SuccessRedirect, "{orderId}", orderID)
}

func (c Best2PayConfig) FailURL(orderID string) string {
	return strings.ReplaceAll(c.FailRedirect, "{orderId}", orderID)
}

type RegisterRequest struct {
	Amount      int64
	Reference   string
	Description string
}

type RegisterResponse struct {
	ID    string
	State string
}

// Best2PayError is an <error> document returned by the gateway.
type Best2PayError struct {
	Code        string
	Description string
}

func (e *Best2PayError) Error() string {
	return fmt.Sprintf("best2pay error %s: %s", e.Code, e.Description)
}

type Best2PayClient interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	AuthorizeURL(b2pOrderID string) string
}

type best2PayClient struct {
	cfg    Best2PayConfig
	client *http.Client
}

func NewBest2PayClient(cfg Best2PayConfig) Best2PayClient {
	return &best2PayClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Signature is base64 of the hex md5 over sector, fields and secret, in that
// order.
func (c *best2PayClient) Signature(fields ...string) string {
	sum := md5.Sum([]byte(c.cfg.Sector + strings.Join(fields, "") + c.cfg.Secret))
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
}

func (c *best2PayClient) doRequest(ctx context.Context, method, path string, bodyReader *bytes.Buffer, contentType string) ([]byte, error) {
	fullURL := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if bodyReader == nil {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("best2pay request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read best2pay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("best2pay returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

type registerDocument struct {
	XMLName     xml.Name
	ID          string `xml:"id"`
	State       string `xml:"state"`
	Code        string `xml:"code"`
	Description string `xml:"description"`
}

func (c *best2PayClient) Register(ctx context.Context, in RegisterRequest) (*RegisterResponse, error) {
	amount := strconv.FormatInt(in.Amount, 10)

	form := url.Values{}
	form.Set("sector", c.cfg.Sector)
	form.Set("amount", amount)
	form.Set("currency", CurrencyRUB)
	form.Set("reference", in.Reference)
	form.Set("description", in.Description)
	form.Set("url", c.cfg.SuccessURL(in.Reference))
	form.Set("failurl", c.cfg.FailURL(in.Reference))
	form.Set("signature", c.Signature(amount, CurrencyRUB))

	zap.L().Info("Best2Pay.Register: registering order", zap.String("reference", in.Reference), zap.String("amount", amount))

	body, err := c.doRequest(ctx, http.MethodPost, "/Register", bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	var doc registerDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse best2pay response: %w", err)
	}
	if doc.XMLName.Local == "error" {
		return nil, &Best2PayError{Code: doc.Code, Description: doc.Description}
	}
	if doc.XMLName.Local != "order" || doc.ID == "" {
		return nil, fmt.Errorf("unexpected best2pay response: %s", string(body))
	}
	return &RegisterResponse{ID: doc.ID, State: doc.State}, nil
}

func (c *best2PayClient) AuthorizeURL(b2pOrderID string) string {
	q := url.Values{}
	q.Set("sector", c.cfg.Sector)
	q.Set("id", b2pOrderID)
	q.Set("signature", c.Signature(b2pOrderID))
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/Authorize?" + q.Encode()
}
