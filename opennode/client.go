package opennode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	lnsms "github.com/lnsms/go"
)

// ============================================================================
// OpenNode REST Client
// ============================================================================

// DefaultBaseURL is the production OpenNode API host
const DefaultBaseURL = "https://api.opennode.com"

// DefaultTimeout bounds every request; there are no retries
const DefaultTimeout = 30 * time.Second

// Client talks to the OpenNode v1 charges API.
// Implements lnsms.ChargeGateway.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Config configures the OpenNode client
type Config struct {
	// APIKey is sent verbatim in the Authorization header
	APIKey string

	// BaseURL is the API host (optional, defaults to DefaultBaseURL)
	BaseURL string

	// HTTPClient is the HTTP client to use (optional)
	HTTPClient *http.Client

	// Timeout for requests (optional, defaults to 30s)
	Timeout time.Duration
}

// NewClient creates a new OpenNode client
func NewClient(config Config) *Client {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &Client{
		apiKey:     config.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// CreateCharge creates an unsettled charge priced in spec.Currency.
func (c *Client) CreateCharge(ctx context.Context, spec lnsms.ChargeSpec) (*lnsms.Charge, error) {
	body, err := json.Marshal(createChargeRequest{
		Amount:      json.Number(spec.Amount.String()),
		Currency:    spec.Currency,
		Description: spec.Description,
		AutoSettle:  false,
		OrderID:     spec.OrderReference,
		CallbackURL: spec.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	status, raw, err := c.do(ctx, "create charge", http.MethodPost, c.baseURL+"/v1/charges", body)
	if err != nil {
		return nil, err
	}

	var envelope chargeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &lnsms.UpstreamError{Op: "create charge", StatusCode: status, Body: string(raw), Err: err}
	}
	if err := envelope.Data.validateCreated(); err != nil {
		return nil, &lnsms.UpstreamError{Op: "create charge", StatusCode: status, Body: string(raw), Err: err}
	}

	data := envelope.Data
	return &lnsms.Charge{
		ID:                   data.ID,
		PaymentRequestString: data.LightningInvoice.PayReq,
		HostedCheckoutURL:    data.HostedCheckoutURL,
		ExpiresAt:            data.LightningInvoice.ExpiresAt,
	}, nil
}

// QueryCharge reads the current state of a charge.
func (c *Client) QueryCharge(ctx context.Context, chargeID string) (*lnsms.ChargeStatus, error) {
	status, raw, err := c.do(ctx, "query charge", http.MethodGet, c.baseURL+"/v1/charge/"+url.PathEscape(chargeID), nil)
	if err != nil {
		return nil, err
	}

	var envelope chargeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &lnsms.UpstreamError{Op: "query charge", StatusCode: status, Body: string(raw), Err: err}
	}
	if envelope.Data.Status == "" {
		return nil, &lnsms.UpstreamError{Op: "query charge", StatusCode: status, Body: string(raw), Err: errors.New("missing data.status")}
	}

	data := envelope.Data
	return &lnsms.ChargeStatus{
		ID:        chargeID,
		Status:    data.Status,
		CreatedAt: data.CreatedAt,
		PaidAt:    data.PaidAt,
	}, nil
}

// do performs one request and returns the status and body of a 2xx answer.
func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			err = fmt.Errorf("%w: %v", lnsms.ErrTimeout, err)
		}
		return 0, nil, &lnsms.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &lnsms.UpstreamError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, nil, &lnsms.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: string(responseBody)}
	}

	return resp.StatusCode, responseBody, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Ensure Client implements lnsms.ChargeGateway
var _ lnsms.ChargeGateway = (*Client)(nil)
