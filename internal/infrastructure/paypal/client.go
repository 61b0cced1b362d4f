package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/config"
)

// Client talks to the PayPal v1 REST API. Every call goes through the single
// send seam so auth-token refresh and correlation headers live in one place
// and decorators (retry, instrumentation) can wrap the whole surface.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg config.PayPalConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
		secret:   cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

// Payments and orders.

func (c *Client) CreatePayment(ctx context.Context, req *PaymentRequest, correlationID string) (*Payment, error) {
	return sendRequest[Payment](c, ctx, http.MethodPost, "/v1/payments/payment", req, correlationID)
}

func (c *Client) ExecutePayment(ctx context.Context, paymentID string, req *ExecuteRequest, correlationID string) (*Payment, error) {
	path := fmt.Sprintf("/v1/payments/payment/%s/execute", paymentID)
	return sendRequest[Payment](c, ctx, http.MethodPost, path, req, correlationID)
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	path := fmt.Sprintf("/v1/payments/payment/%s", paymentID)
	return sendRequest[Payment](c, ctx, http.MethodGet, path, nil, "")
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*OrderResource, error) {
	path := fmt.Sprintf("/v1/payments/orders/%s", orderID)
	return sendRequest[OrderResource](c, ctx, http.MethodGet, path, nil, "")
}

func (c *Client) AuthorizeOrder(ctx context.Context, orderID string, req *AuthorizationRequest, correlationID string) (*AuthorizationResource, error) {
	path := fmt.Sprintf("/v1/payments/orders/%s/authorize", orderID)
	return sendRequest[AuthorizationResource](c, ctx, http.MethodPost, path, req, correlationID)
}

func (c *Client) CaptureOrder(ctx context.Context, orderID string, req *CaptureRequest, correlationID string) (*CaptureResource, error) {
	path := fmt.Sprintf("/v1/payments/orders/%s/capture", orderID)
	return sendRequest[CaptureResource](c, ctx, http.MethodPost, path, req, correlationID)
}

func (c *Client) VoidOrder(ctx context.Context, orderID string, correlationID string) (*OrderResource, error) {
	path := fmt.Sprintf("/v1/payments/orders/%s/do-void", orderID)
	return sendRequest[OrderResource](c, ctx, http.MethodPost, path, nil, correlationID)
}

func (c *Client) RefundCapture(ctx context.Context, captureID string, req *RefundRequest, correlationID string) (*RefundResource, error) {
	path := fmt.Sprintf("/v1/payments/capture/%s/refund", captureID)
	return sendRequest[RefundResource](c, ctx, http.MethodPost, path, req, correlationID)
}

// Billing plans.

func (c *Client) CreatePlan(ctx context.Context, req *BillingPlanRequest, correlationID string) (*BillingPlan, error) {
	return sendRequest[BillingPlan](c, ctx, http.MethodPost, "/v1/payments/billing-plans", req, correlationID)
}

// ActivatePlan patches a freshly created plan into the ACTIVE state.
// Creation alone leaves the plan unusable for agreements.
func (c *Client) ActivatePlan(ctx context.Context, planID string) error {
	path := fmt.Sprintf("/v1/payments/billing-plans/%s", planID)
	patch := []PatchOp{{
		Op:    "replace",
		Path:  "/",
		Value: map[string]string{"state": PlanStateActive},
	}}
	_, err := c.send(ctx, http.MethodPatch, path, patch, "")
	return err
}

func (c *Client) GetPlan(ctx context.Context, planID string) (*BillingPlan, error) {
	path := fmt.Sprintf("/v1/payments/billing-plans/%s", planID)
	return sendRequest[BillingPlan](c, ctx, http.MethodGet, path, nil, "")
}

func (c *Client) ListPlans(ctx context.Context, status string, page, pageSize int) (*BillingPlanList, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("page_size", fmt.Sprintf("%d", pageSize))
	q.Set("total_required", "yes")
	return sendRequest[BillingPlanList](c, ctx, http.MethodGet, "/v1/payments/billing-plans?"+q.Encode(), nil, "")
}

// Billing agreements.

func (c *Client) CreateAgreement(ctx context.Context, req *BillingAgreementRequest, correlationID string) (*BillingAgreement, error) {
	return sendRequest[BillingAgreement](c, ctx, http.MethodPost, "/v1/payments/billing-agreements", req, correlationID)
}

func (c *Client) ExecuteAgreement(ctx context.Context, token string, correlationID string) (*BillingAgreement, error) {
	path := fmt.Sprintf("/v1/payments/billing-agreements/%s/agreement-execute", token)
	return sendRequest[BillingAgreement](c, ctx, http.MethodPost, path, nil, correlationID)
}

func (c *Client) GetAgreement(ctx context.Context, agreementID string) (*BillingAgreement, error) {
	path := fmt.Sprintf("/v1/payments/billing-agreements/%s", agreementID)
	return sendRequest[BillingAgreement](c, ctx, http.MethodGet, path, nil, "")
}

func (c *Client) CancelAgreement(ctx context.Context, agreementID, note string, correlationID string) error {
	path := fmt.Sprintf("/v1/payments/billing-agreements/%s/cancel", agreementID)
	_, err := c.send(ctx, http.MethodPost, path, &AgreementStateDescriptor{Note: note}, correlationID)
	return err
}

func (c *Client) BillAgreementBalance(ctx context.Context, agreementID string, req *BillBalanceRequest, correlationID string) error {
	path := fmt.Sprintf("/v1/payments/billing-agreements/%s/bill-balance", agreementID)
	_, err := c.send(ctx, http.MethodPost, path, req, correlationID)
	return err
}

func (c *Client) ListAgreementTransactions(ctx context.Context, agreementID string, start, end time.Time) (*AgreementTransactionList, error) {
	q := url.Values{}
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	path := fmt.Sprintf("/v1/payments/billing-agreements/%s/transactions?%s", agreementID, q.Encode())
	return sendRequest[AgreementTransactionList](c, ctx, http.MethodGet, path, nil, "")
}

func sendRequest[Resp any](c *Client, ctx context.Context, method, path string, reqBody any, correlationID string) (*Resp, error) {
	data, err := c.send(ctx, method, path, reqBody, correlationID)
	if err != nil {
		return nil, err
	}

	var resp Resp
	if len(data) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("error decoding json response: %w", err)
		}
	}
	return &resp, nil
}

// send is the single seam every provider call funnels through.
func (c *Client) send(ctx context.Context, method, path string, reqBody any, correlationID string) ([]byte, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if correlationID != "" {
		httpReq.Header.Set("PayPal-Request-Id", correlationID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Name == "" {
			return nil, &GatewayError{
				Name:       "UNPARSEABLE_RESPONSE",
				Message:    string(body),
				StatusCode: resp.StatusCode,
			}
		}
		return nil, &GatewayError{
			Name:       errResp.Name,
			Message:    errResp.Message,
			StatusCode: resp.StatusCode,
			DebugID:    errResp.DebugID,
		}
	}

	return body, nil
}

// ensureToken returns a cached OAuth token, fetching a fresh one shortly
// before expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating token request: %w", err)
	}
	httpReq.SetBasicAuth(c.clientID, c.secret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error requesting access token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{
			Name:       "AUTHENTICATION_FAILURE",
			Message:    string(body),
			StatusCode: resp.StatusCode,
		}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("error decoding token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	// Renew a minute early so in-flight calls never race expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)

	return c.accessToken, nil
}
