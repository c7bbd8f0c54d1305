package paynet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paynetgw/internal/logger"

	"go.uber.org/zap"
)

// Gateway is the outbound protocol surface of the PaynetEasy integration.
type Gateway interface {
	Sale(ctx context.Context, req *SaleRequest) (*Response, error)
	QueryStatus(ctx context.Context, req *StatusRequest) (*Response, error)
	Return(ctx context.Context, req *ReturnRequest) (*Response, error)
}

type client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a gateway client. The client never retries; a timeout
// surfaces as ErrUnreachable.
func NewClient(cfg Config) Gateway {
	if cfg.ControlKey == "" {
		logger.L().Warn("PaynetEasy control key is empty")
	}

	return &client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Sale issues the initiate-payment operation. Direct mode posts card data
// to the sale endpoint; form mode posts to the sale-form endpoint and the
// customer finishes payment on the gateway's hosted page.
func (c *client) Sale(ctx context.Context, req *SaleRequest) (*Response, error) {
	op := "sale"
	if c.cfg.Method == MethodForm {
		op = "sale-form"
	}

	resp, err := c.post(ctx, op, req.ClientOrderID, req.Values())
	if err != nil {
		return nil, err
	}
	if resp.RawStatus == "" {
		return nil, fmt.Errorf("%w: sale response missing status field", ErrIncomplete)
	}
	if resp.PaynetOrderID == "" {
		return nil, fmt.Errorf("%w: sale response missing paynet-order-id", ErrIncomplete)
	}
	return resp, nil
}

// QueryStatus issues the signed status operation for an order pairing.
func (c *client) QueryStatus(ctx context.Context, req *StatusRequest) (*Response, error) {
	resp, err := c.post(ctx, "status", req.ClientOrderID, req.Values())
	if err != nil {
		return nil, err
	}
	if resp.RawStatus == "" {
		return nil, fmt.Errorf("%w: status response missing status field", ErrIncomplete)
	}
	return resp, nil
}

// Return issues the signed cancellation/return operation.
func (c *client) Return(ctx context.Context, req *ReturnRequest) (*Response, error) {
	return c.post(ctx, "return", req.ClientOrderID, req.Values())
}

// endpointURL resolves live vs sandbox once per call.
func (c *client) endpointURL(op string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.cfg.ActionURL(), "/"), op, c.cfg.EndpointID)
}

func (c *client) post(ctx context.Context, op, clientOrderID string, form url.Values) (*Response, error) {
	log := logger.L().With(
		zap.String("operation", op),
		zap.String("client_orderid", clientOrderID),
	)

	endpoint := c.endpointURL(op)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("failed building gateway request", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.Debug("sending gateway request",
		zap.String("endpoint", endpoint),
		zap.Any("fields", redactFields(form)),
	)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Error("gateway request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		log.Error("failed reading gateway response", zap.Error(err))
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		log.Error("gateway returned non-success status",
			zap.Int("http_status", httpResp.StatusCode),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("%w: http %d", ErrProtocol, httpResp.StatusCode)
	}

	fields, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		log.Error("failed decoding gateway response",
			zap.Error(err),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	resp := newResponse(fields)
	log.Debug("gateway response",
		zap.String("status", resp.RawStatus),
		zap.String("paynet_order_id", resp.PaynetOrderID),
		zap.Any("fields", resp.Raw),
	)
	return resp, nil
}

func newResponse(fields url.Values) *Response {
	raw := make(map[string]string, len(fields))
	for k := range fields {
		raw[k] = fields.Get(k)
	}

	rawStatus := fields.Get("status")
	return &Response{
		Status:          NormalizeStatus(rawStatus),
		RawStatus:       rawStatus,
		PaynetOrderID:   fields.Get("paynet-order-id"),
		MerchantOrderID: fields.Get("merchant-order-id"),
		RedirectURL:     fields.Get("redirect-url"),
		HTML:            fields.Get("html"),
		ErrorMessage:    fields.Get("error-message"),
		Raw:             raw,
	}
}

// NormalizeStatus trims and lowercases the gateway's status string. The
// recognized vocabulary is exactly {approved, declined, error}; everything
// else falls into the pending bucket.
func NormalizeStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusApproved:
		return StatusApproved
	case StatusDeclined:
		return StatusDeclined
	case StatusError:
		return StatusError
	default:
		return StatusPending
	}
}

// sensitiveFields never reach the log sink. The control value is a hash,
// not the secret, but card data must stay out of logs.
var sensitiveFields = map[string]bool{
	"credit_card_number": true,
	"card_printed_name":  true,
	"expire_month":       true,
	"expire_year":        true,
	"cvv2":               true,
}

func redactFields(form url.Values) map[string]string {
	out := make(map[string]string, len(form))
	for k := range form {
		if sensitiveFields[k] {
			if form.Get(k) != "" {
				out[k] = "[redacted]"
			}
			continue
		}
		out[k] = form.Get(k)
	}
	return out
}
