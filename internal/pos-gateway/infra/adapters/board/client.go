// Package board is the JSON client of the board service.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

const maxReplyBytes = 1 << 20

var (
	_ ports.Board         = (*Client)(nil)
	_ ports.PaymentForcer = (*Client)(nil)
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: interceptors.NewTransport(nil),
		},
	}
}

// pendingRequest carries the price as a JSON number.
type pendingRequest struct {
	Item     string  `json:"item"`
	Quantity int     `json:"quantity"`
	Notes    string  `json:"notes"`
	Price    float64 `json:"price"`
}

func (c *Client) CreatePending(ctx context.Context, p order.Payload) (ports.PendingReply, error) {
	var reply ports.PendingReply
	err := c.do(ctx, "/api/pending", pendingRequest{
		Item:     p.Item,
		Quantity: p.Quantity,
		Notes:    p.Notes,
		Price:    p.Price.Round(2).InexactFloat64(),
	}, &reply)
	return reply, err
}

func (c *Client) Checkout(ctx context.Context, req ports.CheckoutRequest) (ports.CheckoutReply, error) {
	var reply ports.CheckoutReply
	err := c.do(ctx, "/api/checkout", req, &reply)
	return reply, err
}

func (c *Client) MarkPaid(ctx context.Context, paymentID string) (ports.Reply, error) {
	var reply ports.Reply
	err := c.do(ctx, "/api/payments/"+url.PathEscape(paymentID)+"/mock-paid", nil, &reply)
	return reply, err
}

// do POSTs in as JSON and decodes the reply into out regardless of the
// status code; the board reports rejections in the body.
func (c *Client) do(ctx context.Context, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("board: encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("board: build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Transport(apperr.ErrMsgUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return apperr.Transport(apperr.ErrMsgUnreachable, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Transport(apperr.ErrMsgInvalidResponse,
			fmt.Errorf("%s status %d: %w", path, resp.StatusCode, err))
	}
	return nil
}
