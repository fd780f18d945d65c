// Package ledger speaks the form-encoded contract of the ledger endpoint.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

const (
	actionCloseDay = "cierre"
	maxReplyBytes  = 1 << 20
)

var _ ports.Ledger = (*Client)(nil)

type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout:   timeout,
			Transport: interceptors.NewTransport(nil),
		},
	}
}

func (c *Client) Record(ctx context.Context, p order.Payload) (ports.LedgerReply, error) {
	return c.post(ctx, url.Values{
		"item":     {p.Item},
		"quantity": {strconv.Itoa(p.Quantity)},
		"notes":    {p.Notes},
		"price":    {p.PriceString()},
	})
}

func (c *Client) CloseDay(ctx context.Context) (ports.LedgerReply, error) {
	return c.post(ctx, url.Values{"action": {actionCloseDay}})
}

// post sends form and decodes the JSON reply whatever the status code; the
// endpoint reports business errors in the body.
func (c *Client) post(ctx context.Context, form url.Values) (ports.LedgerReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return ports.LedgerReply{}, fmt.Errorf("ledger: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.LedgerReply{}, apperr.Transport(apperr.ErrMsgUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return ports.LedgerReply{}, apperr.Transport(apperr.ErrMsgUnreachable, err)
	}

	var reply ports.LedgerReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return ports.LedgerReply{}, apperr.Transport(apperr.ErrMsgInvalidResponse,
			fmt.Errorf("status %d: %w", resp.StatusCode, err))
	}
	return reply, nil
}
