package interceptors

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/comanda/internal/pkg/interceptors/constants"
)

// Transport copies the request id and idempotency key from the request
// context into outbound headers.
type Transport struct {
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	requestID := RequestID(ctx)
	idemKey := IdempotencyKey(ctx)
	if requestID != "" || idemKey != "" {
		req = req.Clone(ctx)
		if requestID != "" && req.Header.Get(constants.HeaderXRequestId) == "" {
			req.Header.Set(constants.HeaderXRequestId, requestID)
		}
		if idemKey != "" && req.Header.Get(constants.HeaderXIdempotencyKey) == "" {
			req.Header.Set(constants.HeaderXIdempotencyKey, idemKey)
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewTransport stacks metadata propagation on top of otelhttp tracing.
func NewTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return otelhttp.NewTransport(&Transport{Base: base})
}
