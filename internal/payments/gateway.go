package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/itsriyaas/digitalcard-backend/pkg/config"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
)

// GatewayOrderInput is the request to open a payment order at the gateway.
type GatewayOrderInput struct {
	AmountCents int64
	Currency    string
	Receipt     string
}

// GatewayOrder is the gateway's handle for a payment attempt.
type GatewayOrder struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// Gateway opens payment orders with the external provider.
type Gateway interface {
	CreateOrder(ctx context.Context, input GatewayOrderInput) (*GatewayOrder, error)
}

type httpGateway struct {
	cfg    config.GatewayConfig
	client *http.Client
}

// NewHTTPGateway builds a gateway client using basic auth against the
// provider's REST API.
func NewHTTPGateway(cfg config.GatewayConfig) Gateway {
	return &httpGateway{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (g *httpGateway) CreateOrder(ctx context.Context, input GatewayOrderInput) (*GatewayOrder, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   input.AmountCents,
		"currency": input.Currency,
		"receipt":  input.Receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading gateway response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway rejected order").
			WithDetails(map[string]any{
				"status": resp.StatusCode,
				"body":   string(payload),
			})
	}

	var order GatewayOrder
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decoding gateway response %q", string(payload)))
	}
	return &order, nil
}
