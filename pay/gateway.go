package pay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"freshcart/errs"
	"freshcart/models"

	"github.com/go-resty/resty/v2"
)

// Gateway creates payment intents at the external processor.
type Gateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*models.GatewayOrder, error)
}

type GatewayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// RazorpayClient talks to the Razorpay orders API with basic auth.
type RazorpayClient struct {
	http *resty.Client
}

func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	return &RazorpayClient{http: c}
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*models.GatewayOrder, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/orders")
	if err != nil {
		log.Printf("gateway: create order: %v", err)
		return nil, errs.Wrap(errs.GatewayUnavailable, "Failed to create payment order", err)
	}
	if resp.IsError() {
		log.Printf("gateway: create order returned %d: %s", resp.StatusCode(), resp.Body())
		return nil, errs.E(errs.GatewayUnavailable, "Failed to create payment order")
	}

	var order models.GatewayOrder
	if err := json.Unmarshal(resp.Body(), &order); err != nil {
		return nil, errs.Wrap(errs.GatewayUnavailable, "Invalid response from payment gateway", fmt.Errorf("decode: %w", err))
	}
	if order.ID == "" {
		return nil, errs.E(errs.GatewayUnavailable, "Payment gateway returned no order")
	}
	return &order, nil
}
