package jenni

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shinertx/jenni-shopify/internal/config"
	"go.uber.org/zap"
)

const searchPath = "/api/sku-graph/product-availability-service/searchProducts/"

// Variant is one sellable unit inside a provider product. Inventory is keyed
// by destination ZIP with string counts; a missing key means zero.
type Variant struct {
	ProductID        string            `json:"jenni_product_id"`
	GTIN             string            `json:"gtin"`
	Title            string            `json:"title"`
	Price            float64           `json:"price"`
	StockStatus      string            `json:"stock_status"`
	ZipcodeInventory map[string]string `json:"zipcode_inventory"`
}

// Product is a provider parent product with its variants.
type Product struct {
	ParentID string    `json:"jenni_parent_id"`
	Title    string    `json:"title"`
	Brand    string    `json:"brand"`
	Category string    `json:"category"`
	Variants []Variant `json:"variants"`
}

type searchRequest struct {
	GTIN     string `json:"gtin"`
	Zip      string `json:"zip"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type searchResponse struct {
	Products []Product `json:"products"`
}

// OrderLine is one line of an order forwarded to the provider.
type OrderLine struct {
	GTIN     string  `json:"gtin"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderAddress is the delivery destination.
type OrderAddress struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// Order is the payload forwarded to the provider order endpoint.
type Order struct {
	StoreID string       `json:"storeId"`
	OrderID string       `json:"orderId"`
	Address OrderAddress `json:"address"`
	Lines   []OrderLine  `json:"lines"`
}

// Client talks to the availability provider. Search calls authenticate via
// the TokenManager; order submission uses the static API key.
type Client struct {
	cfg    config.Jenni
	tokens *TokenManager
	httpc  *http.Client
	log    *zap.Logger
}

func NewClient(cfg config.Jenni, tokens *TokenManager, httpc *http.Client, log *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		httpc:  httpc,
		log:    log.Named("jenni.client"),
	}
}

// SearchProducts queries availability for an identifier scoped to a ZIP.
// Returns ErrNotFound on 404 and ErrUnavailable on network errors or 5xx.
func (c *Client) SearchProducts(ctx context.Context, gtin, zip string) ([]Product, error) {
	if !c.cfg.Enabled {
		return nil, ErrDisabled
	}
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(searchRequest{GTIN: gtin, Zip: zip, Page: 1, PageSize: 10})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIHost+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: search returned %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("search returned %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return parsed.Products, nil
}

// SubmitOrder forwards an order to the provider. A 409 means the order was
// already accepted and is reported as ErrConflict so callers can treat it as
// success.
func (c *Client) SubmitOrder(ctx context.Context, order Order, idempotencyKey string) error {
	if c.cfg.OrdersURL == "" || c.cfg.APIKey == "" {
		return ErrDisabled
	}
	body, err := json.Marshal(order)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OrdersURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("idempotency-key", idempotencyKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return ErrConflict
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: order returned %d: %s", ErrUnavailable, resp.StatusCode, detail)
		}
		return fmt.Errorf("order returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
