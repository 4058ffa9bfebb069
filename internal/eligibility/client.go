package eligibility

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/shinertx/jenni-shopify/internal/cache"
	"github.com/shinertx/jenni-shopify/internal/jenni"
	"go.uber.org/zap"
)

const cacheTTL = 600 * time.Second

// Query identifies a product and destination for an eligibility check.
type Query struct {
	StoreID string  `json:"storeId"`
	Zip     string  `json:"zip"`
	GTIN    string  `json:"gtin"`
	Price   float64 `json:"price,omitempty"`
}

// Result reports whether inventory is reachable and the cheapest matching
// variant price when known.
type Result struct {
	Eligible bool     `json:"eligible"`
	MinPrice *float64 `json:"minPrice,omitempty"`
}

// Client answers eligibility queries against the availability provider,
// caching results per (identifier, zip).
type Client struct {
	provider *jenni.Client
	store    cache.Store
	log      *zap.Logger
}

func NewClient(provider *jenni.Client, store cache.Store, log *zap.Logger) *Client {
	return &Client{
		provider: provider,
		store:    store,
		log:      log.Named("eligibility"),
	}
}

func cacheKey(q Query) string {
	return "elig:" + q.GTIN + ":" + q.Zip
}

// Check resolves eligibility for the query. Cache hits return without I/O.
// Not-found responses are cached as negative results so repeated misses do
// not hammer the upstream 404 path. A disabled integration degrades to
// eligible=false without error.
func (c *Client) Check(ctx context.Context, q Query) (Result, error) {
	key := cacheKey(q)
	if raw, ok := c.store.Get(ctx, key); ok {
		var cached Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	products, err := c.provider.SearchProducts(ctx, q.GTIN, q.Zip)
	if err != nil {
		switch {
		case errors.Is(err, jenni.ErrDisabled):
			return Result{}, nil
		case errors.Is(err, jenni.ErrNotFound):
			result := Result{}
			c.put(ctx, key, result)
			return result, nil
		default:
			return Result{}, err
		}
	}

	result := scan(products, q)
	c.put(ctx, key, result)
	return result, nil
}

// scan walks every variant: one counts only if its identifier matches the
// query exactly and it carries positive inventory for the exact ZIP key.
func scan(products []jenni.Product, q Query) Result {
	var result Result
	for _, product := range products {
		for _, variant := range product.Variants {
			if variant.GTIN != q.GTIN {
				continue
			}
			count, err := strconv.Atoi(variant.ZipcodeInventory[q.Zip])
			if err != nil || count <= 0 {
				continue
			}
			result.Eligible = true
			if variant.Price > 0 && (result.MinPrice == nil || variant.Price < *result.MinPrice) {
				price := variant.Price
				result.MinPrice = &price
			}
		}
	}
	return result
}

func (c *Client) put(ctx context.Context, key string, result Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.log.Warn("marshal cache entry failed", zap.Error(err))
		return
	}
	c.store.Set(ctx, key, raw, cacheTTL)
}
