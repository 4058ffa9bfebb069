package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shinertx/jenni-shopify/internal/jenni"
	"go.uber.org/zap"
)

type shopifyOrder struct {
	ID              json.Number `json:"id"`
	ShopID          string      `json:"shop_id"`
	ShippingAddress struct {
		Address1     string `json:"address1"`
		City         string `json:"city"`
		ProvinceCode string `json:"province_code"`
		Zip          string `json:"zip"`
	} `json:"shipping_address"`
	LineItems []struct {
		SKU      string      `json:"sku"`
		Quantity int         `json:"quantity"`
		Price    json.Number `json:"price"`
	} `json:"line_items"`
}

func verifyShopifyHMAC(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

// ShopifyOrder accepts an order-creation webhook, verifies its signature and
// enqueues delivery to the provider. The webhook is acked immediately; the
// dispatch worker owns retries.
func (s *Server) ShopifyOrder(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, fetchMaxBytes))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if !verifyShopifyHMAC(s.cfg.WebhookSecret, body, c.GetHeader("X-Shopify-Hmac-Sha256")) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var order shopifyOrder
	if err := json.Unmarshal(body, &order); err != nil || order.ID.String() == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	shopDomain := c.GetHeader("X-Shopify-Shop-Domain")
	storeID := order.ShopID
	if storeID == "" {
		storeID = shopDomain
	}
	if shopDomain != "" {
		token, err := s.shops.Get(c.Request.Context(), shopDomain)
		if err == nil && token == "" {
			// Ack so the platform stops retrying, but do not forward.
			s.log.Info("order from uninstalled shop ignored", zap.String("shop", shopDomain))
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
	}

	providerOrder := jenni.Order{
		StoreID: storeID,
		OrderID: order.ID.String(),
		Address: jenni.OrderAddress{
			Line1: order.ShippingAddress.Address1,
			City:  order.ShippingAddress.City,
			State: order.ShippingAddress.ProvinceCode,
			Zip:   order.ShippingAddress.Zip,
		},
	}
	for _, line := range order.LineItems {
		price, _ := line.Price.Float64()
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		providerOrder.Lines = append(providerOrder.Lines, jenni.OrderLine{
			GTIN:     line.SKU,
			Quantity: qty,
			Price:    price,
		})
	}

	if err := s.queue.Submit(c.Request.Context(), providerOrder); err != nil {
		s.log.Error("order enqueue failed",
			zap.String("order_id", providerOrder.OrderID), zap.Error(err))
		AbortWithError(c, fmt.Errorf("enqueue: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "queued", "order_id": providerOrder.OrderID})
}

type jenniStatusRequest struct {
	StoreID string `json:"storeId"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// JenniStatus records a provider delivery-status callback.
func (s *Server) JenniStatus(c *gin.Context) {
	var req jenniStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := s.queue.UpdateStatus(c.Request.Context(), req.StoreID, req.OrderID, req.Status); err != nil {
		AbortWithError(c, newValidationError("orderId", "invalid_status_update", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
